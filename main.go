package main

import "github.com/benlox44/restaurant-auth/cmd"

func main() {
	cmd.Execute()
}
