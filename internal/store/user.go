package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/benlox44/restaurant-auth/types"
)

const userColumns = `id, created_at, name, email, password_hash, is_locked,
		is_email_confirmed, old_email, new_email, email_changed_at, role`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsLocked,
		&user.IsEmailConfirmed,
		&user.OldEmail,
		&user.NewEmail,
		&user.EmailChangedAt,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) FindAll(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.CreatedAt,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.IsLocked,
			&user.IsEmailConfirmed,
			&user.OldEmail,
			&user.NewEmail,
			&user.EmailChangedAt,
			&user.Role,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()
	if user.Role == "" {
		user.Role = "CLIENT"
	}

	const query = `
		INSERT INTO users (created_at, name, email, password_hash, is_locked,
			is_email_confirmed, old_email, new_email, email_changed_at, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.CreatedAt,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsLocked,
		user.IsEmailConfirmed,
		user.OldEmail,
		user.NewEmail,
		user.EmailChangedAt,
		user.Role,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			password_hash = $3,
			is_locked = $4,
			is_email_confirmed = $5,
			old_email = $6,
			new_email = $7,
			email_changed_at = $8,
			role = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsLocked,
		user.IsEmailConfirmed,
		user.OldEmail,
		user.NewEmail,
		user.EmailChangedAt,
		user.Role,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUnconfirmedBefore removes accounts that never confirmed their email
// and were created before the cutoff. Returns the number of rows removed.
func (r *UserRepository) DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM users
		WHERE is_email_confirmed = FALSE AND created_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
