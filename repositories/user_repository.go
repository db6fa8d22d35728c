package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.User, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ConfirmEmail(ctx context.Context, id int) error
	SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	// DeleteUnconfirmedBefore drops accounts that never confirmed their
	// email and are older than the cutoff. Confirmed accounts are never
	// touched.
	DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `
	id, first_name, last_name, email, password_hash, role,
	email_confirmed, email_confirmation_token,
	password_reset_token, password_reset_expires_at,
	logo_key, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.EmailConfirmed,
		&user.EmailConfirmationToken,
		&user.PasswordResetToken,
		&user.PasswordResetExpiresAt,
		&user.LogoKey,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role, email_confirmation_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.EmailConfirmationToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email_confirmation_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *postgresUserRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE password_reset_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, password_hash = $5,
		    password_reset_token = $6, password_reset_expires_at = $7
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.PasswordResetToken,
		user.PasswordResetExpiresAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ConfirmEmail(ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET email_confirmed = TRUE, email_confirmation_token = NULL
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, token, expiresAt)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET logo_key = $2 WHERE id = $1`, id, logoKey)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE NOT email_confirmed AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
