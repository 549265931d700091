package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const accountColumns = `
	id, username, email, fullname, avatar_url, cover_image_url,
	password_hash, refresh_token, refresh_token_expires_at, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, account Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, fullname, avatar_url, cover_image_url,
			password_hash, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, account.ID, account.Username, account.Email, account.FullName,
		account.AvatarURL, account.CoverImageURL, account.PasswordHash,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *Repository) GetByLogin(ctx context.Context, usernameOrEmail string) (Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE username = $1 OR email = $1
	`, usernameOrEmail))
}

func (r *Repository) SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, token, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}

	return requireRow(res)
}

func (r *Repository) RotateRefreshToken(ctx context.Context, id, presented, next string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = $3, refresh_token_expires_at = $4, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2
	`, id, presented, next, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate refresh token rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTokenMismatch
	}

	return nil
}

func (r *Repository) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	return requireRow(res)
}

func (r *Repository) ClearExpiredRefreshTokens(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM users
			WHERE refresh_token IS NOT NULL AND refresh_token_expires_at < NOW()
			ORDER BY refresh_token_expires_at ASC
			LIMIT $1
		)
		UPDATE users u
		SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = NOW()
		FROM stale
		WHERE u.id = stale.id
	`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("clear expired refresh tokens: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired refresh tokens rows affected: %w", err)
	}

	return affected, nil
}

func (r *Repository) scanOne(row *sql.Row) (Account, error) {
	var account Account
	var refreshToken sql.NullString
	var refreshExpiry sql.NullTime

	err := row.Scan(
		&account.ID, &account.Username, &account.Email, &account.FullName,
		&account.AvatarURL, &account.CoverImageURL, &account.PasswordHash,
		&refreshToken, &refreshExpiry, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("query account: %w", err)
	}

	if refreshToken.Valid {
		account.RefreshToken = &refreshToken.String
	}
	if refreshExpiry.Valid {
		value := refreshExpiry.Time.UTC()
		account.RefreshTokenExpiresAt = &value
	}

	return account, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
