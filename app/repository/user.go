package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
)

const userSelectColumns = `id, email, username, password_hash, full_name, is_email_verified, refresh_token_hash,
		       email_verification_token_hash, email_verification_token_expires_at,
		       forgot_password_token_hash, forgot_password_token_expires_at, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, full_name, is_email_verified,
		                   email_verification_token_hash, email_verification_token_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.IsEmailVerified,
		user.EmailVerificationTokenHash,
		user.EmailVerificationTokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE email = ?
	`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE username = ?
	`
	return r.findOne(ctx, query, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) FindByEmailVerificationToken(ctx context.Context, tokenHash string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE email_verification_token_hash = ?
	`
	return r.findOne(ctx, query, tokenHash)
}

func (r *UserRepository) FindByForgotPasswordToken(ctx context.Context, tokenHash string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE forgot_password_token_hash = ?
	`
	return r.findOne(ctx, query, tokenHash)
}

// FindProfileByID selects only non-secret columns.
func (r *UserRepository) FindProfileByID(ctx context.Context, id uint64) (*entity.Profile, error) {
	query := `
		SELECT id, email, username, full_name, is_email_verified, created_at, updated_at
		FROM users WHERE id = ?
	`
	profile := &entity.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Username,
		&profile.FullName,
		&profile.IsEmailVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *UserRepository) SetEmailVerificationToken(ctx context.Context, userID uint64, tokenHash string, expiresAt, now time.Time) error {
	query := `
		UPDATE users SET email_verification_token_hash = ?, email_verification_token_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, now, userID)
	return err
}

func (r *UserRepository) ClearEmailVerificationToken(ctx context.Context, userID uint64, now time.Time) error {
	query := `
		UPDATE users SET email_verification_token_hash = NULL, email_verification_token_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, now, userID)
	return err
}

func (r *UserRepository) SetForgotPasswordToken(ctx context.Context, userID uint64, tokenHash string, expiresAt, now time.Time) error {
	query := `
		UPDATE users SET forgot_password_token_hash = ?, forgot_password_token_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, now, userID)
	return err
}

func (r *UserRepository) ClearForgotPasswordToken(ctx context.Context, userID uint64, now time.Time) error {
	query := `
		UPDATE users SET forgot_password_token_hash = NULL, forgot_password_token_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, now, userID)
	return err
}

// ConfirmEmail marks the user verified and consumes the verification token in
// one statement. It reports false when the stored hash no longer matches,
// which means another request consumed or replaced the token first.
func (r *UserRepository) ConfirmEmail(ctx context.Context, userID uint64, tokenHash string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET is_email_verified = 1, email_verification_token_hash = NULL,
		                 email_verification_token_expires_at = NULL, updated_at = ?
		WHERE id = ? AND email_verification_token_hash = ?
	`
	return r.execAffectsRow(ctx, query, now, userID, tokenHash)
}

// ResetPassword stores the new digest, consumes the reset token and revokes
// the refresh token in one statement, guarded by the reset token hash.
func (r *UserRepository) ResetPassword(ctx context.Context, userID uint64, tokenHash, passwordHash string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET password_hash = ?, forgot_password_token_hash = NULL,
		                 forgot_password_token_expires_at = NULL, refresh_token_hash = NULL, updated_at = ?
		WHERE id = ? AND forgot_password_token_hash = ?
	`
	return r.execAffectsRow(ctx, query, passwordHash, now, userID, tokenHash)
}

// UpdatePassword stores the new digest and revokes the refresh token.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint64, passwordHash string, now time.Time) error {
	query := `
		UPDATE users SET password_hash = ?, refresh_token_hash = NULL, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, passwordHash, now, userID)
	return err
}

// SetRefreshToken overwrites the stored refresh token digest. A NULL value
// revokes it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID uint64, tokenHash sql.NullString, now time.Time) error {
	query := `
		UPDATE users SET refresh_token_hash = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, tokenHash, now, userID)
	return err
}

// SwapRefreshToken replaces the stored digest only if it still equals
// currentHash.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, userID uint64, currentHash, newHash string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET refresh_token_hash = ?, updated_at = ?
		WHERE id = ? AND refresh_token_hash = ?
	`
	return r.execAffectsRow(ctx, query, newHash, now, userID, currentHash)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID uint64, username, fullName string, now time.Time) error {
	query := `
		UPDATE users SET username = ?, full_name = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, username, fullName, now, userID)
	return translateError(err)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) execAffectsRow(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func scanUser(scan func(dest ...any) error) (*entity.User, error) {
	user := &entity.User{}
	err := scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.IsEmailVerified,
		&user.RefreshTokenHash,
		&user.EmailVerificationTokenHash,
		&user.EmailVerificationTokenExpiresAt,
		&user.ForgotPasswordTokenHash,
		&user.ForgotPasswordTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
