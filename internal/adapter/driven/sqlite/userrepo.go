package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, public_id, handle, display_name, email, password_hash,
	bio, role, origin, external_ref, created_at, updated_at, deleted_at`

// Create inserts a new user and assigns its storage ID.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	const query = `
		INSERT INTO users (public_id, handle, display_name, email, password_hash,
			bio, role, origin, external_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		user.PublicID, user.Handle, user.DisplayName, user.Email, user.PasswordHash,
		user.Bio, string(user.Role), user.Origin, nullString(user.ExternalRef),
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", user.Handle, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}

	return nil
}

// GetActiveByID returns the non-deleted user with the given storage ID, or
// nil if none exists.
func (r *UserRepo) GetActiveByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetActiveByPublicID returns the non-deleted user with the given public UUID.
func (r *UserRepo) GetActiveByPublicID(ctx context.Context, publicID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE public_id = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, publicID)
}

// GetActiveByHandle returns the non-deleted user with the given handle.
func (r *UserRepo) GetActiveByHandle(ctx context.Context, handle string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE handle = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, handle)
}

// GetActiveByEmail returns the non-deleted user with the given email.
func (r *UserRepo) GetActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, email)
}

// GetByExternalRef looks up an imported user by its stable federation
// identity. Soft-deleted users are included: a deleted imported author must
// not be re-created under the same reference.
func (r *UserRepo) GetByExternalRef(ctx context.Context, service, ref string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE origin = ? AND external_ref = ?`
	return r.getOne(ctx, query, service, ref)
}

// Update rewrites the user's mutable fields.
func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	const query = `
		UPDATE users
		SET handle = ?, display_name = ?, email = ?, password_hash = ?, bio = ?,
			role = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		user.Handle, user.DisplayName, user.Email, user.PasswordHash, user.Bio,
		string(user.Role), user.UpdatedAt.UTC(), formatNullTime(user.DeletedAt),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}

	return nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var role string
	var externalRef sql.NullString
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := s.Scan(
		&user.ID, &user.PublicID, &user.Handle, &user.DisplayName, &user.Email,
		&user.PasswordHash, &user.Bio, &role, &user.Origin, &externalRef,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = model.Role(role)
	if externalRef.Valid {
		user.ExternalRef = externalRef.String
	}

	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	user.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	user.DeletedAt, err = parseNullTime(deletedAt)
	if err != nil {
		return nil, fmt.Errorf("parse deleted_at: %w", err)
	}

	return &user, nil
}

// nullString converts an empty string to NULL for nullable TEXT columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// insertUserTx inserts a user within a transaction. Shared with the import
// transaction surface.
func insertUserTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	const query = `
		INSERT INTO users (public_id, handle, display_name, email, password_hash,
			bio, role, origin, external_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	res, err := tx.ExecContext(ctx, query,
		user.PublicID, user.Handle, user.DisplayName, user.Email, user.PasswordHash,
		user.Bio, string(user.Role), user.Origin, nullString(user.ExternalRef),
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", user.Handle, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}

	return nil
}
