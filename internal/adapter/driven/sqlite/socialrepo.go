package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SocialStore = (*SocialRepo)(nil)

// SocialRepo is the SQLite implementation of the SocialStore port interface.
type SocialRepo struct {
	db *DB
}

// NewSocialRepo creates a new SocialRepo backed by the given DB.
func NewSocialRepo(db *DB) *SocialRepo {
	return &SocialRepo{db: db}
}

// Follow adds a follower edge. Adding an existing edge is a no-op.
func (r *SocialRepo) Follow(ctx context.Context, followerID, followedID int64) error {
	const query = `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(follower_id, followed_id) DO NOTHING
	`

	_, err := r.db.Writer.ExecContext(ctx, query, followerID, followedID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("follow %d -> %d: %w", followerID, followedID, err)
	}

	return nil
}

// Unfollow removes a follower edge. Removing a missing edge is a no-op.
func (r *SocialRepo) Unfollow(ctx context.Context, followerID, followedID int64) error {
	const query = `DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return fmt.Errorf("unfollow %d -> %d: %w", followerID, followedID, err)
	}

	return nil
}

// ListFollowers returns the non-deleted users following the given user.
func (r *SocialRepo) ListFollowers(ctx context.Context, userID int64) ([]model.User, error) {
	query := `
		SELECT ` + joinUserColumns() + `
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followed_id = ? AND u.deleted_at IS NULL
		ORDER BY f.created_at
	`
	return r.listUsers(ctx, query, userID)
}

// ListFollowing returns the non-deleted users the given user follows.
func (r *SocialRepo) ListFollowing(ctx context.Context, userID int64) ([]model.User, error) {
	query := `
		SELECT ` + joinUserColumns() + `
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		WHERE f.follower_id = ? AND u.deleted_at IS NULL
		ORDER BY f.created_at
	`
	return r.listUsers(ctx, query, userID)
}

// AddBookmark saves a publication for a user. Saving twice is a no-op.
func (r *SocialRepo) AddBookmark(ctx context.Context, userID, publicationID int64) error {
	const query = `
		INSERT INTO bookmarks (user_id, publication_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, publication_id) DO NOTHING
	`

	_, err := r.db.Writer.ExecContext(ctx, query, userID, publicationID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add bookmark %d/%d: %w", userID, publicationID, err)
	}

	return nil
}

// RemoveBookmark removes a saved publication. Removing a missing bookmark is
// a no-op.
func (r *SocialRepo) RemoveBookmark(ctx context.Context, userID, publicationID int64) error {
	const query = `DELETE FROM bookmarks WHERE user_id = ? AND publication_id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, userID, publicationID)
	if err != nil {
		return fmt.Errorf("remove bookmark %d/%d: %w", userID, publicationID, err)
	}

	return nil
}

// ListBookmarks returns a user's bookmarked, non-deleted publications in
// bookmark order.
func (r *SocialRepo) ListBookmarks(ctx context.Context, userID int64) ([]model.Publication, error) {
	query := `
		SELECT ` + joinPublicationColumns() + `
		FROM bookmarks b
		JOIN publications p ON p.id = b.publication_id
		WHERE b.user_id = ? AND p.deleted_at IS NULL
		ORDER BY b.created_at
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks for user %d: %w", userID, err)
	}
	defer rows.Close()

	var pubs []model.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmarked publication: %w", err)
		}
		pubs = append(pubs, *pub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}

	return pubs, nil
}

func (r *SocialRepo) listUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// joinUserColumns qualifies the user column list with the "u." alias.
func joinUserColumns() string {
	return `u.id, u.public_id, u.handle, u.display_name, u.email, u.password_hash,
	u.bio, u.role, u.origin, u.external_ref, u.created_at, u.updated_at, u.deleted_at`
}

// joinPublicationColumns qualifies the publication column list with the "p."
// alias.
func joinPublicationColumns() string {
	return `p.id, p.public_id, p.owner_id, p.title, p.abstract, p.content,
	p.status, p.created_at, p.updated_at, p.deleted_at`
}
