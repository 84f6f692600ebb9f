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
var _ driven.PublicationStore = (*PublicationRepo)(nil)

// PublicationRepo is the SQLite implementation of the PublicationStore port
// interface.
type PublicationRepo struct {
	db *DB
}

// NewPublicationRepo creates a new PublicationRepo backed by the given DB.
func NewPublicationRepo(db *DB) *PublicationRepo {
	return &PublicationRepo{db: db}
}

const publicationColumns = `id, public_id, owner_id, title, abstract, content,
	status, created_at, updated_at, deleted_at`

// Create inserts a new publication and assigns its storage ID.
func (r *PublicationRepo) Create(ctx context.Context, pub *model.Publication) error {
	const query = `
		INSERT INTO publications (public_id, owner_id, title, abstract, content,
			status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		pub.PublicID, pub.OwnerID, pub.Title, pub.Abstract, pub.Content,
		string(pub.Status), pub.CreatedAt.UTC(), pub.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert publication %s: %w", pub.PublicID, err)
	}

	pub.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("publication insert id: %w", err)
	}

	return nil
}

// GetActiveByID returns the non-deleted publication with the given storage ID.
func (r *PublicationRepo) GetActiveByID(ctx context.Context, id int64) (*model.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE id = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetActiveByPublicID returns the non-deleted publication with the given
// public UUID.
func (r *PublicationRepo) GetActiveByPublicID(ctx context.Context, publicID string) (*model.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE public_id = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, publicID)
}

// ListActive returns published, non-deleted publications newest first with
// skip/limit pagination, plus the total count of matching rows.
func (r *PublicationRepo) ListActive(ctx context.Context, offset, limit int) ([]model.Publication, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM publications
		WHERE status = 'published' AND deleted_at IS NULL
	`

	var total int
	if err := r.db.Reader.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count publications: %w", err)
	}

	query := `
		SELECT ` + publicationColumns + ` FROM publications
		WHERE status = 'published' AND deleted_at IS NULL
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	pubs, err := r.list(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return pubs, total, nil
}

// ListActiveByOwner returns a user's non-deleted publications newest first.
func (r *PublicationRepo) ListActiveByOwner(ctx context.Context, ownerID int64) ([]model.Publication, error) {
	query := `
		SELECT ` + publicationColumns + ` FROM publications
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY id DESC
	`
	return r.list(ctx, query, ownerID)
}

// Update rewrites the publication's mutable fields.
func (r *PublicationRepo) Update(ctx context.Context, pub *model.Publication) error {
	const query = `
		UPDATE publications
		SET title = ?, abstract = ?, content = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		pub.Title, pub.Abstract, pub.Content, string(pub.Status),
		pub.UpdatedAt.UTC(), pub.ID,
	)
	if err != nil {
		return fmt.Errorf("update publication %d: %w", pub.ID, err)
	}

	return nil
}

// SoftDelete marks the publication deleted without removing its rows.
func (r *PublicationRepo) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE publications SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	_, err := r.db.Writer.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete publication %d: %w", id, err)
	}

	return nil
}

// AddRevision appends a revision and assigns its storage ID.
func (r *PublicationRepo) AddRevision(ctx context.Context, rev *model.Revision) error {
	const query = `
		INSERT INTO revisions (publication_id, seq, title, abstract, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		rev.PublicationID, rev.Seq, rev.Title, rev.Abstract, rev.Content,
		rev.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert revision %d/%d: %w", rev.PublicationID, rev.Seq, err)
	}

	rev.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("revision insert id: %w", err)
	}

	return nil
}

// ListRevisions returns a publication's revisions in ascending seq order.
func (r *PublicationRepo) ListRevisions(ctx context.Context, publicationID int64) ([]model.Revision, error) {
	const query = `
		SELECT id, publication_id, seq, title, abstract, content, created_at
		FROM revisions
		WHERE publication_id = ?
		ORDER BY seq
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("query revisions for publication %d: %w", publicationID, err)
	}
	defer rows.Close()

	var revs []model.Revision
	for rows.Next() {
		var rev model.Revision
		var createdAt string

		err := rows.Scan(&rev.ID, &rev.PublicationID, &rev.Seq, &rev.Title,
			&rev.Abstract, &rev.Content, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}

		rev.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		revs = append(revs, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}

	return revs, nil
}

func (r *PublicationRepo) getOne(ctx context.Context, query string, args ...any) (*model.Publication, error) {
	pub, err := scanPublication(r.db.Reader.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query publication: %w", err)
	}
	return pub, nil
}

func (r *PublicationRepo) list(ctx context.Context, query string, args ...any) ([]model.Publication, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	var pubs []model.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		pubs = append(pubs, *pub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publications: %w", err)
	}

	return pubs, nil
}

func scanPublication(s scanner) (*model.Publication, error) {
	var pub model.Publication
	var status string
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := s.Scan(
		&pub.ID, &pub.PublicID, &pub.OwnerID, &pub.Title, &pub.Abstract,
		&pub.Content, &status, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	pub.Status = model.PublicationStatus(status)

	pub.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	pub.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	pub.DeletedAt, err = parseNullTime(deletedAt)
	if err != nil {
		return nil, fmt.Errorf("parse deleted_at: %w", err)
	}

	return &pub, nil
}
