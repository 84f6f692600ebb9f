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

// Compile-time interface satisfaction checks.
var (
	_ driven.ReviewStore = (*ReviewRepo)(nil)
	_ driven.ImportTx    = (*importTx)(nil)
)

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewColumns = `id, public_id, publication_id, author_id, summary, status, origin, created_at`

const insertReviewQuery = `
	INSERT INTO reviews (public_id, publication_id, author_id, summary, status, origin, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

const insertCommentQuery = `
	INSERT INTO comments (review_id, author_id, thread_id, reply_to, filename,
		anchor_start, anchor_end, body, posted_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create inserts a new review and assigns its storage ID.
func (r *ReviewRepo) Create(ctx context.Context, review *model.Review) error {
	res, err := r.db.Writer.ExecContext(ctx, insertReviewQuery,
		review.PublicID, review.PublicationID, review.AuthorID, review.Summary,
		string(review.Status), review.Origin, review.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert review %s: %w", review.PublicID, err)
	}

	review.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("review insert id: %w", err)
	}

	return nil
}

// GetByID returns the review with the given storage ID, or nil.
func (r *ReviewRepo) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByPublicID returns the review with the given public UUID, or nil.
func (r *ReviewRepo) GetByPublicID(ctx context.Context, publicID string) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE public_id = ?`
	return r.getOne(ctx, query, publicID)
}

// ListByPublication returns a publication's reviews in insertion order.
func (r *ReviewRepo) ListByPublication(ctx context.Context, publicationID int64) ([]model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE publication_id = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("query reviews for publication %d: %w", publicationID, err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, nil
}

// UpdateStatus moves a review to a new lifecycle status.
func (r *ReviewRepo) UpdateStatus(ctx context.Context, id int64, status model.ReviewStatus) error {
	res, err := r.db.Writer.ExecContext(ctx,
		`UPDATE reviews SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update review %d status: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review status rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("review %d not found", id)
	}

	return nil
}

// CreateComment inserts a comment and assigns its storage ID.
func (r *ReviewRepo) CreateComment(ctx context.Context, comment *model.Comment) error {
	res, err := r.db.Writer.ExecContext(ctx, insertCommentQuery, commentArgs(comment)...)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("comment insert id: %w", err)
	}

	return nil
}

// GetComment returns a single comment by storage ID, or nil.
func (r *ReviewRepo) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	const query = `
		SELECT id, review_id, author_id, thread_id, reply_to, filename,
			anchor_start, anchor_end, body, posted_at, created_at
		FROM comments
		WHERE id = ?
	`

	comment, err := scanComment(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query comment %d: %w", id, err)
	}

	return comment, nil
}

// ListComments returns a review's comments in insertion order.
func (r *ReviewRepo) ListComments(ctx context.Context, reviewID int64) ([]model.Comment, error) {
	const query = `
		SELECT id, review_id, author_id, thread_id, reply_to, filename,
			anchor_start, anchor_end, body, posted_at, created_at
		FROM comments
		WHERE review_id = ?
		ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query comments for review %d: %w", reviewID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// ImportTx runs fn inside a single storage transaction on the writer
// connection. The transaction is rolled back unless fn returns nil; rollback
// after a successful commit is a no-op, so the session is released on every
// exit path.
func (r *ReviewRepo) ImportTx(ctx context.Context, fn func(tx driven.ImportTx) error) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&importTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}

	return nil
}

// importTx is the write surface handed to a review-import transaction body.
type importTx struct {
	tx *sql.Tx
}

func (t *importTx) CreateUser(ctx context.Context, user *model.User) error {
	return insertUserTx(ctx, t.tx, user)
}

func (t *importTx) CreateReview(ctx context.Context, review *model.Review) error {
	res, err := t.tx.ExecContext(ctx, insertReviewQuery,
		review.PublicID, review.PublicationID, review.AuthorID, review.Summary,
		string(review.Status), review.Origin, review.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert review %s: %w", review.PublicID, err)
	}

	review.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("review insert id: %w", err)
	}

	return nil
}

func (t *importTx) CreateComment(ctx context.Context, comment *model.Comment) error {
	res, err := t.tx.ExecContext(ctx, insertCommentQuery, commentArgs(comment)...)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("comment insert id: %w", err)
	}

	return nil
}

func commentArgs(comment *model.Comment) []any {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	var replyTo any
	if comment.ReplyTo != nil {
		replyTo = *comment.ReplyTo
	}

	var anchorStart, anchorEnd any
	if comment.AnchorStart != nil {
		anchorStart = *comment.AnchorStart
	}
	if comment.AnchorEnd != nil {
		anchorEnd = *comment.AnchorEnd
	}

	return []any{
		comment.ReviewID, comment.AuthorID, comment.ThreadID, replyTo,
		comment.Filename, anchorStart, anchorEnd, comment.Body,
		comment.PostedAt.UTC(), comment.CreatedAt.UTC(),
	}
}

func (r *ReviewRepo) getOne(ctx context.Context, query string, args ...any) (*model.Review, error) {
	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query review: %w", err)
	}
	return review, nil
}

func scanReview(s scanner) (*model.Review, error) {
	var review model.Review
	var status string
	var createdAt string

	err := s.Scan(
		&review.ID, &review.PublicID, &review.PublicationID, &review.AuthorID,
		&review.Summary, &status, &review.Origin, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	review.Status = model.ReviewStatus(status)

	review.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &review, nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var comment model.Comment
	var replyTo, anchorStart, anchorEnd sql.NullInt64
	var postedAt, createdAt string

	err := s.Scan(
		&comment.ID, &comment.ReviewID, &comment.AuthorID, &comment.ThreadID,
		&replyTo, &comment.Filename, &anchorStart, &anchorEnd, &comment.Body,
		&postedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if replyTo.Valid {
		id := replyTo.Int64
		comment.ReplyTo = &id
	}
	if anchorStart.Valid {
		v := int(anchorStart.Int64)
		comment.AnchorStart = &v
	}
	if anchorEnd.Valid {
		v := int(anchorEnd.Int64)
		comment.AnchorEnd = &v
	}

	comment.PostedAt, err = parseTime(postedAt)
	if err != nil {
		return nil, fmt.Errorf("parse posted_at: %w", err)
	}

	comment.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &comment, nil
}
