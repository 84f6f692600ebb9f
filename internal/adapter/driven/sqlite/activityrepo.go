package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActivityStore = (*ActivityRepo)(nil)

// ActivityRepo is the SQLite implementation of the ActivityStore port
// interface.
type ActivityRepo struct {
	db *DB
}

// NewActivityRepo creates a new ActivityRepo backed by the given DB.
func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Create persists a not-live activity record and assigns its ID.
func (r *ActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	const query = `
		INSERT INTO activities (type, kind, owner_id, document_ref, metadata, is_live, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`

	metadata := []byte("{}")
	if activity.Metadata != nil {
		var err error
		metadata, err = json.Marshal(activity.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		activity.Type, activity.Kind, activity.OwnerID, activity.DocumentRef,
		string(metadata), activity.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	activity.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("activity insert id: %w", err)
	}

	return nil
}

// SetLive promotes a previously created record to live.
func (r *ActivityRepo) SetLive(ctx context.Context, id int64) error {
	const query = `UPDATE activities SET is_live = 1 WHERE id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("set activity %d live: %w", id, err)
	}

	return nil
}

// Delete removes a record that should never become visible.
func (r *ActivityRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM activities WHERE id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete activity %d: %w", id, err)
	}

	return nil
}

// ListLiveByOwner returns a user's live activities newest first.
func (r *ActivityRepo) ListLiveByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Activity, error) {
	const query = `
		SELECT id, type, kind, owner_id, document_ref, metadata, is_live, created_at
		FROM activities
		WHERE owner_id = ? AND is_live = 1
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query activities for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var activity model.Activity
		var metadata string
		var isLive int
		var createdAt string

		err := rows.Scan(&activity.ID, &activity.Type, &activity.Kind,
			&activity.OwnerID, &activity.DocumentRef, &metadata, &isLive, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}

		activity.IsLive = isLive != 0

		if err := json.Unmarshal([]byte(metadata), &activity.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal activity metadata: %w", err)
		}

		activity.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}
