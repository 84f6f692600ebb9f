package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SupergroupStore = (*SupergroupRepo)(nil)

// SupergroupRepo is the SQLite implementation of the SupergroupStore port
// interface.
type SupergroupRepo struct {
	db *DB
}

// NewSupergroupRepo creates a new SupergroupRepo backed by the given DB.
func NewSupergroupRepo(db *DB) *SupergroupRepo {
	return &SupergroupRepo{db: db}
}

const supergroupColumns = `id, name, tag, base_url, token, created_at`

// Add registers a federation peer and assigns its storage ID.
func (r *SupergroupRepo) Add(ctx context.Context, peer *model.Supergroup) error {
	const query = `
		INSERT INTO supergroups (name, tag, base_url, token, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		peer.Name, peer.Tag, peer.BaseURL, peer.Token, peer.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert supergroup %s: %w", peer.Tag, err)
	}

	peer.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("supergroup insert id: %w", err)
	}

	return nil
}

// Remove deletes a federation peer registration. Removing an id that is
// already gone is a no-op.
func (r *SupergroupRepo) Remove(ctx context.Context, id int64) error {
	const query = `DELETE FROM supergroups WHERE id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete supergroup %d: %w", id, err)
	}

	return nil
}

// ListAll returns every registered peer in registration order.
func (r *SupergroupRepo) ListAll(ctx context.Context) ([]model.Supergroup, error) {
	query := `SELECT ` + supergroupColumns + ` FROM supergroups ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query supergroups: %w", err)
	}
	defer rows.Close()

	var peers []model.Supergroup
	for rows.Next() {
		peer, err := scanSupergroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supergroup: %w", err)
		}
		peers = append(peers, *peer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supergroups: %w", err)
	}

	return peers, nil
}

// GetByTag returns the peer with the given service tag, or nil.
func (r *SupergroupRepo) GetByTag(ctx context.Context, tag string) (*model.Supergroup, error) {
	query := `SELECT ` + supergroupColumns + ` FROM supergroups WHERE tag = ?`
	return r.getOne(ctx, query, tag)
}

// GetByToken resolves the peer presenting the given bearer token, or nil.
func (r *SupergroupRepo) GetByToken(ctx context.Context, token string) (*model.Supergroup, error) {
	query := `SELECT ` + supergroupColumns + ` FROM supergroups WHERE token = ?`
	return r.getOne(ctx, query, token)
}

func (r *SupergroupRepo) getOne(ctx context.Context, query string, args ...any) (*model.Supergroup, error) {
	peer, err := scanSupergroup(r.db.Reader.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query supergroup: %w", err)
	}
	return peer, nil
}

func scanSupergroup(s scanner) (*model.Supergroup, error) {
	var peer model.Supergroup
	var createdAt string

	err := s.Scan(&peer.ID, &peer.Name, &peer.Tag, &peer.BaseURL, &peer.Token, &createdAt)
	if err != nil {
		return nil, err
	}

	peer.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &peer, nil
}
