package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// PublicationPage is one page of the public publication listing.
type PublicationPage struct {
	Publications []model.Publication
	Total        int
	Page         int
	PerPage      int
}

// PublicationService manages publications and their revision history.
type PublicationService struct {
	publications driven.PublicationStore
	logger       *slog.Logger
}

func NewPublicationService(publications driven.PublicationStore, logger *slog.Logger) *PublicationService {
	return &PublicationService{publications: publications, logger: logger}
}

// Create stores a new draft publication with its first revision.
func (s *PublicationService) Create(ctx context.Context, ownerID int64, title, abstract, content string) (*model.Publication, error) {
	now := time.Now().UTC()
	pub := &model.Publication{
		PublicID:  uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Abstract:  abstract,
		Content:   content,
		Status:    model.PublicationStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.publications.Create(ctx, pub); err != nil {
		return nil, fmt.Errorf("creating publication: %w", err)
	}
	rev := &model.Revision{
		PublicationID: pub.ID,
		Seq:           1,
		Title:         title,
		Abstract:      abstract,
		Content:       content,
		CreatedAt:     now,
	}
	if err := s.publications.AddRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("storing initial revision: %w", err)
	}
	s.logger.Info("publication created",
		slog.String("publication", pub.PublicID),
		slog.Int64("owner", ownerID))
	return pub, nil
}

// Get returns an active publication by its public id.
func (s *PublicationService) Get(ctx context.Context, publicID string) (*model.Publication, error) {
	pub, err := s.publications.GetActiveByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("looking up publication: %w", err)
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}
	return pub, nil
}

// List returns one page of active publications, newest first.
func (s *PublicationService) List(ctx context.Context, page, perPage int) (*PublicationPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	pubs, total, err := s.publications.ListActive(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	return &PublicationPage{Publications: pubs, Total: total, Page: page, PerPage: perPage}, nil
}

// ListByOwner returns every active publication owned by a user.
func (s *PublicationService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Publication, error) {
	return s.publications.ListActiveByOwner(ctx, ownerID)
}

// Revise appends a revision and mirrors it onto the publication row.
func (s *PublicationService) Revise(ctx context.Context, publicID, title, abstract, content string) (*model.Publication, error) {
	pub, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	revs, err := s.publications.ListRevisions(ctx, pub.ID)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	now := time.Now().UTC()
	rev := &model.Revision{
		PublicationID: pub.ID,
		Seq:           len(revs) + 1,
		Title:         title,
		Abstract:      abstract,
		Content:       content,
		CreatedAt:     now,
	}
	if err := s.publications.AddRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("storing revision %d: %w", rev.Seq, err)
	}

	pub.Title = title
	pub.Abstract = abstract
	pub.Content = content
	pub.UpdatedAt = now
	if err := s.publications.Update(ctx, pub); err != nil {
		return nil, fmt.Errorf("updating publication: %w", err)
	}
	return pub, nil
}

// SetStatus moves a publication through its lifecycle.
func (s *PublicationService) SetStatus(ctx context.Context, publicID string, status model.PublicationStatus) (*model.Publication, error) {
	pub, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	pub.Status = status
	pub.UpdatedAt = time.Now().UTC()
	if err := s.publications.Update(ctx, pub); err != nil {
		return nil, fmt.Errorf("updating publication status: %w", err)
	}
	s.logger.Info("publication status changed",
		slog.String("publication", pub.PublicID),
		slog.String("status", string(status)))
	return pub, nil
}

// Delete soft-deletes a publication; reads stop returning it immediately.
func (s *PublicationService) Delete(ctx context.Context, publicID string) error {
	pub, err := s.Get(ctx, publicID)
	if err != nil {
		return err
	}
	if err := s.publications.SoftDelete(ctx, pub.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("deleting publication: %w", err)
	}
	s.logger.Info("publication deleted", slog.String("publication", pub.PublicID))
	return nil
}

// Revisions returns a publication's revision history, oldest first.
func (s *PublicationService) Revisions(ctx context.Context, publicID string) ([]model.Revision, error) {
	pub, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	revs, err := s.publications.ListRevisions(ctx, pub.ID)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}
	return revs, nil
}
