package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// ImportService accepts review bundles submitted by peer services and turns
// them into local review documents.
type ImportService struct {
	reviews      driven.ReviewStore
	publications driven.PublicationStore
	users        driven.UserImporter
	sanitizer    *bluemonday.Policy
	logger       *slog.Logger
}

func NewImportService(reviews driven.ReviewStore, publications driven.PublicationStore, users driven.UserImporter, logger *slog.Logger) *ImportService {
	return &ImportService{
		reviews:      reviews,
		publications: publications,
		users:        users,
		sanitizer:    bluemonday.UGCPolicy(),
		logger:       logger,
	}
}

// Import validates and commits one bundle against the named publication. The
// returned error is an *ImportError when the bundle was rejected, or
// ErrPublicationNotFound when the bundle targets an unknown publication.
func (s *ImportService) Import(ctx context.Context, bundle *model.ReviewBundle, archive driven.Archive, origin string) (*ImportResult, error) {
	pub, err := s.publications.GetActiveByPublicID(ctx, bundle.PublicationID)
	if err != nil {
		return nil, fmt.Errorf("looking up publication %s: %w", bundle.PublicationID, err)
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}

	importer := &ReviewImporter{
		bundle:      bundle,
		archive:     archive,
		users:       s.users,
		reviews:     s.reviews,
		publication: pub,
		origin:      origin,
		sanitizer:   s.sanitizer,
		logger:      s.logger,
	}
	result, err := importer.Save(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("review imported",
		slog.String("publication", pub.PublicID),
		slog.String("review", result.Review.PublicID),
		slog.String("origin", origin),
		slog.Int("comments", len(result.Comments)))
	return result, nil
}
