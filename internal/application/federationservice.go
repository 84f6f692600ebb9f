package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// FederationService builds the outbound federation surface: exporting local
// reviews in the bundle form sister services import.
type FederationService struct {
	reviews      driven.ReviewStore
	publications driven.PublicationStore
	users        driven.UserStore
	serviceTag   string
	logger       *slog.Logger
}

func NewFederationService(reviews driven.ReviewStore, publications driven.PublicationStore, users driven.UserStore, serviceTag string, logger *slog.Logger) *FederationService {
	return &FederationService{
		reviews:      reviews,
		publications: publications,
		users:        users,
		serviceTag:   serviceTag,
		logger:       logger,
	}
}

// ExportReview renders a local review as a portable bundle. Comment ids in
// the bundle are this service's storage ids, which keeps reply references
// stable without a remapping table; importers assign their own ids anyway.
func (s *FederationService) ExportReview(ctx context.Context, reviewPublicID string) (*model.ReviewBundle, error) {
	review, err := s.reviews.GetByPublicID(ctx, reviewPublicID)
	if err != nil {
		return nil, fmt.Errorf("looking up review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	pub, err := s.publications.GetActiveByID(ctx, review.PublicationID)
	if err != nil {
		return nil, fmt.Errorf("looking up publication: %w", err)
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}

	comments, err := s.reviews.ListComments(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	refs := make(map[int64]model.ExternalAuthorRef)
	authorRef := func(id int64) (model.ExternalAuthorRef, error) {
		if ref, ok := refs[id]; ok {
			return ref, nil
		}
		user, err := s.users.GetActiveByID(ctx, id)
		if err != nil {
			return model.ExternalAuthorRef{}, fmt.Errorf("looking up author %d: %w", id, err)
		}
		if user == nil {
			return model.ExternalAuthorRef{}, fmt.Errorf("author %d: %w", id, ErrUserNotFound)
		}
		ref := s.refForUser(user)
		refs[id] = ref
		return ref, nil
	}

	reviewAuthor, err := authorRef(review.AuthorID)
	if err != nil {
		return nil, err
	}

	bundle := &model.ReviewBundle{
		PublicationID: pub.PublicID,
		Summary:       review.Summary,
		Author:        reviewAuthor,
	}
	for _, c := range comments {
		author, err := authorRef(c.AuthorID)
		if err != nil {
			return nil, err
		}
		bc := model.BundleComment{
			ID:       c.ID,
			Replying: c.ReplyTo,
			Filename: c.Filename,
			Contents: c.Body,
			Author:   author,
			PostedAt: c.PostedAt,
		}
		if c.AnchorStart != nil && c.AnchorEnd != nil {
			bc.Anchor = &model.Anchor{Start: *c.AnchorStart, End: *c.AnchorEnd}
		}
		bundle.Comments = append(bundle.Comments, bc)
	}

	s.logger.Debug("review exported",
		slog.String("review", review.PublicID),
		slog.Int("comments", len(bundle.Comments)))
	return bundle, nil
}

// LocalProfile serves a peer's user fetch: it resolves one of our public
// user ids to the profile form peers consume.
func (s *FederationService) LocalProfile(ctx context.Context, ref string) (*driven.PeerUser, error) {
	user, err := s.users.GetActiveByPublicID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", ref, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &driven.PeerUser{
		Ref:         user.PublicID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
	}, nil
}

// refForUser describes a local or previously imported user in federation
// terms. Imported users keep their original identity so a re-export does not
// mint a second one.
func (s *FederationService) refForUser(user *model.User) model.ExternalAuthorRef {
	if user.IsImported() {
		return model.ExternalAuthorRef{
			Ref:         user.ExternalRef,
			Service:     user.Origin,
			Handle:      user.Handle,
			DisplayName: user.DisplayName,
		}
	}
	return model.ExternalAuthorRef{
		Ref:         user.PublicID,
		Service:     s.serviceTag,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
	}
}
