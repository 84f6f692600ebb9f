package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// CommentThread is one reply thread within a review: its root comment plus
// the replies in posting order.
type CommentThread struct {
	Root    model.Comment
	Replies []model.Comment
}

// ReviewDetail is a review together with its threaded comments.
type ReviewDetail struct {
	Review  model.Review
	Author  *model.User
	Threads []CommentThread
}

// ReviewService manages locally authored reviews and their comments.
type ReviewService struct {
	reviews      driven.ReviewStore
	publications driven.PublicationStore
	users        driven.UserStore
	logger       *slog.Logger
}

func NewReviewService(reviews driven.ReviewStore, publications driven.PublicationStore, users driven.UserStore, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, publications: publications, users: users, logger: logger}
}

// Create starts a local review of a publication.
func (s *ReviewService) Create(ctx context.Context, publicationPublicID string, authorID int64, summary string) (*model.Review, error) {
	pub, err := s.publications.GetActiveByPublicID(ctx, publicationPublicID)
	if err != nil {
		return nil, fmt.Errorf("looking up publication: %w", err)
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}

	review := &model.Review{
		PublicID:      uuid.NewString(),
		PublicationID: pub.ID,
		AuthorID:      authorID,
		Summary:       htmlSanitizer.Sanitize(summary),
		Status:        model.ReviewStatusPending,
		Origin:        model.OriginLocal,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}
	s.logger.Info("review created",
		slog.String("review", review.PublicID),
		slog.String("publication", pub.PublicID))
	return review, nil
}

// Complete marks a pending review as finished.
func (s *ReviewService) Complete(ctx context.Context, reviewPublicID string) (*model.Review, error) {
	review, err := s.Get(ctx, reviewPublicID)
	if err != nil {
		return nil, err
	}
	review.Status = model.ReviewStatusCompleted
	if err := s.reviews.UpdateStatus(ctx, review.ID, review.Status); err != nil {
		return nil, fmt.Errorf("completing review: %w", err)
	}
	return review, nil
}

// Get returns a review by its public id.
func (s *ReviewService) Get(ctx context.Context, reviewPublicID string) (*model.Review, error) {
	review, err := s.reviews.GetByPublicID(ctx, reviewPublicID)
	if err != nil {
		return nil, fmt.Errorf("looking up review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

// Detail returns one review with its author and comments grouped into
// threads.
func (s *ReviewService) Detail(ctx context.Context, reviewPublicID string) (*ReviewDetail, error) {
	review, err := s.Get(ctx, reviewPublicID)
	if err != nil {
		return nil, err
	}
	comments, err := s.reviews.ListComments(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	author, err := s.users.GetActiveByID(ctx, review.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("looking up review author: %w", err)
	}
	return &ReviewDetail{
		Review:  *review,
		Author:  author,
		Threads: groupIntoThreads(comments),
	}, nil
}

// AddComment posts a comment on a review. A comment replying to another
// joins that comment's thread; a standalone comment starts a new one.
func (s *ReviewService) AddComment(ctx context.Context, reviewPublicID string, authorID int64, body, filename string, anchor *model.Anchor, replyTo *int64) (*model.Comment, error) {
	review, err := s.Get(ctx, reviewPublicID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &model.Comment{
		ReviewID:  review.ID,
		AuthorID:  authorID,
		ThreadID:  uuid.NewString(),
		Filename:  filename,
		Body:      htmlSanitizer.Sanitize(body),
		PostedAt:  now,
		CreatedAt: now,
	}
	if anchor != nil {
		start, end := anchor.Start, anchor.End
		comment.AnchorStart = &start
		comment.AnchorEnd = &end
	}
	if replyTo != nil {
		parent, err := s.reviews.GetComment(ctx, *replyTo)
		if err != nil {
			return nil, fmt.Errorf("looking up parent comment: %w", err)
		}
		if parent == nil || parent.ReviewID != review.ID {
			return nil, fmt.Errorf("%w: parent comment", ErrReviewNotFound)
		}
		comment.ReplyTo = replyTo
		comment.ThreadID = parent.ThreadID
	}

	if err := s.reviews.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	return comment, nil
}

// ListForPublication returns every review of a publication with comments
// grouped into threads.
func (s *ReviewService) ListForPublication(ctx context.Context, publicationPublicID string) ([]ReviewDetail, error) {
	pub, err := s.publications.GetActiveByPublicID(ctx, publicationPublicID)
	if err != nil {
		return nil, fmt.Errorf("looking up publication: %w", err)
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}

	reviews, err := s.reviews.ListByPublication(ctx, pub.ID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}

	details := make([]ReviewDetail, 0, len(reviews))
	for _, review := range reviews {
		comments, err := s.reviews.ListComments(ctx, review.ID)
		if err != nil {
			return nil, fmt.Errorf("listing comments for review %s: %w", review.PublicID, err)
		}
		author, err := s.users.GetActiveByID(ctx, review.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("looking up review author: %w", err)
		}
		details = append(details, ReviewDetail{
			Review:  review,
			Author:  author,
			Threads: groupIntoThreads(comments),
		})
	}
	return details, nil
}

// groupIntoThreads groups a review's comments by thread, root first and
// replies in posting order, threads ordered by their root's posting time.
func groupIntoThreads(comments []model.Comment) []CommentThread {
	if len(comments) == 0 {
		return nil
	}

	threadMap := make(map[string]*CommentThread)
	var order []string

	for _, c := range comments {
		if c.ReplyTo != nil {
			continue
		}
		if _, ok := threadMap[c.ThreadID]; !ok {
			threadMap[c.ThreadID] = &CommentThread{Root: c}
			order = append(order, c.ThreadID)
		}
	}

	for _, c := range comments {
		if c.ReplyTo == nil {
			continue
		}
		thread, ok := threadMap[c.ThreadID]
		if !ok {
			// Orphaned reply whose root was lost; promote it so it stays
			// visible.
			threadMap[c.ThreadID] = &CommentThread{Root: c}
			order = append(order, c.ThreadID)
			continue
		}
		thread.Replies = append(thread.Replies, c)
	}

	threads := make([]CommentThread, 0, len(order))
	for _, id := range order {
		thread := *threadMap[id]
		sort.SliceStable(thread.Replies, func(i, j int) bool {
			return thread.Replies[i].PostedAt.Before(thread.Replies[j].PostedAt)
		})
		threads = append(threads, thread)
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].Root.PostedAt.Before(threads[j].Root.PostedAt)
	})
	return threads
}
