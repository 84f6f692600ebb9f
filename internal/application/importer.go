package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Issue messages surfaced to the submitting peer. These strings are part of
// the federation contract and must stay stable.
const (
	issueNonUniqueID     = "Non-unique identifier"
	issueMissingRef      = "Non-existent id reference"
	issueSelfReply       = "Comment cannot reply to self"
	issueMalformedParent = "Comment is replying to malformed comment"
	issueNoArchiveEntry  = "Archive contains no such file entry"
	issueAuthorImport    = "Couldn't import author"

	msgNonUniqueIDs      = "Comments have non-unique ids"
	msgAllInvalid        = "All comments are invalid"
	msgAuthorImportError = "Couldn't import author"
	msgInternalFailure   = "Internal Failure"
)

// IssueLedger accumulates per-comment, per-field rejection messages keyed by
// the comment ids the submitting service supplied.
type IssueLedger map[int64]map[string][]string

func (l IssueLedger) add(id int64, field, message string) {
	fields, ok := l[id]
	if !ok {
		fields = make(map[string][]string)
		l[id] = fields
	}
	fields[field] = append(fields[field], message)
}

// ImportError is the structured rejection report for a bundle that could not
// be committed. Issues carries everything recorded up to the point of failure.
type ImportError struct {
	Message string
	Issues  IssueLedger
}

func (e *ImportError) Error() string {
	return e.Message
}

// ImportResult reports a committed import with storage identifiers assigned.
type ImportResult struct {
	Review   *model.Review
	Comments []*model.Comment
	Authors  map[model.AuthorKey]*model.User
}

type importerState int

const (
	importerNew importerState = iota
	importerValidated
	importerSaved
	importerFailed
)

// ReviewImporter converts one untrusted review bundle into persisted review
// and comment documents. An importer is owned by a single request and must
// not be reused after Save.
type ReviewImporter struct {
	bundle      *model.ReviewBundle
	archive     driven.Archive
	users       driven.UserImporter
	reviews     driven.ReviewStore
	publication *model.Publication
	origin      string
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger

	state    importerState
	byID     map[int64]model.BundleComment
	children map[int64][]int64
	valid    map[int64]struct{}
	issues   IssueLedger
	threads  [][]int64
	authors  map[model.AuthorKey]*model.User
	refs     map[model.AuthorKey]model.ExternalAuthorRef
	failed   map[model.AuthorKey]error
}

// validate checks every comment in the bundle against the archive and the
// bundle's own reply graph. Duplicate ids abort immediately; all other
// defects invalidate the offending comment and, transitively, its replies.
func (im *ReviewImporter) validate() error {
	if im.state != importerNew {
		panic(fmt.Sprintf("review importer: validate called in state %d", im.state))
	}

	im.byID = make(map[int64]model.BundleComment, len(im.bundle.Comments))
	im.children = make(map[int64][]int64)
	im.valid = make(map[int64]struct{}, len(im.bundle.Comments))
	im.issues = make(IssueLedger)

	seen := make(map[int64]int, len(im.bundle.Comments))
	for _, c := range im.bundle.Comments {
		seen[c.ID]++
	}
	duplicate := false
	for id, n := range seen {
		if n > 1 {
			im.issues.add(id, "id", issueNonUniqueID)
			duplicate = true
		}
	}
	if duplicate {
		im.state = importerFailed
		return &ImportError{Message: msgNonUniqueIDs, Issues: im.issues}
	}

	for _, c := range im.bundle.Comments {
		im.byID[c.ID] = c
		im.valid[c.ID] = struct{}{}
		if c.Replying != nil {
			im.children[*c.Replying] = append(im.children[*c.Replying], c.ID)
		}
	}

	var bad []int64
	for _, c := range im.bundle.Comments {
		if !im.checkComment(c) {
			bad = append(bad, c.ID)
		}
	}
	bad = append(bad, im.findCycles()...)
	im.invalidate(bad)

	if len(im.valid) == 0 {
		im.state = importerFailed
		return &ImportError{Message: msgAllInvalid, Issues: im.issues}
	}
	im.state = importerValidated
	return nil
}

// checkComment records issues for a single comment and reports whether it
// survived. Reply targets are checked against the full bundle here; chains
// through invalid comments are handled by the cascade in invalidate.
func (im *ReviewImporter) checkComment(c model.BundleComment) bool {
	ok := true
	if c.Replying != nil {
		switch {
		case *c.Replying == c.ID:
			im.issues.add(c.ID, "replying", issueSelfReply)
			ok = false
		default:
			if _, exists := im.byID[*c.Replying]; !exists {
				im.issues.add(c.ID, "replying", issueMissingRef)
				ok = false
			}
		}
	}
	if c.Filename != "" {
		if !im.archive.Has(c.Filename) {
			im.issues.add(c.ID, "filename", issueNoArchiveEntry)
			ok = false
		} else if c.Anchor != nil {
			lines, err := im.archive.LineCount(c.Filename)
			if err != nil {
				im.issues.add(c.ID, "filename", issueNoArchiveEntry)
				ok = false
			} else if c.Anchor.Start < 1 || c.Anchor.Start > lines ||
				c.Anchor.End < c.Anchor.Start || c.Anchor.End > lines+1 {
				im.issues.add(c.ID, "anchor",
					fmt.Sprintf("Anchor start must be within 1 and %d, end within start and %d", lines, lines+1))
				ok = false
			}
		}
	}
	return ok
}

// findCycles returns comments whose reply chain never reaches a root. A
// cycle of otherwise well-formed comments would otherwise survive validation
// and break thread construction.
func (im *ReviewImporter) findCycles() []int64 {
	const (
		unvisited = 0
		walking   = 1
		grounded  = 2
		looping   = 3
	)
	mark := make(map[int64]int, len(im.byID))
	var cyclic []int64
	for id := range im.byID {
		if mark[id] != unvisited {
			continue
		}
		var path []int64
		cur := id
		for {
			state := mark[cur]
			if state == grounded || state == looping {
				break
			}
			if state == walking {
				// Everything from cur onward in path is part of the cycle.
				inCycle := false
				for _, p := range path {
					if p == cur {
						inCycle = true
					}
					if inCycle {
						mark[p] = looping
					}
				}
				break
			}
			mark[cur] = walking
			path = append(path, cur)
			c, exists := im.byID[cur]
			if !exists || c.Replying == nil {
				break
			}
			cur = *c.Replying
		}
		terminal := grounded
		if mark[cur] == looping {
			terminal = looping
		}
		for _, p := range path {
			if mark[p] == walking {
				mark[p] = terminal
			}
		}
	}
	for id, state := range mark {
		if state == looping {
			if _, exists := im.byID[id]; exists {
				cyclic = append(cyclic, id)
			}
		}
	}
	for _, id := range cyclic {
		im.issues.add(id, "replying", issueMalformedParent)
	}
	return cyclic
}

// invalidate removes the given comments from the valid set and cascades the
// removal to every reply that transitively targets them, recording the parent
// defect on each cascaded comment exactly once.
func (im *ReviewImporter) invalidate(ids []int64) {
	queue := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := im.valid[id]; ok {
			delete(im.valid, id)
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range im.children[id] {
			if _, ok := im.valid[child]; !ok {
				continue
			}
			delete(im.valid, child)
			im.issues.add(child, "replying", issueMalformedParent)
			queue = append(queue, child)
		}
	}
}

// constructCommentThreads groups the valid comments into reply threads, each
// ordered root first with every parent ahead of its replies. Safe to call
// repeatedly; each call rebuilds from the current valid set.
func (im *ReviewImporter) constructCommentThreads() {
	if im.state != importerValidated {
		panic(fmt.Sprintf("review importer: thread construction in state %d", im.state))
	}
	im.threads = nil

	var roots []int64
	for id := range im.valid {
		c := im.byID[id]
		if c.Replying == nil {
			roots = append(roots, id)
			continue
		}
		if _, ok := im.valid[*c.Replying]; !ok {
			panic(fmt.Sprintf("review importer: valid comment %d replies to invalid comment %d", id, *c.Replying))
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	assigned := 0
	for _, root := range roots {
		thread := []int64{root}
		for cursor := 0; cursor < len(thread); cursor++ {
			replies := append([]int64(nil), im.children[thread[cursor]]...)
			sort.Slice(replies, func(i, j int) bool { return replies[i] < replies[j] })
			for _, reply := range replies {
				if _, ok := im.valid[reply]; ok {
					thread = append(thread, reply)
				}
			}
		}
		assigned += len(thread)
		im.threads = append(im.threads, thread)
	}
	if assigned != len(im.valid) {
		panic(fmt.Sprintf("review importer: %d valid comments but %d reached from thread roots", len(im.valid), assigned))
	}
}

// computeAuthors derives the distinct author references behind the review and
// the currently valid comments. Already-resolved authors are kept; the map is
// otherwise rebuilt so invalidated comments stop contributing keys.
func (im *ReviewImporter) computeAuthors() {
	prev := im.authors
	im.authors = make(map[model.AuthorKey]*model.User)
	im.refs = make(map[model.AuthorKey]model.ExternalAuthorRef)

	record := func(ref model.ExternalAuthorRef) {
		key := ref.Key()
		if _, ok := im.authors[key]; !ok {
			im.authors[key] = prev[key]
			im.refs[key] = ref
		}
	}
	record(im.bundle.Author)
	for id := range im.valid {
		record(im.byID[id].Author)
	}
}

// importAuthors resolves every pending author reference to a local user.
// A failed resolution invalidates that author's comments and their replies;
// a failure on the review author aborts the whole import.
func (im *ReviewImporter) importAuthors(ctx context.Context) error {
	if im.failed == nil {
		im.failed = make(map[model.AuthorKey]error)
	}

	keys := make([]model.AuthorKey, 0, len(im.authors))
	for key := range im.authors {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Service != keys[j].Service {
			return keys[i].Service < keys[j].Service
		}
		return keys[i].Ref < keys[j].Ref
	})

	var bad []int64
	for _, key := range keys {
		if im.authors[key] != nil {
			continue
		}
		if _, already := im.failed[key]; already {
			continue
		}
		user, err := im.users.Resolve(ctx, im.refs[key])
		if err != nil {
			im.failed[key] = err
			im.logger.Warn("author import failed",
				slog.String("service", key.Service),
				slog.String("ref", key.Ref),
				slog.String("error", err.Error()))
			for id := range im.valid {
				if im.byID[id].Author.Key() == key {
					im.issues.add(id, "author", issueAuthorImport)
					bad = append(bad, id)
				}
			}
			continue
		}
		im.authors[key] = user
	}

	if _, reviewAuthorFailed := im.failed[im.bundle.Author.Key()]; reviewAuthorFailed {
		im.state = importerFailed
		return &ImportError{Message: msgAuthorImportError, Issues: im.issues}
	}
	if len(bad) > 0 {
		im.invalidate(bad)
		if len(im.valid) == 0 {
			im.state = importerFailed
			return &ImportError{Message: msgAllInvalid, Issues: im.issues}
		}
		im.constructCommentThreads()
		im.computeAuthors()
	}
	return nil
}

// Save runs the full pipeline and commits the surviving documents in one
// transaction. Either the review, every surviving comment and every newly
// imported author land together, or nothing is persisted. Save is
// single-shot; the importer is spent afterwards regardless of outcome.
func (im *ReviewImporter) Save(ctx context.Context) (*ImportResult, error) {
	if im.state == importerSaved || im.state == importerFailed {
		panic("review importer: save called on a spent importer")
	}
	if err := im.validate(); err != nil {
		return nil, err
	}
	im.constructCommentThreads()
	im.computeAuthors()
	if err := im.importAuthors(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &ImportResult{Authors: im.authors}

	err := im.reviews.ImportTx(ctx, func(tx driven.ImportTx) error {
		for _, key := range sortedAuthorKeys(im.authors) {
			user := im.authors[key]
			if user.ID != 0 {
				continue
			}
			if err := tx.CreateUser(ctx, user); err != nil {
				return fmt.Errorf("persisting imported author %s@%s: %w", key.Ref, key.Service, err)
			}
		}

		review := &model.Review{
			PublicID:      uuid.NewString(),
			PublicationID: im.publication.ID,
			AuthorID:      im.authors[im.bundle.Author.Key()].ID,
			Summary:       im.sanitizer.Sanitize(im.bundle.Summary),
			Status:        model.ReviewStatusCompleted,
			Origin:        im.origin,
			CreatedAt:     now,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return fmt.Errorf("persisting review: %w", err)
		}
		result.Review = review

		for _, thread := range im.threads {
			if im.byID[thread[0]].Replying != nil {
				panic(fmt.Sprintf("review importer: thread rooted at replying comment %d", thread[0]))
			}
			threadID := uuid.NewString()
			committed := make(map[int64]int64, len(thread))
			for _, id := range thread {
				src := im.byID[id]
				comment := im.buildComment(src, review, threadID, committed, now)
				if err := tx.CreateComment(ctx, comment); err != nil {
					return fmt.Errorf("persisting comment %d: %w", id, err)
				}
				committed[id] = comment.ID
				result.Comments = append(result.Comments, comment)
			}
		}
		return nil
	})
	if err != nil {
		im.state = importerFailed
		im.logger.Error("review import transaction failed",
			slog.String("publication", im.publication.PublicID),
			slog.String("error", err.Error()))
		return nil, &ImportError{Message: msgInternalFailure, Issues: im.issues}
	}
	im.state = importerSaved
	return result, nil
}

// buildComment translates a bundle comment into a storage document, remapping
// the reply target from the bundle id to the already-committed storage id.
func (im *ReviewImporter) buildComment(src model.BundleComment, review *model.Review, threadID string, committed map[int64]int64, now time.Time) *model.Comment {
	comment := &model.Comment{
		ReviewID:  review.ID,
		AuthorID:  im.authors[src.Author.Key()].ID,
		ThreadID:  threadID,
		Filename:  src.Filename,
		Body:      im.sanitizer.Sanitize(src.Contents),
		PostedAt:  src.PostedAt,
		CreatedAt: now,
	}
	if src.Replying != nil {
		parent, ok := committed[*src.Replying]
		if !ok {
			panic(fmt.Sprintf("review importer: comment %d committed before its parent %d", src.ID, *src.Replying))
		}
		comment.ReplyTo = &parent
	}
	if src.Anchor != nil {
		start, end := src.Anchor.Start, src.Anchor.End
		comment.AnchorStart = &start
		comment.AnchorEnd = &end
	}
	return comment
}

func sortedAuthorKeys(authors map[model.AuthorKey]*model.User) []model.AuthorKey {
	keys := make([]model.AuthorKey, 0, len(authors))
	for key := range authors {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Service != keys[j].Service {
			return keys[i].Service < keys[j].Service
		}
		return keys[i].Ref < keys[j].Ref
	})
	return keys
}
