// Package workflow owns the segment state machine: translation through the
// translation memory or an external translator, AI review, human review
// completion, finalization and the issue operations that move a segment.
//
// Each segment has one lock, held only while its status is checked and
// claimed and again while the result is committed. External calls run with
// no lock held; the commit is conditional on the claimed status, so a
// concurrent change surfaces as a conflict instead of being overwritten.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jjjmaes/AIT-sub001/internal/access"
	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/issues"
	"github.com/Jjjmaes/AIT-sub001/internal/keylock"
	"github.com/Jjjmaes/AIT-sub001/internal/memory"
	"github.com/Jjjmaes/AIT-sub001/internal/reviewer"
	"github.com/Jjjmaes/AIT-sub001/internal/translator"
)

type Store interface {
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	GetFile(ctx context.Context, id int64) (*domain.File, error)
	GetSegment(ctx context.Context, id int64) (*domain.Segment, error)
	Neighbours(ctx context.Context, fileID int64, index, n int) ([]*domain.Segment, error)
	ClaimSegment(ctx context.Context, id int64, from []domain.SegmentStatus, to domain.SegmentStatus, extra map[string]any) (bool, error)
	SaveSegment(ctx context.Context, seg *domain.Segment, expect domain.SegmentStatus) error
	Terms(ctx context.Context, projectID int64) ([]domain.Term, error)
	SaveToMemory(ctx context.Context, projectID int64, sourceText, sourceLang, targetLang, targetText, origin string) error
	MemberRole(ctx context.Context, projectID, userID int64) (domain.Role, error)
	SegmentsWithOpenIssues(ctx context.Context, fileID int64, in []domain.SegmentStatus, f domain.IssueFilter) ([]int64, error)
	ResolveOpenIssues(ctx context.Context, segmentID int64, in []domain.SegmentStatus, f domain.IssueFilter, r domain.Resolution) (int64, error)
}

type Matcher interface {
	FindMatches(ctx context.Context, sourceText, sourceLang, targetLang string, projectID int64) ([]memory.Match, error)
}

// Progress recomputes file and project aggregates.
type Progress interface {
	Refresh(ctx context.Context, fileID int64) error
	Schedule(ctx context.Context, fileID int64)
}

// ReviewPolicy decides whether a fresh set of AI findings needs a human
// before the review can be completed.
type ReviewPolicy func(issues []domain.Issue) bool

// SeverityPolicy asks for manual review when any finding is at least as
// severe as min.
func SeverityPolicy(min domain.Severity) ReviewPolicy {
	return func(issues []domain.Issue) bool {
		for _, is := range issues {
			if is.Severity.Rank() >= min.Rank() {
				return true
			}
		}
		return false
	}
}

type Config struct {
	// ContextWindow is how many neighbouring segments on each side are sent
	// along with translation and review requests.
	ContextWindow int
	// ReviewTemplate is used when a review request names none.
	ReviewTemplate string
	ReviewPolicy   ReviewPolicy
}

type Deps struct {
	Store      Store
	Matcher    Matcher
	Translator translator.Translator
	// Reviewer may be nil when no review capability is configured.
	Reviewer reviewer.Reviewer
	Progress Progress
	// Locks is shared with every other component that writes segments.
	Locks  *keylock.Map[int64]
	Logger *slog.Logger
}

type Engine struct {
	store      Store
	matcher    Matcher
	translator translator.Translator
	reviewer   reviewer.Reviewer
	progress   Progress
	access     *access.Checker
	tracker    *issues.Tracker
	locks      *keylock.Map[int64]
	log        *slog.Logger
	cfg        Config
}

func New(d Deps, cfg Config) *Engine {
	locks := d.Locks
	if locks == nil {
		locks = &keylock.Map[int64]{}
	}
	log := d.Logger
	if log == nil {
		log = diag.Discard()
	}
	log = log.With("component", "workflow")
	return &Engine{
		store:      d.Store,
		matcher:    d.Matcher,
		translator: d.Translator,
		reviewer:   d.Reviewer,
		progress:   d.Progress,
		access:     access.NewChecker(d.Store),
		tracker:    issues.NewTracker(d.Store, locks, log),
		locks:      locks,
		log:        log,
		cfg:        cfg,
	}
}

// load returns the segment and its project.
func (e *Engine) load(ctx context.Context, segmentID int64) (*domain.Segment, *domain.Project, error) {
	seg, err := e.store.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, nil, err
	}
	p, err := e.store.GetProject(ctx, seg.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return seg, p, nil
}

// claim checks op, and check when given, against the stored segment under
// its lock and moves the segment into the op's in-flight status. It returns
// the segment as it was read under the lock.
func (e *Engine) claim(ctx context.Context, op Op, segmentID int64, extra map[string]any, check func(*domain.Segment) error) (*domain.Segment, error) {
	unlock := e.locks.Lock(segmentID)
	defer unlock()

	seg, err := e.store.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := guard(op, seg.Status); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(seg); err != nil {
			return nil, err
		}
	}
	t := transitions[op]
	ok, err := e.store.ClaimSegment(ctx, segmentID, t.from, t.claim, extra)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another writer got in between the read and the claim.
		return nil, &domain.PreconditionError{Op: string(op), Current: seg.Status, Reason: "segment changed concurrently"}
	}
	return seg, nil
}

// commit writes seg if the stored status is still expect. It runs detached
// from ctx: a caller that gives up must not leave the segment stuck in its
// in-flight status.
func (e *Engine) commit(ctx context.Context, seg *domain.Segment, expect domain.SegmentStatus) error {
	ctx = context.WithoutCancel(ctx)
	unlock := e.locks.Lock(seg.ID)
	defer unlock()
	if err := e.store.SaveSegment(ctx, seg, expect); err != nil {
		return fmt.Errorf("save segment %d: %w", seg.ID, err)
	}
	return nil
}

// mutate runs fn on a fresh copy of the segment under its lock and saves the
// result. fn sees the stored status and must check it.
func (e *Engine) mutate(ctx context.Context, segmentID int64, fn func(seg *domain.Segment) error) (*domain.Segment, error) {
	unlock := e.locks.Lock(segmentID)
	defer unlock()

	seg, err := e.store.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	expect := seg.Status
	if err := fn(seg); err != nil {
		return nil, err
	}
	if err := e.store.SaveSegment(ctx, seg, expect); err != nil {
		return nil, fmt.Errorf("save segment %d: %w", seg.ID, err)
	}
	return seg, nil
}

// refresh recomputes progress after a status change. Failures are logged:
// the segment change has been committed and the next refresh repairs the
// aggregate.
func (e *Engine) refresh(ctx context.Context, fileID int64) {
	if e.progress == nil {
		return
	}
	if err := e.progress.Refresh(context.WithoutCancel(ctx), fileID); err != nil {
		e.log.Warn("progress refresh failed", "file_id", fileID, diag.Err(err))
	}
}

// contextFor gathers what translation and review requests carry besides the
// text itself: neighbouring sources and the project terminology.
func (e *Engine) contextFor(ctx context.Context, seg *domain.Segment) ([]string, []domain.Term) {
	var neighbours []string
	if segs, err := e.store.Neighbours(ctx, seg.FileID, seg.Index, e.cfg.ContextWindow); err != nil {
		e.log.Warn("context window lookup failed", "segment_id", seg.ID, diag.Err(err))
	} else {
		for _, n := range segs {
			neighbours = append(neighbours, n.SourceText)
		}
	}
	terms, err := e.store.Terms(ctx, seg.ProjectID)
	if err != nil {
		e.log.Warn("terminology lookup failed", "project_id", seg.ProjectID, diag.Err(err))
	}
	return neighbours, terms
}

// providerError records a capability failure as a ProviderError.
func providerError(name string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.ProviderError{Provider: name, Err: err}
}
