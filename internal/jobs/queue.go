// Package jobs is the asynchronous entry point for file and project
// translation. A submitted job fans out one translation per segment over a
// bounded, rate-limited worker pool and records the outcome of each segment.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Jjjmaes/AIT-sub001/internal/access"
	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/workflow"
)

const (
	TypeFile    = "translate_file"
	TypeProject = "translate_project"
)

// Item outcomes.
const (
	ItemDone    = "done"
	ItemFailed  = "failed"
	ItemSkipped = "skipped"
)

type Store interface {
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	GetFile(ctx context.Context, id int64) (*domain.File, error)
	ListFiles(ctx context.Context, projectID int64) ([]*domain.File, error)
	ListSegments(ctx context.Context, fileID int64) ([]*domain.Segment, error)
	MemberRole(ctx context.Context, projectID, userID int64) (domain.Role, error)
	CreateJob(ctx context.Context, j *domain.Job) error
	UpdateJob(ctx context.Context, j *domain.Job) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	AddJobItem(ctx context.Context, it *domain.JobItem) error
	ListJobItems(ctx context.Context, jobID string) ([]domain.JobItem, error)
}

// Translator translates one segment on behalf of an actor.
type Translator interface {
	TranslateSegment(ctx context.Context, segmentID, actorID int64) (*domain.Segment, error)
}

type Options struct {
	// Concurrency bounds in-flight translations per job.
	Concurrency int
	// Rate is the number of dispatches per second across all jobs; 0
	// disables limiting.
	Rate  float64
	Burst int
	// SegmentTimeout bounds one segment translation.
	SegmentTimeout time.Duration
}

type run struct {
	mu     sync.Mutex
	job    *domain.Job
	cancel context.CancelFunc
	done   chan struct{}
}

type Queue struct {
	store      Store
	translator Translator
	access     *access.Checker
	limiter    *rate.Limiter
	log        *slog.Logger
	opts       Options

	mu   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

func NewQueue(s Store, t Translator, log *slog.Logger, opts Options) *Queue {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &Queue{
		store:      s,
		translator: t,
		access:     access.NewChecker(s),
		limiter:    rate.NewLimiter(limit, opts.Burst),
		log:        log.With("component", "jobs"),
		opts:       opts,
		runs:       make(map[string]*run),
	}
}

// SubmitFile queues translation of every translatable segment of a file and
// returns the job handle.
func (q *Queue) SubmitFile(ctx context.Context, fileID, actorID int64) (string, error) {
	f, err := q.store.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	p, err := q.store.GetProject(ctx, f.ProjectID)
	if err != nil {
		return "", err
	}
	if err := q.access.Require(ctx, p, actorID, domain.RoleTranslator); err != nil {
		return "", err
	}
	job := &domain.Job{Type: TypeFile, ProjectID: p.ID, FileID: &f.ID, ActorID: actorID}
	return q.submit(ctx, job, []int64{f.ID})
}

// SubmitProject queues translation of every file of a project in one job.
func (q *Queue) SubmitProject(ctx context.Context, projectID, actorID int64) (string, error) {
	p, err := q.store.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	if err := q.access.Require(ctx, p, actorID, domain.RoleTranslator); err != nil {
		return "", err
	}
	files, err := q.store.ListFiles(ctx, projectID)
	if err != nil {
		return "", err
	}
	ids := make([]int64, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	job := &domain.Job{Type: TypeProject, ProjectID: p.ID, ActorID: actorID}
	return q.submit(ctx, job, ids)
}

func (q *Queue) submit(ctx context.Context, job *domain.Job, fileIDs []int64) (string, error) {
	job.ID = uuid.New().String()
	job.Status = domain.JobQueued
	if err := q.store.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	// The job outlives the request that submitted it; Cancel stops it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{job: job, cancel: cancel, done: make(chan struct{})}
	q.mu.Lock()
	q.runs[job.ID] = r
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(r.done)
		defer cancel()
		q.execute(runCtx, r, fileIDs)
		q.mu.Lock()
		delete(q.runs, job.ID)
		q.mu.Unlock()
	}()

	q.log.Info("job submitted", "job_id", job.ID, "type", job.Type, "project_id", job.ProjectID, "files", len(fileIDs))
	return job.ID, nil
}

// Status returns the job with its current progress.
func (q *Queue) Status(ctx context.Context, id string) (*domain.Job, error) {
	q.mu.Lock()
	r, ok := q.runs[id]
	q.mu.Unlock()
	if ok {
		r.mu.Lock()
		defer r.mu.Unlock()
		j := *r.job
		return &j, nil
	}
	return q.store.GetJob(ctx, id)
}

// Items returns the per-segment outcomes recorded so far.
func (q *Queue) Items(ctx context.Context, id string) ([]domain.JobItem, error) {
	if _, err := q.Status(ctx, id); err != nil {
		return nil, err
	}
	return q.store.ListJobItems(ctx, id)
}

// Cancel stops dispatching new segments of a running job. Segments already
// in flight finish and are recorded. Cancelling a finished job is a no-op.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	q.mu.Lock()
	r, ok := q.runs[id]
	q.mu.Unlock()
	if !ok {
		_, err := q.store.GetJob(ctx, id)
		return err
	}
	r.cancel()
	q.log.Info("job cancel requested", "job_id", id)
	return nil
}

// Wait blocks until the job has finished or ctx is done.
func (q *Queue) Wait(ctx context.Context, id string) (*domain.Job, error) {
	q.mu.Lock()
	r, ok := q.runs[id]
	q.mu.Unlock()
	if ok {
		select {
		case <-r.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return q.store.GetJob(ctx, id)
}

// Close cancels every running job and waits for them to wind down.
func (q *Queue) Close() {
	q.mu.Lock()
	for _, r := range q.runs {
		r.cancel()
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) execute(ctx context.Context, r *run, fileIDs []int64) {
	log := q.log.With("job_id", r.job.ID)
	q.update(r, func(j *domain.Job) { j.Status = domain.JobRunning })

	var pending []int64
	for _, fid := range fileIDs {
		segs, err := q.store.ListSegments(ctx, fid)
		if err != nil {
			log.Error("list segments failed", "file_id", fid, diag.Err(err))
			q.update(r, func(j *domain.Job) {
				j.Status = domain.JobFailed
				j.Error = fmt.Sprintf("list segments of file %d: %v", fid, err)
			})
			return
		}
		skipped := 0
		for _, seg := range segs {
			if workflow.Allowed(workflow.OpTranslate, seg.Status) {
				pending = append(pending, seg.ID)
			} else {
				skipped++
			}
		}
		if skipped > 0 {
			log.Warn("skipping segments that are not translatable", "file_id", fid, "count", skipped)
		}
		q.update(r, func(j *domain.Job) {
			j.Progress.Total += len(segs)
			j.Progress.Skipped += skipped
		})
	}

	g := new(errgroup.Group)
	g.SetLimit(q.opts.Concurrency)
	canceled := false
	for _, id := range pending {
		if err := q.limiter.Wait(ctx); err != nil {
			canceled = true
			break
		}
		g.Go(func() error {
			// Go may have blocked on the limit past a cancel.
			if ctx.Err() != nil {
				return nil
			}
			q.translateOne(ctx, r, id)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		canceled = true
	}

	q.update(r, func(j *domain.Job) {
		attempted := j.Progress.Done + j.Progress.Failed
		switch {
		case canceled:
			j.Status = domain.JobCanceled
		case attempted > 0 && j.Progress.Failed == attempted:
			j.Status = domain.JobFailed
			j.Error = fmt.Sprintf("all %d attempted segments failed", attempted)
		default:
			j.Status = domain.JobCompleted
		}
	})
	r.mu.Lock()
	status, pr := r.job.Status, r.job.Progress
	r.mu.Unlock()
	log.Info("job finished", "status", status, "done", pr.Done, "failed", pr.Failed, "skipped", pr.Skipped)
}

// translateOne runs detached from the job context so that cancelling the
// job does not abort a segment already handed to the provider.
func (q *Queue) translateOne(ctx context.Context, r *run, segmentID int64) {
	segCtx := context.WithoutCancel(ctx)
	if q.opts.SegmentTimeout > 0 {
		var cancel context.CancelFunc
		segCtx, cancel = context.WithTimeout(segCtx, q.opts.SegmentTimeout)
		defer cancel()
	}

	item := &domain.JobItem{JobID: r.job.ID, SegmentID: segmentID, Status: ItemDone}
	_, err := q.translator.TranslateSegment(segCtx, segmentID, r.job.ActorID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPrecondition):
		// Changed status since the job listed it: nothing to do.
		q.log.Warn("segment no longer translatable", "job_id", r.job.ID, "segment_id", segmentID, diag.Err(err))
		item.Status = ItemSkipped
		item.Error = err.Error()
	default:
		item.Status = ItemFailed
		item.Error = err.Error()
	}

	if err := q.store.AddJobItem(segCtx, item); err != nil {
		q.log.Warn("record job item failed", "job_id", r.job.ID, "segment_id", segmentID, diag.Err(err))
	}
	q.update(r, func(j *domain.Job) {
		switch item.Status {
		case ItemDone:
			j.Progress.Done++
		case ItemFailed:
			j.Progress.Failed++
		case ItemSkipped:
			j.Progress.Skipped++
		}
	})
}

// update applies fn to the job and persists it. Persistence failures are
// logged; the in-memory job stays authoritative while the run is live.
func (q *Queue) update(r *run, fn func(j *domain.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.job)
	if err := q.store.UpdateJob(context.Background(), r.job); err != nil {
		q.log.Warn("persist job failed", "job_id", r.job.ID, diag.Err(err))
	}
}
