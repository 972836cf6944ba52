// Package progress keeps file and project aggregates in line with the
// segment population. Every refresh recounts from storage, so a missed or
// failed refresh heals on the next one.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/keylock"
)

type Store interface {
	GetFile(ctx context.Context, id int64) (*domain.File, error)
	ListFiles(ctx context.Context, projectID int64) ([]*domain.File, error)
	CountByStatus(ctx context.Context, fileID int64) ([]domain.StatusCount, error)
	CountProjectByStatus(ctx context.Context, projectID int64) ([]domain.StatusCount, error)
	UpdateFileProgress(ctx context.Context, id int64, status domain.FileStatus, pr domain.FileProgress, errMsg string) error
	UpdateProjectProgress(ctx context.Context, id int64, status domain.ProjectStatus, pr domain.ProjectProgress) error
}

// Aggregator recomputes file and project progress. Refreshes of the same
// file, and of the same project, are serialised.
type Aggregator struct {
	store    Store
	log      *slog.Logger
	files    keylock.Map[int64]
	projects keylock.Map[int64]
	wg       sync.WaitGroup
}

func NewAggregator(s Store, log *slog.Logger) *Aggregator {
	return &Aggregator{store: s, log: log}
}

// Refresh recomputes the file and then its project.
func (a *Aggregator) Refresh(ctx context.Context, fileID int64) error {
	f, err := a.refreshFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("refresh file %d: %w", fileID, err)
	}
	if err := a.RefreshProject(ctx, f.ProjectID); err != nil {
		return fmt.Errorf("refresh project %d: %w", f.ProjectID, err)
	}
	return nil
}

// Schedule runs Refresh in the background. Failures are logged.
func (a *Aggregator) Schedule(ctx context.Context, fileID int64) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Refresh(ctx, fileID); err != nil {
			a.log.Warn("scheduled progress refresh failed", "file_id", fileID, diag.Err(err))
		}
	}()
}

// Wait blocks until every scheduled refresh has finished.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

func (a *Aggregator) refreshFile(ctx context.Context, fileID int64) (*domain.File, error) {
	unlock := a.files.Lock(fileID)
	defer unlock()

	f, err := a.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	counts, err := a.store.CountByStatus(ctx, fileID)
	if err != nil {
		return nil, err
	}

	pr, status, errMsg := FileState(counts)
	if err := a.store.UpdateFileProgress(ctx, fileID, status, pr, errMsg); err != nil {
		return nil, err
	}
	if status != f.Status {
		a.log.Info("file status changed", "file_id", fileID, "from", f.Status, "to", status)
	}
	a.log.Debug("file progress refreshed", "file_id", fileID, "status", status, "percentage", pr.Percentage)

	f.Status, f.Progress, f.ErrorMessage = status, pr, errMsg
	return f, nil
}

// RefreshProject recomputes the word-weighted project rollup.
func (a *Aggregator) RefreshProject(ctx context.Context, projectID int64) error {
	unlock := a.projects.Lock(projectID)
	defer unlock()

	counts, err := a.store.CountProjectByStatus(ctx, projectID)
	if err != nil {
		return err
	}
	files, err := a.store.ListFiles(ctx, projectID)
	if err != nil {
		return err
	}

	statuses := make([]domain.FileStatus, 0, len(files))
	for _, f := range files {
		statuses = append(statuses, f.Status)
	}
	pr, status := ProjectState(counts, statuses)
	return a.store.UpdateProjectProgress(ctx, projectID, status, pr)
}

// FileState derives file progress and status from segment counts. Demotion
// falls out of the rules: a completed file holding any unconfirmed segment
// is no longer completed.
func FileState(counts []domain.StatusCount) (domain.FileProgress, domain.FileStatus, string) {
	var pr domain.FileProgress
	var reviewing, failed, translated, translating int
	for _, c := range counts {
		pr.Total += c.Count
		if c.Status == domain.StatusConfirmed {
			pr.Completed += c.Count
		}
		if c.Status.HasTranslation() {
			pr.Translated += c.Count
		}
		switch {
		case c.Status.InReview():
			reviewing += c.Count
		case c.Status == domain.StatusTranslationFailed:
			failed += c.Count
		case c.Status == domain.StatusTranslated || c.Status == domain.StatusTranslatedTM:
			translated += c.Count
		case c.Status == domain.StatusTranslating:
			translating += c.Count
		}
	}
	if pr.Total > 0 {
		pr.Percentage = int(math.Round(float64(pr.Completed) / float64(pr.Total) * 100))
	}

	switch {
	case pr.Total > 0 && pr.Completed == pr.Total:
		return pr, domain.FileCompleted, ""
	case reviewing > 0:
		return pr, domain.FileReviewing, ""
	case failed > 0:
		return pr, domain.FileError, fmt.Sprintf("%d segments failed translation", failed)
	case translated > 0:
		return pr, domain.FileTranslated, ""
	case translating > 0:
		return pr, domain.FileTranslating, ""
	default:
		return pr, domain.FilePending, ""
	}
}

// ProjectState rolls segment counts up by words rather than averaging file
// percentages, so small files do not skew the result.
func ProjectState(counts []domain.StatusCount, files []domain.FileStatus) (domain.ProjectProgress, domain.ProjectStatus) {
	var pr domain.ProjectProgress
	for _, c := range counts {
		pr.TotalWords += c.Words
		if c.Status.HasTranslation() {
			pr.TranslatedWords += c.Words
		}
	}
	if pr.TotalWords > 0 {
		pr.CompletionPercentage = pr.TranslatedWords * 100 / pr.TotalWords
	}

	completed, started := 0, false
	for _, s := range files {
		if s == domain.FileCompleted {
			completed++
		}
		if s != domain.FilePending {
			started = true
		}
	}
	switch {
	case len(files) > 0 && completed == len(files):
		return pr, domain.ProjectCompleted
	case started || pr.TranslatedWords > 0:
		return pr, domain.ProjectInProgress
	default:
		return pr, domain.ProjectPending
	}
}
