// Package app wires the store, the providers and the workflow components
// into one value the CLI drives.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jjjmaes/AIT-sub001/internal/access"
	"github.com/Jjjmaes/AIT-sub001/internal/config"
	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/jobs"
	"github.com/Jjjmaes/AIT-sub001/internal/keylock"
	"github.com/Jjjmaes/AIT-sub001/internal/memory"
	"github.com/Jjjmaes/AIT-sub001/internal/progress"
	"github.com/Jjjmaes/AIT-sub001/internal/reviewer"
	"github.com/Jjjmaes/AIT-sub001/internal/store"
	"github.com/Jjjmaes/AIT-sub001/internal/translator"
	"github.com/Jjjmaes/AIT-sub001/internal/workflow"
)

type App struct {
	Config   *config.Config
	Store    *store.Store
	Matcher  *memory.Matcher
	Progress *progress.Aggregator
	Engine   *workflow.Engine
	Jobs     *jobs.Queue
	Log      *slog.Logger

	access *access.Checker
}

// Providers overrides the capabilities built from configuration.
type Providers struct {
	Translator translator.Translator
	Reviewer   reviewer.Reviewer
}

// New opens the database and builds every component. Nil providers are
// built from cfg.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, prov Providers) (*App, error) {
	var err error
	if prov.Translator == nil {
		if prov.Translator, err = NewTranslator(cfg.Translator, cfg.Validation.TargetLanguage, log); err != nil {
			return nil, fmt.Errorf("translator: %w", err)
		}
	}
	if prov.Reviewer == nil {
		if prov.Reviewer, err = NewReviewer(cfg.Reviewer); err != nil {
			return nil, fmt.Errorf("reviewer: %w", err)
		}
	}

	st, err := store.New(cfg.DB)
	if err != nil {
		return nil, err
	}
	if n, err := st.AbandonJobs(ctx, "interrupted: process exited before the job finished"); err != nil {
		log.Warn("abandon stale jobs failed", diag.Err(err))
	} else if n > 0 {
		log.Warn("marked stale jobs as canceled", "count", n)
	}
	released, staleFiles, err := st.AbandonClaims(ctx, "interrupted: process exited while the segment was being processed")
	if err != nil {
		log.Warn("release stale segment claims failed", diag.Err(err))
	} else if released > 0 {
		log.Warn("released stale segment claims", "count", released, "files", len(staleFiles))
	}

	locks := &keylock.Map[int64]{}
	matcher := memory.NewMatcher(st, memory.Options{
		FuzzyThreshold: cfg.Memory.FuzzyThreshold,
		MaxMatches:     cfg.Memory.MaxMatches,
	})
	agg := progress.NewAggregator(st, log.With("component", "progress"))
	for _, id := range staleFiles {
		if err := agg.Refresh(ctx, id); err != nil {
			log.Warn("progress refresh after releasing claims failed", "file_id", id, diag.Err(err))
		}
	}
	var policy workflow.ReviewPolicy
	if sev := cfg.Review.ManualSeverity; sev != "" {
		policy = workflow.SeverityPolicy(domain.Severity(sev))
	}
	engine := workflow.New(workflow.Deps{
		Store:      st,
		Matcher:    matcher,
		Translator: prov.Translator,
		Reviewer:   prov.Reviewer,
		Progress:   agg,
		Locks:      locks,
		Logger:     log,
	}, workflow.Config{
		ContextWindow:  cfg.Context.Window,
		ReviewTemplate: cfg.Reviewer.Template,
		ReviewPolicy:   policy,
	})
	queue := jobs.NewQueue(st, engine, log, jobs.Options{
		Concurrency:    cfg.Jobs.Concurrency,
		Rate:           cfg.Jobs.Rate,
		Burst:          cfg.Jobs.Burst,
		SegmentTimeout: cfg.Jobs.SegmentTimeout,
	})

	return &App{
		Config:   cfg,
		Store:    st,
		Matcher:  matcher,
		Progress: agg,
		Engine:   engine,
		Jobs:     queue,
		Log:      log,
		access:   access.NewChecker(st),
	}, nil
}

// Close stops running jobs, waits for background refreshes and closes the
// database.
func (a *App) Close() error {
	a.Jobs.Close()
	a.Progress.Wait()
	return a.Store.Close()
}

// CreateProject validates and stores a new project managed by p.ManagerID.
func (a *App) CreateProject(ctx context.Context, p *domain.Project) error {
	if err := p.Check(); err != nil {
		return err
	}
	if err := a.Store.CreateProject(ctx, p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	a.Log.Info("project created", "project_id", p.ID, "name", p.Name, "pair", p.SourceLang+"-"+p.TargetLang)
	return nil
}

// AddMember grants a role on a project; only a manager may do so.
func (a *App) AddMember(ctx context.Context, projectID, actorID int64, m domain.Member) error {
	p, err := a.Store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	ok, err := a.access.IsManager(ctx, p, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbiddenf("user %d cannot manage members of project %d", actorID, projectID)
	}
	m.ProjectID = projectID
	return a.Store.AddMember(ctx, m)
}

// ImportFile stores the raw segments of a file in document order. Blank
// sources are dropped.
func (a *App) ImportFile(ctx context.Context, projectID, actorID int64, name string, sources []string) (*domain.File, error) {
	p, err := a.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := a.access.Require(ctx, p, actorID, domain.RoleManager); err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(sources))
	for _, s := range sources {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, domain.Validationf("file %q has no segments", name)
	}

	f := &domain.File{ProjectID: projectID, Name: name}
	if err := a.Store.CreateFile(ctx, f, kept); err != nil {
		return nil, fmt.Errorf("import file: %w", err)
	}
	if err := a.Progress.Refresh(ctx, f.ID); err != nil {
		a.Log.Warn("progress refresh after import failed", "file_id", f.ID, diag.Err(err))
	}
	a.Log.Info("file imported", "file_id", f.ID, "project_id", projectID, "segments", len(kept))
	return a.Store.GetFile(ctx, f.ID)
}

// GetJobStatus returns the job and its progress.
func (a *App) GetJobStatus(ctx context.Context, handle string) (*domain.Job, error) {
	return a.Jobs.Status(ctx, handle)
}
