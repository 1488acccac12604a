package sync

import (
	"context"
	gosync "sync"

	"enrol-sync/internal/concurrency"
	"enrol-sync/internal/domain"
	"enrol-sync/internal/providers"
	"enrol-sync/internal/result"
)

// Patcher pushes a rendered patch document for one registration. The tms
// client implements it; dry runs and tests use stubs.
type Patcher interface {
	UpdateRegistration(ctx context.Context, registrationID string, patchXML string) error
}

// Outcome reports what happened for one registration during a sync pass.
type Outcome struct {
	RegistrationID string
	CourseID       int64
	UserID         int64
	Changed        bool
	Patch          string
	Err            error
}

// Runner drives one sync pass: snapshot every baseline, diff, and push the
// resulting patches.
type Runner struct {
	Host    providers.HostServices
	Patcher Patcher
	Labels  result.Labels

	// MaxWorkers bounds parallel snapshot/patch work. <=0 means sequential.
	MaxWorkers int

	// DryRun computes and reports patches without pushing them.
	DryRun bool
}

// Sync processes the baselines and returns one outcome per baseline, in input
// order. Per-registration failures (missing course, push errors) land in the
// outcome; only a canceled context aborts the whole pass.
func (r *Runner) Sync(ctx context.Context, baselines []result.Baseline) []Outcome {
	labels := r.Labels
	if labels == (result.Labels{}) {
		labels = result.DefaultLabels()
	}

	// The course cache is single-threaded by design; workers share it
	// through a locked wrapper.
	cache := &lockedResolver{inner: result.NewCourseCache(r.Host)}

	workers := r.MaxWorkers
	if workers <= 0 {
		workers = 1
	}

	outcomes, _ := concurrency.ProcessParallel(
		ctx,
		baselines,
		concurrency.ParallelOptions{MaxWorkers: workers},
		func(ctx context.Context, _ int, base result.Baseline) (Outcome, error) {
			out := Outcome{
				RegistrationID: base.RegistrationID,
				CourseID:       base.CourseID,
				UserID:         base.UserID,
			}

			builder := &result.Builder{
				Courses:    cache,
				Grades:     r.Host,
				Completion: r.Host,
				LastAccess: r.Host,
				Labels:     labels,
			}

			snap, err := builder.Snapshot(ctx, base.CourseID, &base)
			if err != nil {
				out.Err = err
				return out, err
			}

			patch, err := result.ExportPatch(snap, &base)
			if err != nil {
				out.Err = err
				return out, err
			}
			if patch == "" {
				return out, nil
			}

			out.Changed = true
			out.Patch = patch

			if r.DryRun {
				return out, nil
			}
			if err := r.Patcher.UpdateRegistration(ctx, base.RegistrationID, patch); err != nil {
				out.Err = err
				return out, err
			}
			return out, nil
		},
	)

	// A cancellation makes workers abandon their remaining jobs, leaving
	// zero-value slots. Stamp those with the context error so a truncated
	// run never reads as a clean one.
	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			if outcomes[i].RegistrationID == "" {
				b := baselines[i]
				outcomes[i] = Outcome{
					RegistrationID: b.RegistrationID,
					CourseID:       b.CourseID,
					UserID:         b.UserID,
					Err:            err,
				}
			}
		}
	}

	return outcomes
}

// lockedResolver makes a CourseCache safe to share across sync workers.
type lockedResolver struct {
	mu    gosync.Mutex
	inner *result.CourseCache
}

func (l *lockedResolver) Resolve(ctx context.Context, id int64) (*domain.Course, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Resolve(ctx, id)
}
