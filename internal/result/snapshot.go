package result

import (
	"context"
	"fmt"
	"math"

	"enrol-sync/internal/domain"
)

// CourseService looks up static course attributes in the host LMS.
// Must-exist semantics: a missing course is an error, never a nil course.
type CourseService interface {
	Course(ctx context.Context, id int64) (*domain.Course, error)
}

// GradeItem is the course grade item carrying the pass mark and the course's
// display precision.
type GradeItem struct {
	PassMark    float64
	HasPassMark bool
	Decimals    int
}

// UserGrade is a user's current course grade: the displayable rendering under
// the course's display settings and the real (non-rounded) numeric value.
type UserGrade struct {
	Display string
	Real    float64
}

// GradeService exposes the host's grading subsystem.
type GradeService interface {
	// PassItem returns the course grade item, or nil when the course has no
	// grade item configured.
	PassItem(ctx context.Context, courseID int64) (*GradeItem, error)
	// UserGrade returns the user's current course grade, or nil when the user
	// has no grade record.
	UserGrade(ctx context.Context, userID, courseID int64) (*UserGrade, error)
}

// CompletionService exposes the host's course-completion subsystem.
type CompletionService interface {
	IsTracked(ctx context.Context, userID, courseID int64) (bool, error)
	IsComplete(ctx context.Context, userID, courseID int64) (bool, error)
	// CriteriaProgress returns how many completion criteria the user has met
	// and how many the course defines.
	CriteriaProgress(ctx context.Context, userID, courseID int64) (completed, total int, err error)
	// StartedAt returns the completion start timestamp, 0 when the user never
	// started.
	StartedAt(ctx context.Context, userID, courseID int64) (int64, error)
}

// LastAccessService exposes the host's course last-access log.
type LastAccessService interface {
	// LastAccess returns the user's last course access timestamp, 0 when the
	// user never accessed the course.
	LastAccess(ctx context.Context, userID, courseID int64) (int64, error)
}

// Labels are the localized strings written into outcome and progress fields.
type Labels struct {
	Pass       string
	Fail       string
	Completed  string
	InProgress string
	NotStarted string
}

// DefaultLabels returns the English label set.
func DefaultLabels() Labels {
	return Labels{
		Pass:       "Pass",
		Fail:       "Fail",
		Completed:  domain.StatusCompleted,
		InProgress: domain.StatusInProgress,
		NotStarted: domain.StatusNotStarted,
	}
}

// noGradeDisplay is the sentinel the grading subsystem renders when a grade
// record exists but no grade has been given yet.
const noGradeDisplay = "-"

// CourseResolver resolves course ids to courses, usually through a CourseCache.
type CourseResolver interface {
	Resolve(ctx context.Context, id int64) (*domain.Course, error)
}

// Builder assembles result snapshots for registrations. One builder serves one
// sync run; it holds no per-registration state beyond the shared course
// resolver, so a single builder may be reused across many registrations.
type Builder struct {
	Courses    CourseResolver
	Grades     GradeService
	Completion CompletionService
	LastAccess LastAccessService
	Labels     Labels
}

// Snapshot computes the current result state for the baseline's user in the
// given course. The course must exist; all other facts degrade to unset fields
// when the host has nothing to report. The three sub-computations are
// independent and read-only.
func (b *Builder) Snapshot(ctx context.Context, courseID int64, base *Baseline) (*Snapshot, error) {
	course, err := b.Courses.Resolve(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("result: course %d: %w", courseID, err)
	}

	snap := &Snapshot{CourseID: course.ID, UserID: base.UserID}

	if err := b.collectGrade(ctx, snap); err != nil {
		return nil, err
	}
	if err := b.collectProgress(ctx, snap); err != nil {
		return nil, err
	}
	if err := b.collectLastAccess(ctx, snap); err != nil {
		return nil, err
	}

	return snap, nil
}

func (b *Builder) collectGrade(ctx context.Context, snap *Snapshot) error {
	item, err := b.Grades.PassItem(ctx, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: grade item for course %d: %w", snap.CourseID, err)
	}
	if item == nil || !item.HasPassMark {
		// No grade item or no pass mark configured: nothing to report.
		return nil
	}

	grade, err := b.Grades.UserGrade(ctx, snap.UserID, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: grade for user %d course %d: %w", snap.UserID, snap.CourseID, err)
	}
	if grade == nil || grade.Display == noGradeDisplay {
		return nil
	}

	snap.Grade = StringValue(grade.Display)
	if grade.Real >= roundTo(item.PassMark, item.Decimals) {
		snap.Outcome = StringValue(b.Labels.Pass)
	} else {
		snap.Outcome = StringValue(b.Labels.Fail)
	}
	return nil
}

func (b *Builder) collectProgress(ctx context.Context, snap *Snapshot) error {
	tracked, err := b.Completion.IsTracked(ctx, snap.UserID, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: completion tracking for user %d course %d: %w", snap.UserID, snap.CourseID, err)
	}
	if !tracked {
		return nil
	}

	complete, err := b.Completion.IsComplete(ctx, snap.UserID, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: completion state for user %d course %d: %w", snap.UserID, snap.CourseID, err)
	}
	if complete {
		snap.ProgressStatus = StringValue(b.Labels.Completed)
		snap.ProgressPercent = IntValue(100)
		return nil
	}

	completed, total, err := b.Completion.CriteriaProgress(ctx, snap.UserID, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: completion criteria for user %d course %d: %w", snap.UserID, snap.CourseID, err)
	}
	started, err := b.Completion.StartedAt(ctx, snap.UserID, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: completion start for user %d course %d: %w", snap.UserID, snap.CourseID, err)
	}

	if completed == 0 && started == 0 {
		snap.ProgressStatus = StringValue(b.Labels.NotStarted)
		return nil
	}

	snap.ProgressStatus = StringValue(b.Labels.InProgress)
	// In progress with zero completed criteria keeps percent unset rather
	// than reporting 0.
	if completed > 0 && total > 0 {
		pct := int(math.Round(float64(completed) / float64(total) * 100))
		snap.ProgressPercent = IntValue(pct)
	}
	return nil
}

func (b *Builder) collectLastAccess(ctx context.Context, snap *Snapshot) error {
	ts, err := b.LastAccess.LastAccess(ctx, snap.UserID, snap.CourseID)
	if err != nil {
		return fmt.Errorf("result: last access for user %d course %d: %w", snap.UserID, snap.CourseID, err)
	}
	if ts != 0 {
		snap.LastActivity = EpochValue(ts)
	}
	return nil
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}
