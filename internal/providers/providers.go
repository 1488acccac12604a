package providers

import (
	"enrol-sync/internal/result"
)

// HostServices bundles the four LMS subsystems the snapshot builder reads
// from. The lms client implements all of them; tests swap in fakes.
type HostServices interface {
	result.CourseService
	result.GradeService
	result.CompletionService
	result.LastAccessService
}
