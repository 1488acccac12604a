package domain

// Course is the canonical representation of an LMS course inside this service.
// Only the static attributes the sync needs are carried; anything dynamic
// (grades, completion) is read per registration from the host services.
type Course struct {
	ID        int64
	FullName  string
	ShortName string
	IDNumber  string // external reference used to match TMS registrations to courses
}

// Progress status labels written into the TMS ProgressStatus field.
const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In progress"
	StatusNotStarted = "Not started"
)
