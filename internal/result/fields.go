package result

// Baseline is the last-known-synced state for one registration, as fetched
// from the TMS. Fields the TMS has never seen stay unset.
type Baseline struct {
	RegistrationID string
	CourseID       int64
	UserID         int64

	Grade           Value
	Outcome         Value
	LastActivity    Value // unix seconds
	ProgressStatus  Value
	ProgressPercent Value
}

// Snapshot is the freshly computed state for one (course, user) pair. It is
// ephemeral: only the derived patch persists.
type Snapshot struct {
	CourseID int64
	UserID   int64

	Grade           Value
	Outcome         Value
	LastActivity    Value // unix seconds
	ProgressStatus  Value
	ProgressPercent Value
}

// field describes one tracked registration field: its wire element name, its
// comparison policy and its output formatter. The diff iterates this fixed
// table in order instead of reflecting over struct fields.
type field struct {
	name    string
	wire    string
	numeric bool
	format  func(Value) string
	snap    func(*Snapshot) Value
	base    func(*Baseline) Value
}

func rawText(v Value) string { return v.Raw() }

// trackedFields is the complete field set, in the order operations must appear
// in the patch document.
var trackedFields = []field{
	{
		name:    "grade",
		wire:    "Grade",
		numeric: true,
		format:  rawText,
		snap:    func(s *Snapshot) Value { return s.Grade },
		base:    func(b *Baseline) Value { return b.Grade },
	},
	{
		name:   "outcome",
		wire:   "Outcome",
		format: rawText,
		snap:   func(s *Snapshot) Value { return s.Outcome },
		base:   func(b *Baseline) Value { return b.Outcome },
	},
	{
		name:    "lastactivity",
		wire:    "LastActivityDateTime",
		numeric: true,
		format:  formatEpoch,
		snap:    func(s *Snapshot) Value { return s.LastActivity },
		base:    func(b *Baseline) Value { return b.LastActivity },
	},
	{
		name:   "progressstatus",
		wire:   "ProgressStatus",
		format: rawText,
		snap:   func(s *Snapshot) Value { return s.ProgressStatus },
		base:   func(b *Baseline) Value { return b.ProgressStatus },
	},
	{
		name:    "progresspercent",
		wire:    "ProgressPercent",
		numeric: true,
		format:  rawText,
		snap:    func(s *Snapshot) Value { return s.ProgressPercent },
		base:    func(b *Baseline) Value { return b.ProgressPercent },
	},
}
