package dto

// Generation run statuses.
const (
	GenerationCompleted        = "completed"
	GenerationInsufficientData = "insufficient_data"
)

// Session request outcome statuses.
const (
	OutcomePlaced           = "PLACED"
	OutcomeSkippedNoTeacher = "SKIPPED_NO_TEACHER"
	OutcomeUnplaced         = "UNPLACED"
)

// SessionOutcome reports what happened to one atomic session request.
type SessionOutcome struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	GroupID    string `json:"group_id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	SlotID     string `json:"slot_id,omitempty"`
	Day        string `json:"day,omitempty"`
	StartTime  string `json:"start_time,omitempty"`
}

// GenerateTimetableResult summarises a full generation run.
type GenerateTimetableResult struct {
	Status    string           `json:"status"`
	Placed    int              `json:"placed"`
	Requested int              `json:"requested"`
	Message   string           `json:"message"`
	Outcomes  []SessionOutcome `json:"outcomes"`
}
