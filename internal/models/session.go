package models

// Session kinds as stored on committed slots. Makeup sessions are only
// created through reservation approval, never by the generator.
const (
	SessionLecture   = "LECTURE"
	SessionDirected  = "DIRECTED_WORK"
	SessionPractical = "PRACTICAL_WORK"
	SessionMakeup    = "MAKEUP"
)

// Room type labels.
const (
	RoomLectureHall  = "LECTURE_HALL"
	RoomPracticalLab = "PRACTICAL_LAB"
	RoomStandard     = "STANDARD"
)

// WeekDays is the fixed weekly day order used by the generator and the
// export grid.
var WeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// SlotWindow is one of the fixed 2-hour teaching windows of a day.
type SlotWindow struct {
	Start string
	End   string
}

// DailyWindows lists the four 2-hour windows every session request occupies
// exactly one of.
var DailyWindows = []SlotWindow{
	{Start: "08:00", End: "10:00"},
	{Start: "10:15", End: "12:15"},
	{Start: "14:00", End: "16:00"},
	{Start: "16:15", End: "18:15"},
}

// MaxDailyHours caps committed teaching hours per group per day.
const MaxDailyHours = 6

// SessionHours is the length of one atomic session request.
const SessionHours = 2

// RequiredRoomType maps a session kind to its preferred room type.
func RequiredRoomType(kind string) string {
	switch kind {
	case SessionLecture:
		return RoomLectureHall
	case SessionPractical:
		return RoomPracticalLab
	default:
		return RoomStandard
	}
}
