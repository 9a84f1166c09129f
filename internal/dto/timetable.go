package dto

// RoomSearchQuery finds rooms free over a time window on a day. Unlike the
// generator's point-equality conflict check, this search uses true interval
// overlap.
type RoomSearchQuery struct {
	Day       string `form:"day" validate:"required"`
	StartTime string `form:"start_time" validate:"required"`
	EndTime   string `form:"end_time" validate:"required"`
	Capacity  int    `form:"capacity"`
}

// Stats summarises catalog and timetable volume.
type Stats struct {
	Rooms    int `json:"rooms_count"`
	Teachers int `json:"teachers_count"`
	Students int `json:"students_count"`
	Sessions int `json:"sessions_count"`
	Courses  int `json:"courses_count"`
}
