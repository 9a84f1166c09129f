package models

import "time"

// Slot is a committed timetable assignment. Rows are created by the
// generation engine or by reservation approval, never edited in place.
type Slot struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	Day       string    `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Kind      string    `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SlotView joins a slot with display names for timetable responses.
type SlotView struct {
	ID          string `db:"id" json:"id"`
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	RoomName    string `db:"room_name" json:"room_name"`
	GroupID     string `db:"group_id" json:"group_id"`
	Day         string `db:"day" json:"day"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	Kind        string `db:"kind" json:"kind"`
}
