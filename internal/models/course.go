package models

import "time"

// Course is a taught module with weekly hour demand per session kind.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Code           string    `db:"code" json:"code"`
	GroupID        *string   `db:"group_id" json:"group_id,omitempty"`
	TeacherID      *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	LectureHours   int       `db:"lecture_hours" json:"lecture_hours"`
	DirectedHours  int       `db:"directed_hours" json:"directed_hours"`
	PracticalHours int       `db:"practical_hours" json:"practical_hours"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	GroupID   string
	TeacherID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
