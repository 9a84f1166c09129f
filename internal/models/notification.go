package models

import "time"

// Notification audiences.
const (
	NotifyAll      = "all"
	NotifyStudents = "student"
	NotifyTeachers = "teacher"
)

// Notification is a broadcast message targeted at a role.
type Notification struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Message    string    `db:"message" json:"message"`
	Type       string    `db:"type" json:"type"`
	TargetRole string    `db:"target_role" json:"target_role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
