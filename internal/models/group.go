package models

import "time"

// Group is a student cohort. Its ID is a natural key (e.g. "AD") referenced
// by users and committed slots.
type Group struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	Track        *string   `db:"track" json:"track,omitempty"`
	Semester     *string   `db:"semester" json:"semester,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
