package models

import "time"

// Reservation statuses.
const (
	ReservationPending  = "pending"
	ReservationApproved = "approved"
	ReservationRejected = "rejected"
)

// Reservation is a teacher's room booking request. Approval materialises a
// makeup slot on the timetable.
type Reservation struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	RoomID    *string   `db:"room_id" json:"room_id,omitempty"`
	CourseID  *string   `db:"course_id" json:"course_id,omitempty"`
	GroupID   *string   `db:"group_id" json:"group_id,omitempty"`
	Reason    string    `db:"reason" json:"reason"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Unavailability records a teacher absence on a specific date.
type Unavailability struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Date      time.Time `db:"date" json:"date"`
	Day       string    `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
