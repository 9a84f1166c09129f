package dto

// CreateReservationRequest submits a pending room booking.
type CreateReservationRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	RoomID    string `json:"room_id"`
	CourseID  string `json:"course_id"`
	GroupID   string `json:"group_id"`
	Reason    string `json:"reason" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// UpdateReservationStatusRequest approves or rejects a reservation.
type UpdateReservationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// CreateUnavailabilityRequest records a teacher absence for a date.
type CreateUnavailabilityRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// CreateNotificationRequest broadcasts a message to a role.
type CreateNotificationRequest struct {
	Title      string `json:"title" validate:"required"`
	Message    string `json:"message" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=info warning alert"`
	TargetRole string `json:"target_role" validate:"required,oneof=all student teacher"`
}
