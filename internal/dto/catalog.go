package dto

// UpsertRoomRequest creates or updates a room.
type UpsertRoomRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required"`
	Capacity  int    `json:"capacity" validate:"required,min=1"`
	Type      string `json:"type" validate:"required,oneof=LECTURE_HALL PRACTICAL_LAB STANDARD"`
	Equipment string `json:"equipment"`
}

// UpsertTeacherRequest creates or updates a teacher.
type UpsertTeacherRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department"`
}

// UpsertGroupRequest creates or updates a student group.
type UpsertGroupRequest struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	StudentCount int    `json:"student_count" validate:"min=0"`
	Track        string `json:"track"`
	Semester     string `json:"semester"`
}

// UpsertCourseRequest creates or updates a course.
type UpsertCourseRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name" validate:"required"`
	Code           string `json:"code"`
	GroupID        string `json:"group_id"`
	TeacherID      string `json:"teacher_id"`
	LectureHours   int    `json:"lecture_hours" validate:"min=0"`
	DirectedHours  int    `json:"directed_hours" validate:"min=0"`
	PracticalHours int    `json:"practical_hours" validate:"min=0"`
}
