package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitime-io/unitime-api/internal/models"
)

// SlotRepository persists committed timetable slots. It is the schedule
// store the generation engine writes through.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Commit inserts one committed slot. Inserts are immediately visible to
// subsequent queries within the same generation run.
func (r *SlotRepository) Commit(ctx context.Context, slot *models.Slot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO slots (id, course_id, teacher_id, room_id, group_id, day, start_time, end_time, kind, created_at)
		VALUES (:id, :course_id, :teacher_id, :room_id, :group_id, :day, :start_time, :end_time, :kind, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("commit slot: %w", err)
	}
	return nil
}

// WipeAll removes every committed slot. Each generation run starts with a
// full rebuild.
func (r *SlotRepository) WipeAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM slots`); err != nil {
		return fmt.Errorf("wipe slots: %w", err)
	}
	return nil
}

// RoomTaken reports whether a slot occupies the room at exactly (day, start).
func (r *SlotRepository) RoomTaken(ctx context.Context, day, start, roomID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM slots WHERE day = $1 AND start_time = $2 AND room_id = $3 LIMIT 1`, day, start, roomID)
}

// TeacherTaken reports whether the teacher is booked at exactly (day, start).
func (r *SlotRepository) TeacherTaken(ctx context.Context, day, start, teacherID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM slots WHERE day = $1 AND start_time = $2 AND teacher_id = $3 LIMIT 1`, day, start, teacherID)
}

// GroupTaken reports whether the group is busy at exactly (day, start).
func (r *SlotRepository) GroupTaken(ctx context.Context, day, start, groupID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM slots WHERE day = $1 AND start_time = $2 AND group_id = $3 LIMIT 1`, day, start, groupID)
}

// HasLecture reports whether a lecture slot exists for the course and group
// on the given day.
func (r *SlotRepository) HasLecture(ctx context.Context, groupID, courseID, day string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM slots WHERE group_id = $1 AND course_id = $2 AND day = $3 AND kind = $4 LIMIT 1`,
		groupID, courseID, day, models.SessionLecture)
}

// CountGroupDay counts committed sessions for a group on a day.
func (r *SlotRepository) CountGroupDay(ctx context.Context, groupID, day string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM slots WHERE group_id = $1 AND day = $2`, groupID, day); err != nil {
		return 0, fmt.Errorf("count group day slots: %w", err)
	}
	return count, nil
}

// Count returns the total number of committed slots.
func (r *SlotRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM slots`); err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	return count, nil
}

const slotViewColumns = `s.id, c.name AS course_name, t.name AS teacher_name, r.name AS room_name, s.group_id, s.day, s.start_time, s.end_time, s.kind
	FROM slots s
	LEFT JOIN courses c ON c.id = s.course_id
	LEFT JOIN teachers t ON t.id = s.teacher_id
	LEFT JOIN rooms r ON r.id = s.room_id`

// ListViewByGroup returns the joined timetable for a group.
func (r *SlotRepository) ListViewByGroup(ctx context.Context, groupID string) ([]models.SlotView, error) {
	query := fmt.Sprintf(`SELECT %s WHERE s.group_id = $1 ORDER BY s.day ASC, s.start_time ASC`, slotViewColumns)
	var views []models.SlotView
	if err := r.db.SelectContext(ctx, &views, query, groupID); err != nil {
		return nil, fmt.Errorf("list group timetable: %w", err)
	}
	return views, nil
}

// ListViewByTeacher returns the joined timetable for a teacher.
func (r *SlotRepository) ListViewByTeacher(ctx context.Context, teacherID string) ([]models.SlotView, error) {
	query := fmt.Sprintf(`SELECT %s WHERE s.teacher_id = $1 ORDER BY s.day ASC, s.start_time ASC`, slotViewColumns)
	var views []models.SlotView
	if err := r.db.SelectContext(ctx, &views, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return views, nil
}

// RoomOverlaps reports whether any slot in the room truly overlaps the
// [start, end) window on the day. This is interval overlap, wider than the
// generator's point-equality check.
func (r *SlotRepository) RoomOverlaps(ctx context.Context, roomID, day, start, end string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM slots WHERE room_id = $1 AND day = $2 AND start_time < $3 AND end_time > $4 LIMIT 1`,
		roomID, day, end, start)
}

func (r *SlotRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("slot existence check: %w", err)
	}
	return true, nil
}
