package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/unitime-io/unitime-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSlotRepositoryCommitAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO slots")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.Slot{
		CourseID:  "c1",
		TeacherID: "t1",
		RoomID:    "r1",
		GroupID:   "AD",
		Day:       "Monday",
		StartTime: "08:00",
		EndTime:   "10:00",
		Kind:      models.SessionLecture,
	}
	require.NoError(t, repo.Commit(context.Background(), slot))
	require.NotEmpty(t, slot.ID)
	require.False(t, slot.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryWipeAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots")).
		WillReturnResult(sqlmock.NewResult(0, 42))

	require.NoError(t, repo.WipeAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryRoomTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	rows := sqlmock.NewRows([]string{"one"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots")).
		WithArgs("Monday", "08:00", "r1").
		WillReturnRows(rows)

	taken, err := repo.RoomTaken(context.Background(), "Monday", "08:00", "r1")
	require.NoError(t, err)
	require.True(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryTeacherFreeWhenNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots")).
		WithArgs("Monday", "08:00", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))

	taken, err := repo.TeacherTaken(context.Background(), "Monday", "08:00", "t1")
	require.NoError(t, err)
	require.False(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryCountGroupDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("AD", "Monday").
		WillReturnRows(rows)

	count, err := repo.CountGroupDay(context.Background(), "AD", "Monday")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryRoomOverlapsUsesInterval(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectQuery("start_time < .+ AND end_time >").
		WithArgs("r1", "Monday", "11:00", "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))

	busy, err := repo.RoomOverlaps(context.Background(), "r1", "Monday", "09:00", "11:00")
	require.NoError(t, err)
	require.False(t, busy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryListViewByGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	rows := sqlmock.NewRows([]string{"id", "course_name", "teacher_name", "room_name", "group_id", "day", "start_time", "end_time", "kind"}).
		AddRow("s1", "Databases", "Dr. A", "Lab 1", "AD", "Monday", "08:00", "10:00", models.SessionPractical)
	mock.ExpectQuery("SELECT .+ FROM slots").
		WithArgs("AD").
		WillReturnRows(rows)

	views, err := repo.ListViewByGroup(context.Background(), "AD")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Databases", views[0].CourseName)
	require.NoError(t, mock.ExpectationsWereMet())
}
