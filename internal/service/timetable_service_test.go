package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

type slotViewStub struct {
	byGroup   map[string][]models.SlotView
	byTeacher map[string][]models.SlotView
	busyRooms map[string]bool
	total     int
}

func (s *slotViewStub) ListViewByGroup(ctx context.Context, groupID string) ([]models.SlotView, error) {
	return s.byGroup[groupID], nil
}

func (s *slotViewStub) ListViewByTeacher(ctx context.Context, teacherID string) ([]models.SlotView, error) {
	return s.byTeacher[teacherID], nil
}

func (s *slotViewStub) RoomOverlaps(ctx context.Context, roomID, day, start, end string) (bool, error) {
	return s.busyRooms[roomID], nil
}

func (s *slotViewStub) Count(ctx context.Context) (int, error) {
	return s.total, nil
}

type countStub int

func (c countStub) Count(ctx context.Context) (int, error) { return int(c), nil }

type roleCountStub int

func (c roleCountStub) CountByRole(ctx context.Context, role string) (int, error) {
	return int(c), nil
}

func newTimetableServiceForTest(slots *slotViewStub, rooms roomsStub) *TimetableService {
	stats := TimetableStats{Rooms: countStub(3), Teachers: countStub(5), Courses: countStub(7), Users: roleCountStub(40)}
	return NewTimetableService(slots, rooms, stats, nil, nil, zap.NewNop())
}

func TestGroupTimetableReturnsViews(t *testing.T) {
	slots := &slotViewStub{byGroup: map[string][]models.SlotView{
		"AD": {{ID: "s1", CourseName: "Databases", Day: "Monday", StartTime: "08:00", GroupID: "AD"}},
	}}
	svc := newTimetableServiceForTest(slots, nil)

	views, err := svc.GroupTimetable(context.Background(), "AD")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Databases", views[0].CourseName)
}

func TestSearchFreeRoomsFiltersBusyAndSmall(t *testing.T) {
	slots := &slotViewStub{busyRooms: map[string]bool{"busy": true}}
	rooms := roomsStub{
		{ID: "busy", Capacity: 50, Type: models.RoomStandard},
		{ID: "small", Capacity: 10, Type: models.RoomStandard},
		{ID: "free", Capacity: 40, Type: models.RoomStandard},
	}
	svc := newTimetableServiceForTest(slots, rooms)

	found, err := svc.SearchFreeRooms(context.Background(), dto.RoomSearchQuery{
		Day: "Monday", StartTime: "09:00", EndTime: "11:00", Capacity: 20,
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "free", found[0].ID)
}

func TestSearchFreeRoomsRejectsInvertedWindow(t *testing.T) {
	svc := newTimetableServiceForTest(&slotViewStub{}, nil)

	_, err := svc.SearchFreeRooms(context.Background(), dto.RoomSearchQuery{
		Day: "Monday", StartTime: "12:00", EndTime: "10:00",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStatsAggregatesCounters(t *testing.T) {
	slots := &slotViewStub{total: 12}
	svc := newTimetableServiceForTest(slots, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, stats.Sessions)
	require.Equal(t, 3, stats.Rooms)
	require.Equal(t, 5, stats.Teachers)
	require.Equal(t, 7, stats.Courses)
	require.Equal(t, 40, stats.Students)
}
