package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

type timetableSlotStore interface {
	ListViewByGroup(ctx context.Context, groupID string) ([]models.SlotView, error)
	ListViewByTeacher(ctx context.Context, teacherID string) ([]models.SlotView, error)
	RoomOverlaps(ctx context.Context, roomID, day, start, end string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type statCounter interface {
	Count(ctx context.Context) (int, error)
}

type roleCounter interface {
	CountByRole(ctx context.Context, role string) (int, error)
}

// TimetableStats groups the catalog counters feeding the stats endpoint.
type TimetableStats struct {
	Rooms    statCounter
	Teachers statCounter
	Courses  statCounter
	Users    roleCounter
}

// TimetableService serves read views over the committed schedule.
type TimetableService struct {
	slots     timetableSlotStore
	rooms     roomSource
	stats     TimetableStats
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(slots timetableSlotStore, rooms roomSource, stats TimetableStats, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{slots: slots, rooms: rooms, stats: stats, cache: cache, validator: validate, logger: logger}
}

const timetableCachePrefix = "timetable:"

// GroupTimetable returns the weekly schedule of one group.
func (s *TimetableService) GroupTimetable(ctx context.Context, groupID string) ([]models.SlotView, error) {
	key := fmt.Sprintf("%sgroup:%s", timetableCachePrefix, groupID)
	var cached []models.SlotView
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	views, err := s.slots.ListViewByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group timetable")
	}
	s.cache.Set(ctx, key, views)
	return views, nil
}

// TeacherTimetable returns the weekly schedule of one teacher.
func (s *TimetableService) TeacherTimetable(ctx context.Context, teacherID string) ([]models.SlotView, error) {
	key := fmt.Sprintf("%steacher:%s", timetableCachePrefix, teacherID)
	var cached []models.SlotView
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	views, err := s.slots.ListViewByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher timetable")
	}
	s.cache.Set(ctx, key, views)
	return views, nil
}

// InvalidateTimetables drops every cached timetable view. The generator
// calls this after each run.
func (s *TimetableService) InvalidateTimetables(ctx context.Context) {
	s.cache.Invalidate(ctx, timetableCachePrefix+"*")
}

// SearchFreeRooms returns rooms with no committed slot overlapping the
// requested window, optionally filtered by minimum capacity.
func (s *TimetableService) SearchFreeRooms(ctx context.Context, query dto.RoomSearchQuery) ([]models.Room, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room search query")
	}
	if query.StartTime >= query.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	free := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if query.Capacity > 0 && room.Capacity < query.Capacity {
			continue
		}
		busy, err := s.slots.RoomOverlaps(ctx, room.ID, query.Day, query.StartTime, query.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room occupancy")
		}
		if !busy {
			free = append(free, room)
		}
	}
	return free, nil
}

// Stats returns catalog and schedule volume counters.
func (s *TimetableService) Stats(ctx context.Context) (*dto.Stats, error) {
	sessions, err := s.slots.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}
	rooms, err := s.stats.Rooms.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rooms")
	}
	teachers, err := s.stats.Teachers.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	courses, err := s.stats.Courses.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	students, err := s.stats.Users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	return &dto.Stats{
		Rooms:    rooms,
		Teachers: teachers,
		Students: students,
		Sessions: sessions,
		Courses:  courses,
	}, nil
}
