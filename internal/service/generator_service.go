package service

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

// scheduleStore is the generator's write-through view of committed slots.
// Every Commit must be visible to the point queries that follow it within
// the same run.
type scheduleStore interface {
	WipeAll(ctx context.Context) error
	Commit(ctx context.Context, slot *models.Slot) error
	RoomTaken(ctx context.Context, day, start, roomID string) (bool, error)
	TeacherTaken(ctx context.Context, day, start, teacherID string) (bool, error)
	GroupTaken(ctx context.Context, day, start, groupID string) (bool, error)
	HasLecture(ctx context.Context, groupID, courseID, day string) (bool, error)
	CountGroupDay(ctx context.Context, groupID, day string) (int, error)
}

type groupSource interface {
	ListAll(ctx context.Context) ([]models.Group, error)
}

type courseSource interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Course, error)
}

type teacherSource interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type roomSource interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type absenceSource interface {
	Exists(ctx context.Context, teacherID, day, startTime string) (bool, error)
}

// runLocker serialises generation runs across processes.
type runLocker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// runMetrics records generation run outcomes.
type runMetrics interface {
	ObserveRun(status string, placed, requested int)
}

// timetableInvalidator drops cached timetable views after a run rewrites
// the schedule.
type timetableInvalidator interface {
	InvalidateTimetables(ctx context.Context)
}

// sessionRequest is one atomic 2-hour demand unit awaiting placement.
type sessionRequest struct {
	course models.Course
	group  models.Group
	kind   string
}

// GeneratorService builds the full timetable from scratch on every run.
type GeneratorService struct {
	slots       scheduleStore
	groups      groupSource
	courses     courseSource
	teachers    teacherSource
	rooms       roomSource
	absences    absenceSource
	locker      runLocker
	metrics     runMetrics
	invalidator timetableInvalidator
	rng         *rand.Rand
	logger      *zap.Logger
}

// GeneratorOption customises a GeneratorService.
type GeneratorOption func(*GeneratorService)

// WithRand injects the random source used for request and day shuffling.
// A fixed seed makes runs reproducible.
func WithRand(rng *rand.Rand) GeneratorOption {
	return func(s *GeneratorService) { s.rng = rng }
}

// WithRunLocker serialises runs through a shared lock.
func WithRunLocker(locker runLocker) GeneratorOption {
	return func(s *GeneratorService) { s.locker = locker }
}

// WithRunMetrics wires run observation.
func WithRunMetrics(m runMetrics) GeneratorOption {
	return func(s *GeneratorService) { s.metrics = m }
}

// WithInvalidator wires cached timetable invalidation after each run.
func WithInvalidator(inv timetableInvalidator) GeneratorOption {
	return func(s *GeneratorService) { s.invalidator = inv }
}

// WithAbsences wires teacher absence checks into placement.
func WithAbsences(a absenceSource) GeneratorOption {
	return func(s *GeneratorService) { s.absences = a }
}

// NewGeneratorService instantiates the generation engine.
func NewGeneratorService(slots scheduleStore, groups groupSource, courses courseSource, teachers teacherSource, rooms roomSource, logger *zap.Logger, opts ...GeneratorOption) *GeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GeneratorService{
		slots:    slots,
		groups:   groups,
		courses:  courses,
		teachers: teachers,
		rooms:    rooms,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return s
}

// Generate rebuilds the timetable. The previous schedule is wiped before
// data sufficiency is checked, so an aborted run leaves an empty timetable
// rather than a stale one.
func (s *GeneratorService) Generate(ctx context.Context) (*dto.GenerateTimetableResult, error) {
	if s.locker != nil {
		acquired, err := s.locker.TryAcquire(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
		}
		if !acquired {
			return nil, appErrors.ErrRunInProgress
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release generation lock", zap.Error(err))
			}
		}()
	}

	result, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(result.Status, result.Placed, result.Requested)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateTimetables(ctx)
	}
	return result, nil
}

func (s *GeneratorService) run(ctx context.Context) (*dto.GenerateTimetableResult, error) {
	if err := s.slots.WipeAll(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous timetable")
	}

	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if len(groups) == 0 || len(rooms) == 0 {
		s.logger.Warn("generation aborted", zap.Int("groups", len(groups)), zap.Int("rooms", len(rooms)))
		return &dto.GenerateTimetableResult{
			Status:  dto.GenerationInsufficientData,
			Message: "at least one group and one room are required",
		}, nil
	}

	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	result := &dto.GenerateTimetableResult{Status: dto.GenerationCompleted}

	// Groups are scheduled one after another: a group's full demand is
	// expanded, ordered and placed before the next group is touched.
	for _, group := range groups {
		requests, err := s.expandDemand(ctx, group)
		if err != nil {
			return nil, err
		}
		s.orderRequests(requests)
		result.Requested += len(requests)

		for _, req := range requests {
			outcome := dto.SessionOutcome{
				CourseID:   req.course.ID,
				CourseName: req.course.Name,
				GroupID:    req.group.ID,
				Kind:       req.kind,
			}

			teacherID, ok := resolveTeacher(req.course, teachers)
			if !ok {
				outcome.Status = dto.OutcomeSkippedNoTeacher
				result.Outcomes = append(result.Outcomes, outcome)
				continue
			}

			slot, err := s.place(ctx, req, teacherID, rooms)
			if err != nil {
				return nil, err
			}
			if slot == nil {
				outcome.Status = dto.OutcomeUnplaced
				result.Outcomes = append(result.Outcomes, outcome)
				continue
			}

			outcome.Status = dto.OutcomePlaced
			outcome.SlotID = slot.ID
			outcome.Day = slot.Day
			outcome.StartTime = slot.StartTime
			result.Outcomes = append(result.Outcomes, outcome)
			result.Placed++
		}
	}

	result.Message = "timetable generated"
	s.logger.Info("generation run finished",
		zap.Int("requested", result.Requested),
		zap.Int("placed", result.Placed))
	return result, nil
}

// expandDemand converts one group's weekly hour loads into atomic 2-hour
// requests, one per session to schedule. Odd hour counts round up.
func (s *GeneratorService) expandDemand(ctx context.Context, group models.Group) ([]sessionRequest, error) {
	courses, err := s.courses.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group courses")
	}
	var requests []sessionRequest
	for _, course := range courses {
		for _, demand := range []struct {
			kind  string
			hours int
		}{
			{models.SessionLecture, course.LectureHours},
			{models.SessionDirected, course.DirectedHours},
			{models.SessionPractical, course.PracticalHours},
		} {
			sessions := (demand.hours + models.SessionHours - 1) / models.SessionHours
			for i := 0; i < sessions; i++ {
				requests = append(requests, sessionRequest{course: course, group: group, kind: demand.kind})
			}
		}
	}
	return requests, nil
}

// orderRequests shuffles one group's request queue then stable-sorts its
// lectures to the front. Lectures get first pick of the group's week;
// everything else keeps a randomised relative order so reruns spread
// sessions differently.
func (s *GeneratorService) orderRequests(requests []sessionRequest) {
	s.rng.Shuffle(len(requests), func(i, j int) {
		requests[i], requests[j] = requests[j], requests[i]
	})
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].kind == models.SessionLecture && requests[j].kind != models.SessionLecture
	})
}

// resolveTeacher returns the course's assigned teacher, falling back to a
// hash-based pick from the roster so unassigned courses still land on a
// consistent teacher between runs.
func resolveTeacher(course models.Course, teachers []models.Teacher) (string, bool) {
	if course.TeacherID != nil && *course.TeacherID != "" {
		return *course.TeacherID, true
	}
	if len(teachers) == 0 {
		return "", false
	}
	h := fnv.New32a()
	h.Write([]byte(course.ID))
	return teachers[int(h.Sum32())%len(teachers)].ID, true
}

// rankRooms orders candidate rooms by fitness: matching type first, then
// sufficient capacity, keeping the incoming order within each class.
func rankRooms(rooms []models.Room, kind string, groupSize int) []models.Room {
	wanted := models.RequiredRoomType(kind)
	ranked := make([]models.Room, len(rooms))
	copy(ranked, rooms)
	sort.SliceStable(ranked, func(i, j int) bool {
		return roomPenalty(ranked[i], wanted, groupSize) < roomPenalty(ranked[j], wanted, groupSize)
	})
	return ranked
}

func roomPenalty(room models.Room, wantedType string, groupSize int) int {
	penalty := 0
	if room.Type != wantedType {
		penalty += 2
	}
	if room.Capacity < groupSize {
		penalty++
	}
	return penalty
}

// place finds the first admissible (day, window, room) for a request and
// commits it. Returns nil without error when nothing fits.
func (s *GeneratorService) place(ctx context.Context, req sessionRequest, teacherID string, rooms []models.Room) (*models.Slot, error) {
	ranked := rankRooms(rooms, req.kind, req.group.StudentCount)

	days := make([]string, len(models.WeekDays))
	copy(days, models.WeekDays)
	if req.kind != models.SessionLecture {
		s.rng.Shuffle(len(days), func(i, j int) {
			days[i], days[j] = days[j], days[i]
		})
	}

	for _, day := range days {
		admissible, err := s.dayAdmissible(ctx, req, day)
		if err != nil {
			return nil, err
		}
		if !admissible {
			continue
		}

		for _, window := range models.DailyWindows {
			for _, room := range ranked {
				free, err := s.windowFree(ctx, day, window.Start, room.ID, teacherID, req.group.ID)
				if err != nil {
					return nil, err
				}
				if !free {
					continue
				}

				slot := &models.Slot{
					CourseID:  req.course.ID,
					TeacherID: teacherID,
					RoomID:    room.ID,
					GroupID:   req.group.ID,
					Day:       day,
					StartTime: window.Start,
					EndTime:   window.End,
					Kind:      req.kind,
				}
				if err := s.slots.Commit(ctx, slot); err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit slot")
				}
				return slot, nil
			}
		}
	}
	return nil, nil
}

// dayAdmissible applies the per-day pedagogical rules: a course's directed
// or practical session never shares a day with that course's lecture, and
// a group's committed load stays under the daily cap.
func (s *GeneratorService) dayAdmissible(ctx context.Context, req sessionRequest, day string) (bool, error) {
	if req.kind != models.SessionLecture {
		hasLecture, err := s.slots.HasLecture(ctx, req.group.ID, req.course.ID, day)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check same-day lecture")
		}
		if hasLecture {
			return false, nil
		}
	}

	count, err := s.slots.CountGroupDay(ctx, req.group.ID, day)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count daily load")
	}
	if count*models.SessionHours >= models.MaxDailyHours {
		return false, nil
	}
	return true, nil
}

// windowFree checks that room, teacher and group are all unoccupied at a
// (day, start) window, and that the teacher is not declared absent there.
func (s *GeneratorService) windowFree(ctx context.Context, day, start, roomID, teacherID, groupID string) (bool, error) {
	taken, err := s.slots.RoomTaken(ctx, day, start, roomID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room occupancy")
	}
	if taken {
		return false, nil
	}

	taken, err = s.slots.TeacherTaken(ctx, day, start, teacherID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher occupancy")
	}
	if taken {
		return false, nil
	}

	taken, err = s.slots.GroupTaken(ctx, day, start, groupID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group occupancy")
	}
	if taken {
		return false, nil
	}

	if s.absences != nil {
		absent, err := s.absences.Exists(ctx, teacherID, day, start)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher absence")
		}
		if absent {
			return false, nil
		}
	}
	return true, nil
}
