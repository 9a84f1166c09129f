package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

// memorySchedule is an in-memory scheduleStore with the same write-through
// visibility as the persistent one.
type memorySchedule struct {
	slots []models.Slot
	next  int
}

func (m *memorySchedule) WipeAll(ctx context.Context) error {
	m.slots = nil
	return nil
}

func (m *memorySchedule) Commit(ctx context.Context, slot *models.Slot) error {
	m.next++
	slot.ID = fmt.Sprintf("slot-%d", m.next)
	m.slots = append(m.slots, *slot)
	return nil
}

func (m *memorySchedule) RoomTaken(ctx context.Context, day, start, roomID string) (bool, error) {
	for _, s := range m.slots {
		if s.Day == day && s.StartTime == start && s.RoomID == roomID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySchedule) TeacherTaken(ctx context.Context, day, start, teacherID string) (bool, error) {
	for _, s := range m.slots {
		if s.Day == day && s.StartTime == start && s.TeacherID == teacherID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySchedule) GroupTaken(ctx context.Context, day, start, groupID string) (bool, error) {
	for _, s := range m.slots {
		if s.Day == day && s.StartTime == start && s.GroupID == groupID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySchedule) HasLecture(ctx context.Context, groupID, courseID, day string) (bool, error) {
	for _, s := range m.slots {
		if s.GroupID == groupID && s.CourseID == courseID && s.Day == day && s.Kind == models.SessionLecture {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySchedule) CountGroupDay(ctx context.Context, groupID, day string) (int, error) {
	count := 0
	for _, s := range m.slots {
		if s.GroupID == groupID && s.Day == day {
			count++
		}
	}
	return count, nil
}

type groupsStub []models.Group

func (g groupsStub) ListAll(ctx context.Context) ([]models.Group, error) { return g, nil }

type coursesStub map[string][]models.Course

func (c coursesStub) ListByGroup(ctx context.Context, groupID string) ([]models.Course, error) {
	return c[groupID], nil
}

type teachersStub []models.Teacher

func (t teachersStub) ListAll(ctx context.Context) ([]models.Teacher, error) { return t, nil }

type roomsStub []models.Room

func (r roomsStub) ListAll(ctx context.Context) ([]models.Room, error) { return r, nil }

func strPtr(s string) *string { return &s }

func newGenerator(store *memorySchedule, groups groupsStub, courses coursesStub, teachers teachersStub, rooms roomsStub, seed int64) *GeneratorService {
	return NewGeneratorService(store, groups, courses, teachers, rooms, zap.NewNop(),
		WithRand(rand.New(rand.NewSource(seed))))
}

func TestGenerateSinglePracticalSession(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{{ID: "AD", Name: "AD", StudentCount: 25}}
	courses := coursesStub{"AD": {{
		ID: "c1", Name: "Databases", GroupID: strPtr("AD"), TeacherID: strPtr("t1"),
		PracticalHours: 2,
	}}}
	teachers := teachersStub{{ID: "t1", Name: "Dr. A"}}
	rooms := roomsStub{{ID: "lab1", Name: "Lab 1", Capacity: 30, Type: models.RoomPracticalLab}}

	svc := newGenerator(store, groups, courses, teachers, rooms, 1)
	result, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Equal(t, dto.GenerationCompleted, result.Status)
	require.Equal(t, 1, result.Requested)
	require.Equal(t, 1, result.Placed)
	require.Len(t, store.slots, 1)

	slot := store.slots[0]
	require.Equal(t, models.SessionPractical, slot.Kind)
	require.Equal(t, "lab1", slot.RoomID)
	require.Equal(t, "t1", slot.TeacherID)
	require.Equal(t, "AD", slot.GroupID)
	require.Contains(t, models.WeekDays, slot.Day)
}

func TestGenerateWithoutRoomsWipesAndAborts(t *testing.T) {
	store := &memorySchedule{}
	store.slots = []models.Slot{{ID: "stale", GroupID: "AD", Day: "Monday", StartTime: "08:00"}}

	groups := groupsStub{{ID: "AD", StudentCount: 25}}
	courses := coursesStub{"AD": {{ID: "c1", LectureHours: 2, TeacherID: strPtr("t1")}}}

	svc := newGenerator(store, groups, courses, teachersStub{{ID: "t1"}}, roomsStub{}, 1)
	result, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Equal(t, dto.GenerationInsufficientData, result.Status)
	require.Zero(t, result.Placed)
	require.Empty(t, store.slots, "aborted run must leave an empty timetable")
}

func TestGenerateSkipsCoursesWithoutResolvableTeacher(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{{ID: "AD", StudentCount: 20}}
	courses := coursesStub{"AD": {{ID: "c1", Name: "Algo", LectureHours: 2}}}
	rooms := roomsStub{{ID: "r1", Capacity: 40, Type: models.RoomLectureHall}}

	svc := newGenerator(store, groups, courses, teachersStub{}, rooms, 1)
	result, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Equal(t, dto.GenerationCompleted, result.Status)
	require.Zero(t, result.Placed)
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, dto.OutcomeSkippedNoTeacher, result.Outcomes[0].Status)
	require.Empty(t, store.slots)
}

func TestGenerateFallbackTeacherIsStable(t *testing.T) {
	course := models.Course{ID: "c1"}
	teachers := []models.Teacher{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}

	first, ok := resolveTeacher(course, teachers)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := resolveTeacher(course, teachers)
		require.True(t, ok)
		require.Equal(t, first, again)
	}
}

func TestGeneratePlacesGroupsOneAfterAnother(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{
		{ID: "AD", StudentCount: 25},
		{ID: "GI", StudentCount: 30},
	}
	courses := coursesStub{
		"AD": {{ID: "ad-1", GroupID: strPtr("AD"), TeacherID: strPtr("t1"), LectureHours: 2, DirectedHours: 2}},
		"GI": {{ID: "gi-1", GroupID: strPtr("GI"), TeacherID: strPtr("t2"), LectureHours: 2, DirectedHours: 2}},
	}
	teachers := teachersStub{{ID: "t1"}, {ID: "t2"}}
	rooms := roomsStub{
		{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall},
		{ID: "salle", Capacity: 40, Type: models.RoomStandard},
	}

	svc := newGenerator(store, groups, courses, teachers, rooms, 42)
	result, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, result.Placed)
	require.Len(t, store.slots, 4)

	// One group's demand is fully committed before the next group's; the
	// commit order never interleaves groups.
	commitOrder := make([]string, 0, len(store.slots))
	for _, s := range store.slots {
		commitOrder = append(commitOrder, s.GroupID)
	}
	require.Equal(t, []string{"AD", "AD", "GI", "GI"}, commitOrder)

	// Within each group, the lecture is committed before the directed
	// session.
	for _, g := range groups {
		var kinds []string
		for _, s := range store.slots {
			if s.GroupID == g.ID {
				kinds = append(kinds, s.Kind)
			}
		}
		require.Equal(t, []string{models.SessionLecture, models.SessionDirected}, kinds)
	}
}

func TestGenerateNoDoubleBooking(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{
		{ID: "AD", StudentCount: 25},
		{ID: "GI", StudentCount: 30},
	}
	courses := coursesStub{}
	for _, g := range groups {
		var list []models.Course
		for i := 0; i < 3; i++ {
			list = append(list, models.Course{
				ID: fmt.Sprintf("%s-c%d", g.ID, i), Name: fmt.Sprintf("Course %d", i),
				GroupID: strPtr(g.ID), TeacherID: strPtr("t1"),
				LectureHours: 2, DirectedHours: 2, PracticalHours: 2,
			})
		}
		courses[g.ID] = list
	}
	teachers := teachersStub{{ID: "t1"}}
	rooms := roomsStub{
		{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall},
		{ID: "lab", Capacity: 30, Type: models.RoomPracticalLab},
		{ID: "salle", Capacity: 40, Type: models.RoomStandard},
	}

	svc := newGenerator(store, groups, courses, teachers, rooms, 42)
	_, err := svc.Generate(context.Background())
	require.NoError(t, err)

	type key struct{ day, start, id string }
	roomSeen := map[key]bool{}
	teacherSeen := map[key]bool{}
	groupSeen := map[key]bool{}
	for _, s := range store.slots {
		rk := key{s.Day, s.StartTime, s.RoomID}
		require.False(t, roomSeen[rk], "room double booked at %v", rk)
		roomSeen[rk] = true

		tk := key{s.Day, s.StartTime, s.TeacherID}
		require.False(t, teacherSeen[tk], "teacher double booked at %v", tk)
		teacherSeen[tk] = true

		gk := key{s.Day, s.StartTime, s.GroupID}
		require.False(t, groupSeen[gk], "group double booked at %v", gk)
		groupSeen[gk] = true
	}
}

func TestGenerateRespectsDailyCapAndLectureSeparation(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{{ID: "AD", StudentCount: 25}}
	var list []models.Course
	for i := 0; i < 5; i++ {
		list = append(list, models.Course{
			ID: fmt.Sprintf("c%d", i), GroupID: strPtr("AD"), TeacherID: strPtr(fmt.Sprintf("t%d", i)),
			LectureHours: 2, DirectedHours: 2,
		})
	}
	courses := coursesStub{"AD": list}
	teachers := teachersStub{{ID: "t0"}, {ID: "t1"}, {ID: "t2"}, {ID: "t3"}, {ID: "t4"}}
	rooms := roomsStub{
		{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall},
		{ID: "salle1", Capacity: 40, Type: models.RoomStandard},
		{ID: "salle2", Capacity: 40, Type: models.RoomStandard},
	}

	svc := newGenerator(store, groups, courses, teachers, rooms, 7)
	_, err := svc.Generate(context.Background())
	require.NoError(t, err)

	perDay := map[string]int{}
	lectureDays := map[string]string{}
	for _, s := range store.slots {
		perDay[s.Day]++
		if s.Kind == models.SessionLecture {
			lectureDays[s.CourseID] = s.Day
		}
	}
	for day, count := range perDay {
		require.LessOrEqual(t, count*models.SessionHours, models.MaxDailyHours, "daily cap exceeded on %s", day)
	}
	for _, s := range store.slots {
		if s.Kind == models.SessionLecture {
			continue
		}
		if lectureDay, ok := lectureDays[s.CourseID]; ok {
			require.NotEqual(t, lectureDay, s.Day, "course %s has %s on its lecture day", s.CourseID, s.Kind)
		}
	}
}

func TestGenerateDeterministicUnderFixedSeed(t *testing.T) {
	build := func(seed int64) []models.Slot {
		store := &memorySchedule{}
		groups := groupsStub{{ID: "AD", StudentCount: 25}, {ID: "GI", StudentCount: 28}}
		courses := coursesStub{
			"AD": {
				{ID: "ad-1", GroupID: strPtr("AD"), TeacherID: strPtr("t1"), LectureHours: 2, DirectedHours: 2},
				{ID: "ad-2", GroupID: strPtr("AD"), TeacherID: strPtr("t2"), LectureHours: 2, PracticalHours: 2},
			},
			"GI": {
				{ID: "gi-1", GroupID: strPtr("GI"), TeacherID: strPtr("t1"), LectureHours: 2},
				{ID: "gi-2", GroupID: strPtr("GI"), LectureHours: 2, DirectedHours: 4},
			},
		}
		teachers := teachersStub{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}
		rooms := roomsStub{
			{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall},
			{ID: "lab", Capacity: 30, Type: models.RoomPracticalLab},
			{ID: "salle", Capacity: 40, Type: models.RoomStandard},
		}
		svc := newGenerator(store, groups, courses, teachers, rooms, seed)
		_, err := svc.Generate(context.Background())
		require.NoError(t, err)
		return store.slots
	}

	first := build(99)
	second := build(99)
	require.Equal(t, first, second, "same seed must rebuild the identical timetable")
}

func TestGenerateMoreDemandNeverPlacesFewer(t *testing.T) {
	run := func(directedHours int) int {
		store := &memorySchedule{}
		groups := groupsStub{{ID: "AD", StudentCount: 25}}
		courses := coursesStub{"AD": {{
			ID: "c1", GroupID: strPtr("AD"), TeacherID: strPtr("t1"),
			LectureHours: 2, DirectedHours: directedHours,
		}}}
		teachers := teachersStub{{ID: "t1"}}
		rooms := roomsStub{
			{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall},
			{ID: "salle", Capacity: 40, Type: models.RoomStandard},
		}
		svc := newGenerator(store, groups, courses, teachers, rooms, 5)
		result, err := svc.Generate(context.Background())
		require.NoError(t, err)
		return result.Placed
	}

	prev := run(0)
	for hours := 2; hours <= 8; hours += 2 {
		placed := run(hours)
		require.GreaterOrEqual(t, placed, prev, "placing fewer sessions with more demand at %d hours", hours)
		prev = placed
	}
}

func TestGenerateCapacityLimitedDropsOverflow(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{{ID: "AD", StudentCount: 25}}
	// 8 sessions requested but one room and the daily cap of 3 sessions
	// leave at most 15 windows; the cap of 3 per day still binds first.
	var list []models.Course
	for i := 0; i < 8; i++ {
		list = append(list, models.Course{
			ID: fmt.Sprintf("c%d", i), GroupID: strPtr("AD"), TeacherID: strPtr("t1"),
			LectureHours: 2,
		})
	}
	courses := coursesStub{"AD": list}
	teachers := teachersStub{{ID: "t1"}}
	rooms := roomsStub{{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall}}

	svc := newGenerator(store, groups, courses, teachers, rooms, 3)
	result, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Equal(t, dto.GenerationCompleted, result.Status)
	require.Equal(t, 8, result.Requested)
	require.LessOrEqual(t, result.Placed, 8)
	require.Equal(t, result.Placed, len(store.slots))

	unplaced := 0
	for _, o := range result.Outcomes {
		if o.Status == dto.OutcomeUnplaced {
			unplaced = unplaced + 1
		}
	}
	require.Equal(t, result.Requested-result.Placed, unplaced)
}

func TestGenerateOddHoursRoundUp(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{{ID: "AD", StudentCount: 25}}
	courses := coursesStub{"AD": {{
		ID: "c1", GroupID: strPtr("AD"), TeacherID: strPtr("t1"), LectureHours: 3,
	}}}
	teachers := teachersStub{{ID: "t1"}}
	rooms := roomsStub{{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall}}

	svc := newGenerator(store, groups, courses, teachers, rooms, 1)
	result, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Requested, "3 weekly hours expand to two 2-hour sessions")
}

func TestGenerateRerunReplacesPreviousTimetable(t *testing.T) {
	store := &memorySchedule{}
	groups := groupsStub{{ID: "AD", StudentCount: 25}}
	courses := coursesStub{"AD": {{
		ID: "c1", GroupID: strPtr("AD"), TeacherID: strPtr("t1"), LectureHours: 2,
	}}}
	teachers := teachersStub{{ID: "t1"}}
	rooms := roomsStub{{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall}}

	svc := newGenerator(store, groups, courses, teachers, rooms, 1)
	_, err := svc.Generate(context.Background())
	require.NoError(t, err)
	_, err = svc.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, store.slots, 1, "rerun must not accumulate slots")
}

type lockerStub struct {
	held     bool
	acquired int
	released int
}

func (l *lockerStub) TryAcquire(ctx context.Context) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	l.acquired++
	return true, nil
}

func (l *lockerStub) Release(ctx context.Context) error {
	l.held = false
	l.released++
	return nil
}

func TestGenerateRejectsConcurrentRun(t *testing.T) {
	store := &memorySchedule{}
	locker := &lockerStub{held: true}
	svc := NewGeneratorService(store, groupsStub{}, coursesStub{}, teachersStub{}, roomsStub{}, zap.NewNop(),
		WithRand(rand.New(rand.NewSource(1))), WithRunLocker(locker))

	_, err := svc.Generate(context.Background())
	require.ErrorIs(t, err, appErrors.ErrRunInProgress)
	require.Empty(t, store.slots)
}

func TestGenerateReleasesLockAfterRun(t *testing.T) {
	store := &memorySchedule{}
	locker := &lockerStub{}
	groups := groupsStub{{ID: "AD", StudentCount: 25}}
	courses := coursesStub{"AD": {{ID: "c1", GroupID: strPtr("AD"), TeacherID: strPtr("t1"), LectureHours: 2}}}
	rooms := roomsStub{{ID: "amphi", Capacity: 100, Type: models.RoomLectureHall}}

	svc := NewGeneratorService(store, groups, courses, teachersStub{{ID: "t1"}}, rooms, zap.NewNop(),
		WithRand(rand.New(rand.NewSource(1))), WithRunLocker(locker))

	_, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, locker.acquired)
	require.Equal(t, 1, locker.released)
	require.False(t, locker.held)
}
