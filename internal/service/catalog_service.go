package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

type roomStore interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

type teacherStore interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type groupStore interface {
	ListAll(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
}

type courseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages the scheduling inputs: rooms, teachers, groups
// and courses.
type CatalogService struct {
	rooms     roomStore
	teachers  teacherStore
	groups    groupStore
	courses   courseStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(rooms roomStore, teachers teacherStore, groups groupStore, courses courseStore, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{rooms: rooms, teachers: teachers, groups: groups, courses: courses, validator: validate, logger: logger}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	totalPages := (total + size - 1) / size
	return &models.Pagination{Page: page, PageSize: size, Total: total, TotalPages: totalPages}
}

// ListRooms returns rooms with pagination metadata.
func (s *CatalogService) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetRoom loads one room.
func (s *CatalogService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch room")
	}
	return room, nil
}

// CreateRoom validates and inserts a room.
func (s *CatalogService) CreateRoom(ctx context.Context, req dto.UpsertRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{ID: req.ID, Name: req.Name, Capacity: req.Capacity, Type: req.Type}
	if req.Equipment != "" {
		room.Equipment = &req.Equipment
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

// UpdateRoom validates and updates a room.
func (s *CatalogService) UpdateRoom(ctx context.Context, id string, req dto.UpsertRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Name = req.Name
	room.Capacity = req.Capacity
	room.Type = req.Type
	room.Equipment = nil
	if req.Equipment != "" {
		room.Equipment = &req.Equipment
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// DeleteRoom removes a room.
func (s *CatalogService) DeleteRoom(ctx context.Context, id string) error {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	return nil
}

// ListTeachers returns teachers with pagination metadata.
func (s *CatalogService) ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetTeacher loads one teacher.
func (s *CatalogService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	return teacher, nil
}

// CreateTeacher validates and inserts a teacher.
func (s *CatalogService) CreateTeacher(ctx context.Context, req dto.UpsertTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{ID: req.ID, Name: req.Name, Email: req.Email}
	if req.Department != "" {
		teacher.Department = &req.Department
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// UpdateTeacher validates and updates a teacher.
func (s *CatalogService) UpdateTeacher(ctx context.Context, id string, req dto.UpsertTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	teacher.Name = req.Name
	teacher.Email = req.Email
	teacher.Department = nil
	if req.Department != "" {
		teacher.Department = &req.Department
	}
	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// DeleteTeacher removes a teacher.
func (s *CatalogService) DeleteTeacher(ctx context.Context, id string) error {
	if _, err := s.GetTeacher(ctx, id); err != nil {
		return err
	}
	if err := s.teachers.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// ListGroups returns every group.
func (s *CatalogService) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// GetGroup loads one group.
func (s *CatalogService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch group")
	}
	return group, nil
}

// CreateGroup validates and inserts a group.
func (s *CatalogService) CreateGroup(ctx context.Context, req dto.UpsertGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	if _, err := s.groups.FindByID(ctx, req.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a group with this id already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing group")
	}
	group := &models.Group{ID: req.ID, Name: req.Name, StudentCount: req.StudentCount}
	if req.Track != "" {
		group.Track = &req.Track
	}
	if req.Semester != "" {
		group.Semester = &req.Semester
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// UpdateGroup validates and updates a group.
func (s *CatalogService) UpdateGroup(ctx context.Context, id string, req dto.UpsertGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	group.Name = req.Name
	group.StudentCount = req.StudentCount
	group.Track = nil
	if req.Track != "" {
		group.Track = &req.Track
	}
	group.Semester = nil
	if req.Semester != "" {
		group.Semester = &req.Semester
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return group, nil
}

// DeleteGroup removes a group.
func (s *CatalogService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.GetGroup(ctx, id); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	return nil
}

// ListCourses returns courses with pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetCourse loads one course.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}
	return course, nil
}

// CreateCourse validates and inserts a course.
func (s *CatalogService) CreateCourse(ctx context.Context, req dto.UpsertCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		ID:             req.ID,
		Name:           req.Name,
		Code:           req.Code,
		LectureHours:   req.LectureHours,
		DirectedHours:  req.DirectedHours,
		PracticalHours: req.PracticalHours,
	}
	if req.GroupID != "" {
		course.GroupID = &req.GroupID
	}
	if req.TeacherID != "" {
		course.TeacherID = &req.TeacherID
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// UpdateCourse validates and updates a course.
func (s *CatalogService) UpdateCourse(ctx context.Context, id string, req dto.UpsertCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Name = req.Name
	course.Code = req.Code
	course.LectureHours = req.LectureHours
	course.DirectedHours = req.DirectedHours
	course.PracticalHours = req.PracticalHours
	course.GroupID = nil
	if req.GroupID != "" {
		course.GroupID = &req.GroupID
	}
	course.TeacherID = nil
	if req.TeacherID != "" {
		course.TeacherID = &req.TeacherID
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// DeleteCourse removes a course.
func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
