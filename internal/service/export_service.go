package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/export"
)

type exportSlotStore interface {
	ListViewByGroup(ctx context.Context, groupID string) ([]models.SlotView, error)
	ListViewByTeacher(ctx context.Context, teacherID string) ([]models.SlotView, error)
}

// ExportService renders committed timetables as PDF grids or CSV tables.
type ExportService struct {
	slots  exportSlotStore
	pdf    *export.TimetablePDF
	csv    *export.CSVExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(slots exportSlotStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	starts := make([]string, 0, len(models.DailyWindows))
	for _, w := range models.DailyWindows {
		starts = append(starts, w.Start)
	}
	return &ExportService{
		slots:  slots,
		pdf:    export.NewTimetablePDF(models.WeekDays, starts),
		csv:    export.NewCSVExporter(),
		logger: logger,
	}
}

// GroupTimetablePDF renders the weekly grid of one group.
func (s *ExportService) GroupTimetablePDF(ctx context.Context, groupID string) ([]byte, error) {
	views, err := s.slots.ListViewByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group timetable")
	}
	entries := gridEntries(views, func(v models.SlotView) string { return v.TeacherName })
	payload, err := s.pdf.Render(entries, "Weekly Timetable", fmt.Sprintf("Group %s", groupID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}
	return payload, nil
}

// TeacherTimetablePDF renders the weekly grid of one teacher.
func (s *ExportService) TeacherTimetablePDF(ctx context.Context, teacherID, teacherName string) ([]byte, error) {
	views, err := s.slots.ListViewByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher timetable")
	}
	entries := gridEntries(views, func(v models.SlotView) string { return "Group " + v.GroupID })
	subtitle := teacherName
	if subtitle == "" {
		subtitle = teacherID
	}
	payload, err := s.pdf.Render(entries, "Weekly Timetable", subtitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}
	return payload, nil
}

// GroupTimetableCSV renders a group's schedule as a flat CSV table.
func (s *ExportService) GroupTimetableCSV(ctx context.Context, groupID string) ([]byte, error) {
	views, err := s.slots.ListViewByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group timetable")
	}

	dataset := export.Dataset{
		Headers: []string{"day", "start_time", "end_time", "course", "kind", "teacher", "room"},
	}
	for _, v := range views {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"day":        v.Day,
			"start_time": v.StartTime,
			"end_time":   v.EndTime,
			"course":     v.CourseName,
			"kind":       v.Kind,
			"teacher":    v.TeacherName,
			"room":       v.RoomName,
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
	}
	return payload, nil
}

func gridEntries(views []models.SlotView, detail func(models.SlotView) string) []export.GridEntry {
	entries := make([]export.GridEntry, 0, len(views))
	for _, v := range views {
		entries = append(entries, export.GridEntry{
			Day:        v.Day,
			StartTime:  v.StartTime,
			CourseName: v.CourseName,
			Kind:       v.Kind,
			RoomName:   v.RoomName,
			Detail:     detail(v),
		})
	}
	return entries
}
