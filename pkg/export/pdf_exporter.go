package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// GridEntry is a single timetable cell to render.
type GridEntry struct {
	Day        string
	StartTime  string
	CourseName string
	Kind       string
	RoomName   string
	Detail     string
}

// TimetablePDF renders a weekly timetable grid on A4 landscape.
type TimetablePDF struct {
	Days       []string
	StartTimes []string
}

// NewTimetablePDF returns a renderer for the standard Monday-Friday week and
// the four daily start times.
func NewTimetablePDF(days, startTimes []string) *TimetablePDF {
	return &TimetablePDF{Days: days, StartTimes: startTimes}
}

const (
	gridColWidth   = 51.0
	hourColWidth   = 22.0
	gridRowHeight  = 30.0
	gridHeadHeight = 10.0
	gridMarginLeft = 10.0
	gridStartY     = 40.0
)

// Render draws the entries into a weekly grid under the given title and
// subtitle and returns the PDF bytes.
func (e *TimetablePDF) Render(entries []GridEntry, title, subtitle string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	e.drawHeader(pdf, title, subtitle)

	pdf.SetXY(gridMarginLeft+hourColWidth, gridStartY)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(107, 93, 211)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(107, 93, 211)
	for _, day := range e.Days {
		pdf.CellFormat(gridColWidth, gridHeadHeight, day, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(gridHeadHeight)

	yBase := pdf.GetY()
	for i, start := range e.StartTimes {
		pdf.SetXY(gridMarginLeft, yBase+float64(i)*gridRowHeight)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(241, 245, 249)
		pdf.SetTextColor(71, 85, 105)
		pdf.SetDrawColor(226, 232, 240)
		pdf.CellFormat(hourColWidth, gridRowHeight, start, "1", 0, "C", true, 0, "")

		for _, day := range e.Days {
			x, y := pdf.GetXY()

			pdf.SetFillColor(255, 255, 255)
			pdf.SetDrawColor(230, 230, 230)
			pdf.CellFormat(gridColWidth, gridRowHeight, "", "1", 0, "", true, 0, "")

			if entry := findEntry(entries, day, start); entry != nil {
				e.drawCard(pdf, x+1, y+1, gridColWidth-2, gridRowHeight-2, *entry)
			}

			pdf.SetXY(x+gridColWidth, y)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render timetable pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *TimetablePDF) drawHeader(pdf *gofpdf.Fpdf, title, subtitle string) {
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(0, 0, 297, 35, "F")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(107, 93, 211)
	pdf.SetXY(10, 10)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(10, 20)
	pdf.CellFormat(0, 5, fmt.Sprintf("%s - %s", subtitle, time.Now().Format("02/01/2006")), "", 1, "C", false, 0, "")

	pdf.SetDrawColor(107, 93, 211)
	pdf.SetLineWidth(0.5)
	pdf.Line(10, 32, 287, 32)
}

func (e *TimetablePDF) drawCard(pdf *gofpdf.Fpdf, x, y, w, h float64, entry GridEntry) {
	var accentR, accentG, accentB int
	var bgR, bgG, bgB int
	switch {
	case strings.Contains(entry.Kind, "PRACTICAL"):
		accentR, accentG, accentB = 147, 51, 234
		bgR, bgG, bgB = 250, 245, 255
	case strings.Contains(entry.Kind, "DIRECTED"):
		accentR, accentG, accentB = 16, 185, 129
		bgR, bgG, bgB = 240, 253, 244
	default:
		accentR, accentG, accentB = 59, 130, 246
		bgR, bgG, bgB = 239, 246, 255
	}

	pdf.SetFillColor(bgR, bgG, bgB)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, w, h, "FD")

	pdf.SetFillColor(accentR, accentG, accentB)
	pdf.Rect(x, y, 2, h, "F")

	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetTextColor(accentR, accentG, accentB)
	pdf.SetXY(x+4, y+2)
	pdf.CellFormat(w-6, 4, entry.Kind, "", 1, "", false, 0, "")

	name := entry.CourseName
	if len(name) > 25 {
		name = name[:25] + ".."
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(30, 41, 59)
	pdf.SetXY(x+4, y+7)
	pdf.CellFormat(w-6, 5, name, "", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(x+4, y+13)
	pdf.CellFormat(w-6, 4, entry.Detail, "", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(71, 85, 105)
	pdf.SetXY(x+4, y+20)
	pdf.CellFormat(w-6, 4, "ROOM: "+entry.RoomName, "", 1, "", false, 0, "")
}

func findEntry(entries []GridEntry, day, start string) *GridEntry {
	for i := range entries {
		if entries[i].Day == day && entries[i].StartTime == start {
			return &entries[i]
		}
	}
	return nil
}
