package registrations

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/evolve-africa/backend/internal/models"
)

const exportSheet = "Registered Users"

// exportTimeFormat is the human-readable timestamp written to the
// Registration Date column.
const exportTimeFormat = "1/2/2006, 3:04:05 PM"

var exportHeaders = []interface{}{
	"First Name", "Last Name", "Email", "Phone",
	"Location", "Course of Interest", "Selected Session", "Registration Date",
}

// buildWorkbook renders registrations into an xlsx workbook, one row per
// record plus a header row.
func buildWorkbook(regs []models.Registration) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "A", "B", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "C", "C", 30); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "D", "H", 25); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}

	for i, reg := range regs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			reg.FirstName, reg.LastName, reg.Email, reg.Phone,
			reg.Location, reg.CourseOfInterest, reg.SelectedSession,
			reg.CreatedAt.Format(exportTimeFormat),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}
