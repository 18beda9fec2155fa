package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportParticipation renders the monthly participation table as an XLSX
// workbook. It returns the file name and contents.
func (s *ParticipationService) ExportParticipation(ctx context.Context, q ParticipationQuery) (string, []byte, error) {
	report, err := s.Report(ctx, q)
	if err != nil {
		return "", nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := fmt.Sprintf("%d-%02d", report.Year, int(report.Month))
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Заголовок
	title := fmt.Sprintf("Participation %s %d", report.Month, report.Year)
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.MergeCell(sheetName, "A1", "C1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "C1", titleStyle)

	headers := []string{"Member", "Bookings", "Participation %"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, row := range report.Rows {
		r := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", r), row.Bookings)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), row.ParticipationRate)
	}

	summary := len(report.Rows) + 4
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", summary), "Weekdays")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", summary), report.Weekdays)
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", summary+1), "Total slots")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", summary+1), report.TotalSlots)

	_ = f.SetColWidth(sheetName, "A", "A", 28)
	_ = f.SetColWidth(sheetName, "B", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "C", 18)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("error writing workbook: %w", err)
	}

	fileName := fmt.Sprintf("participation_%d-%02d.xlsx", report.Year, int(report.Month))
	s.logger.Info().Str("file", fileName).Int("rows", len(report.Rows)).Msg("Participation workbook created")
	return fileName, buf.Bytes(), nil
}
