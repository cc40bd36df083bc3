package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

var leadHeaders = []string{
	"ID", "Name", "Contact", "Department", "Status", "Priority", "Outcome",
	"Assigned To", "Completed By", "Message", "Internal Note",
	"Created At", "Updated At", "Completed At",
}

func leadRow(lead models.Lead) []string {
	return []string{
		lead.ID,
		lead.Name,
		lead.Contact,
		lead.Department,
		lead.Status,
		lead.Priority,
		lead.Outcome,
		lead.AssigneeName,
		lead.CompletedBy,
		lead.Message,
		lead.InternalNote,
		lead.CreatedAt,
		lead.UpdatedAt,
		lead.CompletedAt,
	}
}

// LeadsExcel renders the given leads as an .xlsx workbook.
func LeadsExcel(leads []models.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leads"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, header := range leadHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to map header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, lead := range leads {
		for colIdx, value := range leadRow(lead) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to map data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range leadHeaders {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to map column: %w", err)
		}
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// LeadsCSV renders the given leads as CSV.
func LeadsCSV(leads []models.Lead) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(leadHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for _, lead := range leads {
		if err := writer.Write(leadRow(lead)); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

// Filename builds a download filename for the given format and row count.
func Filename(format, timestamp string, count int) string {
	return fmt.Sprintf("leads-%s-%d.%s", timestamp, count, format)
}
