package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"locker-tab-backend/internal/model"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the only sheet in the workbook.
const SheetName = "History"

// HistoryHeader is the first row of the sheet.
var HistoryHeader = []string{"Box", "Borrowed", "Returned"}

// History renders a user's borrow history as an xlsx workbook. Records that
// are still open leave the Returned cell empty; a record that was offered but
// never confirmed leaves Borrowed empty too.
func History(user string, records []model.HistoryRecord) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(HistoryHeader))
	for i, h := range HistoryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "C", 20); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, r := range records {
		row := i + 2
		values := []interface{}{r.BoxNumber, deref(r.StartTime), deref(r.EndTime)}
		for col, v := range values {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if user != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Creator: user, Title: "Locker history"}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set properties: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
