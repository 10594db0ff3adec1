package approval

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
	"Document No", "Title", "Category", "Status", "Amount",
	"Current Line", "Submitted At", "Completed At",
}

// ExportToExcel renders a request listing as an xlsx workbook for
// download. Lines are flattened to the active position only; the full
// chain stays an API concern.
func ExportToExcel(requests []Request) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Approvals"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	timeOrBlank := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04:05")
	}

	for rowIdx, req := range requests {
		values := []interface{}{
			req.DocumentNumber,
			req.Title,
			req.CategoryID,
			string(req.Status),
			"",
			req.CurrentLineOrder,
			timeOrBlank(req.SubmittedAt),
			timeOrBlank(req.CompletedAt),
		}
		if req.Amount != nil {
			values[4] = *req.Amount
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("approvals_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}
