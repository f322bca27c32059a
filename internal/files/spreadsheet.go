package files

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"wardRecords/models"
)

// Row is one spreadsheet record keyed by the header row.
type Row map[string]string

// SheetDecoder turns a stored spreadsheet into records.
type SheetDecoder interface {
	Decode(path, mimeType string) ([]Row, error)
}

// Spreadsheets decodes the first sheet of XLSX and legacy XLS workbooks.
type Spreadsheets struct{}

// Decode reads the first sheet; the first row supplies field names and
// rows with no values are skipped.
func (Spreadsheets) Decode(path, mimeType string) (rows []Row, err error) {
	// The XLS reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("decode %s: %v", path, r)
		}
	}()

	var grid [][]string
	switch normalizeType(mimeType) {
	case models.MIMESpreadsheetXLSX:
		grid, err = readXLSX(path)
	case models.MIMESpreadsheetXLS:
		grid, err = readXLS(path)
	default:
		return nil, fmt.Errorf("not a spreadsheet type: %q", mimeType)
	}
	if err != nil {
		return nil, err
	}
	return rowsFromGrid(grid), nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// xlsMaxCols is the BIFF8 column limit, used for rows stored without a ROW record.
const xlsMaxCols = 256

func readXLS(path string) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}
	rows := make([]*xls.Row, int(sheet.MaxRow)+1)
	width := 0
	for i := range rows {
		rows[i] = sheetRow(sheet, i)
		if rows[i] != nil && rows[i].LastCol() > width {
			width = rows[i].LastCol()
		}
	}
	if width == 0 {
		width = xlsMaxCols
	}
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		last := row.LastCol()
		if last == 0 {
			last = width
		}
		cells := make([]string, last)
		for c := row.FirstCol(); c < last; c++ {
			cells[c] = row.Col(c)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// sheetRow returns row i, or nil when the sheet has no such row.
// WorkSheet.Row dereferences the missing row.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func rowsFromGrid(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}
	header := grid[0]
	var out []Row
	for _, line := range grid[1:] {
		row := Row{}
		for i, cell := range line {
			if cell == "" {
				continue
			}
			key := ""
			if i < len(header) {
				key = header[i]
			}
			if key == "" {
				key = "column_" + strconv.Itoa(i+1)
			}
			row[key] = cell
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}
