package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the spreadsheet limit on sheet names.
const maxSheetName = 31

// XLSXExporter renders tables as a single-sheet workbook with a bold, frozen header row.
type XLSXExporter struct {
	sheet string
}

// NewXLSXExporter constructs a workbook exporter writing to the named sheet.
func NewXLSXExporter(sheet string) *XLSXExporter {
	if sheet == "" {
		sheet = "Sheet1"
	}
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	return &XLSXExporter{sheet: sheet}
}

// Render writes the title on the first row, the headers on the second and the data below.
func (e *XLSXExporter) Render(table Table) ([]byte, error) {
	if err := table.check(); err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer file.Close()
	if err := file.SetSheetName("Sheet1", e.sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	if table.Title != "" {
		if err := file.SetCellValue(e.sheet, "A1", table.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		row++
	}
	headerRow := row
	if err := e.writeRow(file, row, table.headers()); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(table.Columns), headerRow)
	if err := file.SetCellStyle(e.sheet, first, last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}
	if err := file.SetPanes(e.sheet, &excelize.Panes{Freeze: true, YSplit: headerRow, TopLeftCell: fmt.Sprintf("A%d", headerRow+1), ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	for i, cells := range table.Rows {
		if err := e.writeRow(file, headerRow+1+i, cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for i, col := range table.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		weight := col.Weight
		if weight <= 0 {
			weight = 1
		}
		if err := file.SetColWidth(e.sheet, name, name, 12*weight); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *XLSXExporter) writeRow(file *excelize.File, row int, cells []string) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, cell := range cells {
		values[i] = cell
	}
	return file.SetSheetRow(e.sheet, start, &values)
}
