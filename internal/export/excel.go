package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Excel renders the table as a single-sheet workbook. The title and subtitle
// take the first rows; the header row follows with a frozen pane below it.
func Excel[T any](t Table[T]) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	row := 1
	if t.Title != "" {
		if err := setRow(f, sheet, row, []string{t.Title}); err != nil {
			return nil, err
		}
		row++
	}
	if t.Subtitle != "" {
		if err := setRow(f, sheet, row, []string{t.Subtitle}); err != nil {
			return nil, err
		}
		row++
	}
	if row > 1 {
		row++
	}

	headers := t.headers()
	headerRow := row
	if err := setRow(f, sheet, headerRow, headers); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, cells := range t.cells() {
		if err := setRow(f, sheet, headerRow+1+i, cells); err != nil {
			return nil, err
		}
	}

	for i, w := range t.widths() {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w*1.4); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: first[:1] + fmt.Sprint(headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// sheetName trims a title to Excel's 31 character sheet name limit
func sheetName(title string) string {
	if title == "" {
		return "Laporan"
	}
	out := make([]rune, 0, 31)
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	return string(out)
}
