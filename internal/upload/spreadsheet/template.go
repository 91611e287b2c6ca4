package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts
const maxSheetName = 31

// Template builds an .xlsx workbook with a bold header row and one example row
func Template(sheetName string, headers []string, example []string) ([]byte, error) {
	if len(sheetName) > maxSheetName {
		sheetName = sheetName[:maxSheetName]
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	if len(example) > 0 {
		if err := file.SetSheetRow(sheetName, "A2", &example); err != nil {
			return nil, fmt.Errorf("failed to write example row: %w", err)
		}
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, err
	}
	if err := file.SetCellStyle(sheetName, "A1", lastCol+"1", style); err != nil {
		return nil, fmt.Errorf("failed to style headers: %w", err)
	}
	if err := file.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
