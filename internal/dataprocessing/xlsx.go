package dataprocessing

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "vispulse/internal/errors"
)

// DecodeWorkbook reads an Excel export into the same Table shape the CSV
// decoder produces, so the rest of the pipeline does not care which format
// the analyst uploaded. The first sheet whose leading rows contain a
// recognizable header (a date-ish and an amount-ish keyword) wins; when no
// sheet qualifies, the first sheet's first non-empty row is taken as the
// header anyway and schema inference sorts out the rest.
func DecodeWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewDecodeError("workbook contains no sheets", nil)
	}

	rows, headerRow := findHeaderSheet(f, sheets)
	if rows == nil {
		var err error
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, apperrors.NewDecodeError("failed to read workbook sheet", err)
		}
		headerRow = firstNonEmptyRow(rows)
	}
	if headerRow < 0 || headerRow >= len(rows) {
		return nil, apperrors.NewDecodeError("workbook contains no header row", nil)
	}

	headers := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]RawRecord, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		if rowEmpty(row) {
			continue
		}
		record := make(RawRecord, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}

	return &Table{Headers: headers, Records: records}, nil
}

// findHeaderSheet scans every sheet's first rows for a header containing
// both a date-role and an amount-role keyword.
func findHeaderSheet(f *excelize.File, sheets []string) ([][]string, int) {
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		limit := len(rows)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			rowText := strings.ToLower(strings.Join(rows[i], " "))
			dateish := strings.Contains(rowText, "date") || strings.Contains(rowText, "fecha")
			amountish := strings.Contains(rowText, "usd") || strings.Contains(rowText, "total") ||
				strings.Contains(rowText, "amount")
			if dateish && amountish {
				return rows, i
			}
		}
	}
	return nil, -1
}

func firstNonEmptyRow(rows [][]string) int {
	for i, row := range rows {
		if !rowEmpty(row) {
			return i
		}
	}
	return -1
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
