package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	apperrors "vispulse/internal/errors"
)

// RawRecord is one input row as a mapping from header name to the raw cell
// value. Headers are unique; insertion order carries no meaning.
type RawRecord map[string]string

// Table is the decoded input: the header row plus one RawRecord per data row.
type Table struct {
	Headers []string
	Records []RawRecord
}

// Delimiters maps the recognized delimiter selections to their rune form.
var Delimiters = map[string]rune{
	";":   ';',
	",":   ',',
	"\t":  '\t',
	"tab": '\t',
	"|":   '|',
}

// DelimiterFor resolves a delimiter selection string. Unknown selections
// return false; the caller decides whether to reject or default.
func DelimiterFor(selection string) (rune, bool) {
	d, ok := Delimiters[selection]
	return d, ok
}

// DecodeTable parses delimited UTF-8 text into headers and records.
// Rows shorter than the header are padded with empty cells; extra cells are
// dropped. A byte buffer that is not valid UTF-8, or one that yields no
// header row, is a decode error that aborts the run.
func DecodeTable(data []byte, delimiter rune) (*Table, error) {
	if !utf8.Valid(data) {
		return nil, apperrors.NewDecodeError("input is not valid UTF-8", nil)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to parse delimited input", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewDecodeError("input contains no rows", nil)
	}

	headers := make([]string, len(rows[0]))
	empty := true
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			empty = false
		}
	}
	if empty {
		return nil, apperrors.NewDecodeError("input header row is empty", nil)
	}

	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(RawRecord, len(headers))
		for i, header := range headers {
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
