package dataprocessing

import (
	"strconv"
	"strings"
	"time"

	apperrors "vispulse/internal/errors"
)

// NormalizedRecord is a RawRecord plus the coerced date and amount and the
// calendar attributes derived from the date. The Has* flags are the explicit
// Missing state: an unparseable cell sets the flag false and the value to
// its zero, which aggregation treats as "excluded" (date) or "adds zero"
// (amount). Missing is distinct from an actual zero amount.
type NormalizedRecord struct {
	Raw RawRecord

	Date    time.Time
	HasDate bool

	Amount    float64
	HasAmount bool

	// Derived by DerivePeriods; all zero-valued while HasDate is false.
	Year      int
	Month     int
	MonthName string
	Quarter   string
}

// NewRecords wraps a decoded table's rows for normalization.
func NewRecords(table *Table) []NormalizedRecord {
	records := make([]NormalizedRecord, len(table.Records))
	for i, raw := range table.Records {
		records[i] = NormalizedRecord{Raw: raw}
	}
	return records
}

// Day-first layouts are tried before anything else: the upstream exports
// write DD/MM/YYYY, so an ambiguous 05/03/2024 must read as 5 March.
var dayFirstFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
}

// genericFormats is the locale-agnostic fallback for values no day-first
// layout accepts.
var genericFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"2 January 2006",
}

// NormalizeDates coerces the date column of every record in place. Cells
// that fail every layout become Missing; only a missing column is an error.
func NormalizeDates(records []NormalizedRecord, dateColumn string) error {
	if err := requireColumn(records, dateColumn); err != nil {
		return err
	}

	for i := range records {
		raw := strings.TrimSpace(records[i].Raw[dateColumn])
		if raw == "" {
			continue
		}
		if date, ok := parseDate(raw); ok {
			records[i].Date = date
			records[i].HasDate = true
		}
	}
	return nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dayFirstFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	for _, layout := range genericFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeAmounts coerces the amount column of every record in place.
//
// The column-level decision mirrors the source system's two numeric forms:
// when every non-empty cell already parses as a plain float the column is
// taken as machine-formatted and used verbatim; otherwise the column is
// treated as European-formatted text and each cell is rewritten by
// stripping "." (thousands separator), turning "," into the decimal point
// and dropping spaces before parsing. Applying the rewrite per cell instead
// of per column would corrupt plain values like "1234.56", and applying no
// rewrite would corrupt "1.234,56" — the order and the column-level choice
// both matter.
//
// Cells that still fail to parse become Missing; only a missing column is
// an error.
func NormalizeAmounts(records []NormalizedRecord, amountColumn string) error {
	if err := requireColumn(records, amountColumn); err != nil {
		return err
	}

	plain := true
	seen := false
	for i := range records {
		raw := strings.TrimSpace(records[i].Raw[amountColumn])
		if raw == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			plain = false
			break
		}
	}

	for i := range records {
		raw := strings.TrimSpace(records[i].Raw[amountColumn])
		if raw == "" {
			continue
		}
		value := raw
		if seen && !plain {
			value = rewriteEuropeanAmount(raw)
		}
		if amount, err := strconv.ParseFloat(value, 64); err == nil {
			records[i].Amount = amount
			records[i].HasAmount = true
		}
	}
	return nil
}

// rewriteEuropeanAmount turns "1.234,56" into "1234.56". Stripping the dots
// first is what keeps the comma-to-dot replacement from corrupting values
// with both separators.
func rewriteEuropeanAmount(raw string) string {
	value := strings.ReplaceAll(raw, ".", "")
	value = strings.ReplaceAll(value, ",", ".")
	value = strings.ReplaceAll(value, " ", "")
	return value
}

// requireColumn surfaces a schema mismatch when the configured column is
// absent from the rows. An empty record set has nothing to check.
func requireColumn(records []NormalizedRecord, column string) error {
	if len(records) == 0 {
		return nil
	}
	if _, ok := records[0].Raw[column]; !ok {
		return apperrors.NewSchemaMismatchError(column)
	}
	return nil
}
