package dataprocessing

import "fmt"

// DerivePeriods fills in the calendar grouping attributes for every record
// with a present date: year, month number, English month name and quarter
// label (Q1 = Jan–Mar … Q4 = Oct–Dec). Records without a date keep all four
// attributes missing and are excluded from period-keyed aggregation.
//
// The derivation is a pure function of the normalized date, so re-running
// it over already-derived records recomputes identical values.
func DerivePeriods(records []NormalizedRecord) {
	for i := range records {
		if !records[i].HasDate {
			records[i].Year = 0
			records[i].Month = 0
			records[i].MonthName = ""
			records[i].Quarter = ""
			continue
		}
		date := records[i].Date
		records[i].Year = date.Year()
		records[i].Month = int(date.Month())
		records[i].MonthName = date.Month().String()
		records[i].Quarter = fmt.Sprintf("Q%d", (int(date.Month())+2)/3)
	}
}
