package dataprocessing

// Filter restricts the normalized records fed to the aggregator. Zero
// values mean "all". Filtering happens before aggregation on purpose:
// rows and quarters left without matching data drop out of the report
// entirely instead of showing as zeros.
type Filter struct {
	Year    int    `json:"year,omitempty"`
	Quarter string `json:"quarter,omitempty"`
	Client  string `json:"client,omitempty"`
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return f.Year == 0 && f.Quarter == "" && f.Client == ""
}

// ApplyFilter returns the records matching the filter. Year and quarter
// conditions only ever match records with a present date; the client
// condition compares the raw client cell.
func ApplyFilter(records []NormalizedRecord, clientColumn string, filter Filter) []NormalizedRecord {
	if filter.IsZero() {
		return records
	}

	filtered := make([]NormalizedRecord, 0, len(records))
	for _, record := range records {
		if filter.Year != 0 && (!record.HasDate || record.Year != filter.Year) {
			continue
		}
		if filter.Quarter != "" && (!record.HasDate || record.Quarter != filter.Quarter) {
			continue
		}
		if filter.Client != "" && record.Raw[clientColumn] != filter.Client {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}
