package dataprocessing

import (
	"sort"
	"time"
)

// MonthlyPoint is one point of the monthly revenue trend series.
type MonthlyPoint struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Total     float64 `json:"total"`
}

// QuarterPoint is one bar of the quarterly comparison series.
type QuarterPoint struct {
	Quarter string  `json:"quarter"`
	Total   float64 `json:"total"`
}

// ClientShare is one slice of the client revenue distribution.
type ClientShare struct {
	Client string  `json:"client"`
	Total  float64 `json:"total"`
}

// MonthlyTrend sums amounts per (year, month) over present-date records,
// in chronological order. Missing amounts add zero.
func MonthlyTrend(records []NormalizedRecord) []MonthlyPoint {
	type key struct {
		year  int
		month int
	}
	sums := make(map[key]float64)
	for _, record := range records {
		if !record.HasDate {
			continue
		}
		sums[key{record.Year, record.Month}] += record.Amount
	}

	points := make([]MonthlyPoint, 0, len(sums))
	for k, total := range sums {
		points = append(points, MonthlyPoint{
			Year:      k.year,
			Month:     k.month,
			MonthName: monthName(k.month),
			Total:     total,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points
}

// QuarterlyTotals sums amounts per quarter over present-date records, in
// Q1..Q4 order; quarters with no data are omitted.
func QuarterlyTotals(records []NormalizedRecord) []QuarterPoint {
	sums := make(map[string]float64)
	for _, record := range records {
		if !record.HasDate {
			continue
		}
		sums[record.Quarter] += record.Amount
	}

	points := make([]QuarterPoint, 0, len(sums))
	for _, quarter := range quarterOrder {
		if total, ok := sums[quarter]; ok {
			points = append(points, QuarterPoint{Quarter: quarter, Total: total})
		}
	}
	return points
}

// TopClients sums amounts per client over present-date records and returns
// the top n by total, descending, ties in first-seen order.
func TopClients(records []NormalizedRecord, clientColumn string, n int) []ClientShare {
	sums := make(map[string]float64)
	var order []string
	for _, record := range records {
		if !record.HasDate {
			continue
		}
		client := record.Raw[clientColumn]
		if _, ok := sums[client]; !ok {
			order = append(order, client)
		}
		sums[client] += record.Amount
	}

	shares := make([]ClientShare, 0, len(order))
	for _, client := range order {
		shares = append(shares, ClientShare{Client: client, Total: sums[client]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total > shares[j].Total
	})
	if n > 0 && len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}
