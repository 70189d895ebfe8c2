package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDerivePeriods(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		year    int
		month   int
		monthNm string
		quarter string
	}{
		{name: "january opens Q1", date: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), year: 2024, month: 1, monthNm: "January", quarter: "Q1"},
		{name: "march closes Q1", date: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), year: 2024, month: 3, monthNm: "March", quarter: "Q1"},
		{name: "april opens Q2", date: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), year: 2024, month: 4, monthNm: "April", quarter: "Q2"},
		{name: "september closes Q3", date: time.Date(2023, time.September, 30, 0, 0, 0, 0, time.UTC), year: 2023, month: 9, monthNm: "September", quarter: "Q3"},
		{name: "december closes Q4", date: time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC), year: 2024, month: 12, monthNm: "December", quarter: "Q4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []NormalizedRecord{{Date: tt.date, HasDate: true}}
			DerivePeriods(records)

			assert.Equal(t, tt.year, records[0].Year)
			assert.Equal(t, tt.month, records[0].Month)
			assert.Equal(t, tt.monthNm, records[0].MonthName)
			assert.Equal(t, tt.quarter, records[0].Quarter)
		})
	}

	t.Run("missing date clears derived fields", func(t *testing.T) {
		records := []NormalizedRecord{{Year: 2020, Month: 6, MonthName: "June", Quarter: "Q2"}}
		DerivePeriods(records)

		assert.Zero(t, records[0].Year)
		assert.Zero(t, records[0].Month)
		assert.Empty(t, records[0].MonthName)
		assert.Empty(t, records[0].Quarter)
	})

	t.Run("idempotent", func(t *testing.T) {
		records := []NormalizedRecord{{Date: time.Date(2024, time.August, 9, 0, 0, 0, 0, time.UTC), HasDate: true}}
		DerivePeriods(records)
		first := records[0]
		DerivePeriods(records)
		assert.Equal(t, first, records[0])
	})
}
