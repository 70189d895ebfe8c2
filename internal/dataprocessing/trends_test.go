package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyTrend(t *testing.T) {
	records := []NormalizedRecord{
		pivotRecord("Acme", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 30),
		pivotRecord("Beta", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 10),
		pivotRecord("Acme", time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC), 5),
		pivotRecord("Acme", time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), 99),
		{Raw: RawRecord{"Customer Parent": "Acme"}, Amount: 1000, HasAmount: true},
	}

	points := MonthlyTrend(records)
	require.Len(t, points, 3)

	assert.Equal(t, MonthlyPoint{Year: 2023, Month: 12, MonthName: "December", Total: 99}, points[0])
	assert.Equal(t, MonthlyPoint{Year: 2024, Month: 1, MonthName: "January", Total: 15}, points[1])
	assert.Equal(t, MonthlyPoint{Year: 2024, Month: 3, MonthName: "March", Total: 30}, points[2])
}

func TestQuarterlyTotals(t *testing.T) {
	records := []NormalizedRecord{
		pivotRecord("Acme", time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC), 40),
		pivotRecord("Acme", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 10),
		pivotRecord("Beta", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 15),
	}

	points := QuarterlyTotals(records)
	require.Len(t, points, 2, "absent quarters are omitted")

	assert.Equal(t, QuarterPoint{Quarter: "Q1", Total: 25}, points[0])
	assert.Equal(t, QuarterPoint{Quarter: "Q4", Total: 40}, points[1])
}

func TestTopClients(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	records := []NormalizedRecord{
		pivotRecord("Small", jan, 1),
		pivotRecord("Big", jan, 100),
		pivotRecord("Mid", jan, 50),
		pivotRecord("Big", jan, 100),
	}

	t.Run("sorted descending and capped", func(t *testing.T) {
		shares := TopClients(records, "Customer Parent", 2)
		require.Len(t, shares, 2)
		assert.Equal(t, ClientShare{Client: "Big", Total: 200}, shares[0])
		assert.Equal(t, ClientShare{Client: "Mid", Total: 50}, shares[1])
	})

	t.Run("n larger than client count returns all", func(t *testing.T) {
		shares := TopClients(records, "Customer Parent", 10)
		assert.Len(t, shares, 3)
	})

	t.Run("empty records", func(t *testing.T) {
		assert.Empty(t, TopClients(nil, "Customer Parent", 5))
	})
}
