package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vispulse/internal/config"
	"vispulse/internal/dataprocessing"
	apperrors "vispulse/internal/errors"
)

const sampleCSV = "Date;Customer Parent;Total USD\n" +
	"15/01/2024;Acme;1.234,56\n" +
	"10/02/2024;Beta;100,00\n" +
	"05/07/2024;Acme;500,00\n"

func newTestService() *ReportService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReportService(config.Default(), logger, nil)
}

func TestGenerate(t *testing.T) {
	svc := newTestService()

	result, err := svc.Generate(context.Background(), GenerateInput{
		Data:      []byte(sampleCSV),
		Format:    FormatCSV,
		Delimiter: ";",
	})
	require.NoError(t, err)

	assert.Equal(t, dataprocessing.Schema{
		DateColumn:   "Date",
		ClientColumn: "Customer Parent",
		AmountColumn: "Total USD",
	}, result.Schema)

	assert.Equal(t, 3, result.Preview.RecordCount)
	assert.Equal(t, 3, result.Preview.DatedRecords)
	assert.Equal(t, 2, result.Preview.DistinctClients)
	assert.InDelta(t, 1834.56, result.Preview.TotalAmount, 1e-9)
	assert.Equal(t, "$0.00M", result.Preview.TotalDisplay)

	require.Len(t, result.Report.Rows, 2)
	assert.Equal(t, "Acme", result.Report.Rows[0].Client)
	assert.InDelta(t, 1734.56, result.Report.Rows[0].AnnualTotal(), 1e-9)

	assert.Equal(t, FilterOptions{
		Years:    []int{2024},
		Quarters: []string{"Q1", "Q3"},
		Clients:  []string{"Acme", "Beta"},
	}, result.FilterOptions)

	require.Len(t, result.Trends.Quarterly, 2)
	assert.Equal(t, "Q1", result.Trends.Quarterly[0].Quarter)
	require.Len(t, result.Trends.TopClients, 2)
	assert.Equal(t, "Acme", result.Trends.TopClients[0].Client)

	// Display table: one line per client plus the total line, every line
	// covering all columns plus the client cell.
	require.Len(t, result.Display, 3)
	assert.Len(t, result.Display[0], len(result.Report.ColumnKeys())+1)
}

func TestGenerateDefaultDelimiter(t *testing.T) {
	svc := newTestService()

	result, err := svc.Generate(context.Background(), GenerateInput{
		Data:   []byte(sampleCSV),
		Format: FormatCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Preview.RecordCount)
}

func TestGenerateUnknownDelimiter(t *testing.T) {
	svc := newTestService()

	_, err := svc.Generate(context.Background(), GenerateInput{
		Data:      []byte(sampleCSV),
		Format:    FormatCSV,
		Delimiter: "#",
	})
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestGenerateNoRecords(t *testing.T) {
	svc := newTestService()

	_, err := svc.Generate(context.Background(), GenerateInput{
		Data:      []byte("Date;Customer Parent;Total USD\n"),
		Format:    FormatCSV,
		Delimiter: ";",
	})
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NO_RECORDS", apiErr.ErrorCode)
}

func TestGenerateWithFilter(t *testing.T) {
	svc := newTestService()

	result, err := svc.Generate(context.Background(), GenerateInput{
		Data:      []byte(sampleCSV),
		Format:    FormatCSV,
		Delimiter: ";",
		Filter:    dataprocessing.Filter{Quarter: "Q1"},
	})
	require.NoError(t, err)

	require.Len(t, result.Report.Rows, 2)
	assert.InDelta(t, 1334.56, result.Report.Total.AnnualTotal(), 1e-9)

	// Option lists and preview stats come from the unfiltered records; only
	// the pivot and trends reflect the selection.
	assert.Equal(t, []string{"Q1", "Q3"}, result.FilterOptions.Quarters)
	assert.Equal(t, 3, result.Preview.RecordCount)
	assert.InDelta(t, 1834.56, result.Preview.TotalAmount, 1e-9)
}

func TestGenerateCaching(t *testing.T) {
	svc := newTestService()
	input := GenerateInput{Data: []byte(sampleCSV), Format: FormatCSV, Delimiter: ";"}

	first, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)

	assert.Same(t, first, second, "second call served from cache")

	// A different filter is a different cache entry.
	filtered, err := svc.Generate(context.Background(), GenerateInput{
		Data:      []byte(sampleCSV),
		Format:    FormatCSV,
		Delimiter: ";",
		Filter:    dataprocessing.Filter{Client: "Acme"},
	})
	require.NoError(t, err)
	assert.NotSame(t, first, filtered)
}

func TestGenerateCacheExpiry(t *testing.T) {
	cfg := config.Default()
	cfg.Report.CacheTTL = time.Nanosecond
	svc := NewReportService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	input := GenerateInput{Data: []byte(sampleCSV), Format: FormatCSV, Delimiter: ";"}

	first, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	second, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "expired entry recomputed")
}

func TestExport(t *testing.T) {
	svc := newTestService()

	body, name, err := svc.Export(context.Background(), GenerateInput{
		Data:      []byte(sampleCSV),
		Format:    FormatCSV,
		Delimiter: ";",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^reporte_visibility_\d{8}_\d{4}\.csv$`, name)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, body[:3])
	assert.Contains(t, string(body), "Acme")
	assert.Contains(t, string(body), "1734.56")
}
