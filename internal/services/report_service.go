package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"vispulse/internal/config"
	"vispulse/internal/dataprocessing"
	apperrors "vispulse/internal/errors"
	"vispulse/internal/exporter"
	"vispulse/internal/infrastructure"
)

// InputFormat identifies the upload format
type InputFormat string

const (
	FormatCSV  InputFormat = "csv"
	FormatXLSX InputFormat = "xlsx"
)

// GenerateInput is one report request: the raw upload plus the options
// controlling decoding and filtering.
type GenerateInput struct {
	Data      []byte
	Format    InputFormat
	Delimiter string
	Filter    dataprocessing.Filter
}

// Preview summarizes the normalized input before pivoting
type Preview struct {
	RecordCount     int     `json:"record_count"`
	DatedRecords    int     `json:"dated_records"`
	DistinctClients int     `json:"distinct_clients"`
	TotalAmount     float64 `json:"total_amount"`
	TotalDisplay    string  `json:"total_display"`
}

// FilterOptions lists the filter values present in the input
type FilterOptions struct {
	Years    []int    `json:"years"`
	Quarters []string `json:"quarters"`
	Clients  []string `json:"clients"`
}

// Trends bundles the chart series derived from the filtered records
type Trends struct {
	Monthly    []dataprocessing.MonthlyPoint `json:"monthly"`
	Quarterly  []dataprocessing.QuarterPoint `json:"quarterly"`
	TopClients []dataprocessing.ClientShare  `json:"top_clients"`
}

// ReportResult is everything one pipeline run produces
type ReportResult struct {
	Schema        dataprocessing.Schema       `json:"schema"`
	Preview       Preview                     `json:"preview"`
	Report        *dataprocessing.ReportTable `json:"report"`
	Display       [][]string                  `json:"display"`
	FilterOptions FilterOptions               `json:"filter_options"`
	Trends        Trends                      `json:"trends"`
}

// ReportService runs the decode-normalize-pivot pipeline and caches results
// by input digest so repeated requests for the same upload (typically the
// report view followed by the export download) only pay for one run.
type ReportService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	group   singleflight.Group
	cacheMu sync.Mutex
	cache   map[string]cacheEntry
}

type cacheEntry struct {
	result  *ReportResult
	expires time.Time
}

// NewReportService creates a report service
func NewReportService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.Metrics) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]cacheEntry),
	}
}

// Generate runs the full pipeline for the given input. Results are cached
// for the configured TTL; concurrent requests for the same input share one
// pipeline run.
func (s *ReportService) Generate(ctx context.Context, input GenerateInput) (*ReportResult, error) {
	key := s.cacheKey(input)

	if result, ok := s.cached(key); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return result, nil
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		if result, ok := s.cached(key); ok {
			return result, nil
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}

		result, err := s.run(ctx, input)
		if err != nil {
			return nil, err
		}

		s.cacheMu.Lock()
		s.cache[key] = cacheEntry{result: result, expires: time.Now().Add(s.cfg.Report.CacheTTL)}
		s.cacheMu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*ReportResult), nil
}

// Export generates the report and renders it as a CSV download, returning
// the body and the timestamped file name.
func (s *ReportService) Export(ctx context.Context, input GenerateInput) ([]byte, string, error) {
	result, err := s.Generate(ctx, input)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := exporter.WriteReport(&buf, result.Report); err != nil {
		return nil, "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), exporter.ReportFileName(time.Now()), nil
}

// run executes one uncached pipeline pass
func (s *ReportService) run(ctx context.Context, input GenerateInput) (*ReportResult, error) {
	start := time.Now()
	logger := s.logger
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	table, err := s.decode(input)
	if err != nil {
		s.fail("decode")
		return nil, err
	}
	if len(table.Records) == 0 {
		s.fail("decode")
		return nil, apperrors.NoRecordsError()
	}

	schema := dataprocessing.InferSchema(table.Headers)
	logger.InfoContext(ctx, "schema inferred",
		slog.String("date_column", schema.DateColumn),
		slog.String("client_column", schema.ClientColumn),
		slog.String("amount_column", schema.AmountColumn),
		slog.Int("records", len(table.Records)))

	records := dataprocessing.NewRecords(table)
	if err := dataprocessing.NormalizeDates(records, schema.DateColumn); err != nil {
		s.fail("normalize")
		return nil, err
	}
	if err := dataprocessing.NormalizeAmounts(records, schema.AmountColumn); err != nil {
		s.fail("normalize")
		return nil, err
	}
	dataprocessing.DerivePeriods(records)
	if s.metrics != nil {
		s.metrics.RecordsProcessed.Add(float64(len(records)))
	}

	options := filterOptions(records, schema.ClientColumn)
	filtered := dataprocessing.ApplyFilter(records, schema.ClientColumn, input.Filter)

	report, err := dataprocessing.Aggregate(table.Headers, filtered, schema)
	if err != nil {
		s.fail("aggregate")
		return nil, err
	}

	result := &ReportResult{
		Schema:        schema,
		Preview:       buildPreview(records, schema.ClientColumn),
		Report:        report,
		Display:       displayTable(report),
		FilterOptions: options,
		Trends: Trends{
			Monthly:    dataprocessing.MonthlyTrend(filtered),
			Quarterly:  dataprocessing.QuarterlyTotals(filtered),
			TopClients: dataprocessing.TopClients(filtered, schema.ClientColumn, s.cfg.Report.TopClients),
		},
	}

	if s.metrics != nil {
		s.metrics.ReportsGenerated.WithLabelValues(string(input.Format)).Inc()
		s.metrics.PipelineDuration.WithLabelValues(string(input.Format)).Observe(time.Since(start).Seconds())
	}
	logger.InfoContext(ctx, "report generated",
		slog.Int("clients", len(report.Rows)),
		slog.String("duration", time.Since(start).String()))

	return result, nil
}

func (s *ReportService) decode(input GenerateInput) (*dataprocessing.Table, error) {
	if input.Format == FormatXLSX {
		return dataprocessing.DecodeWorkbook(input.Data)
	}

	selection := input.Delimiter
	if selection == "" {
		selection = s.cfg.Report.DefaultDelimiter
	}
	delimiter, ok := dataprocessing.DelimiterFor(selection)
	if !ok {
		return nil, apperrors.ErrValidation("delimiter", fmt.Sprintf("unsupported delimiter %q", selection))
	}
	return dataprocessing.DecodeTable(input.Data, delimiter)
}

func (s *ReportService) fail(stage string) {
	if s.metrics != nil {
		s.metrics.ReportsFailed.WithLabelValues(stage).Inc()
	}
}

func (s *ReportService) cached(key string) (*ReportResult, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.result, true
}

func (s *ReportService) cacheKey(input GenerateInput) string {
	digest := sha256.Sum256(input.Data)
	return fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		hex.EncodeToString(digest[:]),
		input.Format,
		input.Delimiter,
		input.Filter.Year,
		input.Filter.Quarter,
		input.Filter.Client,
	)
}

// buildPreview summarizes the whole upload. Like the filter option lists it
// is computed before filtering: the metric cards describe the file, the
// pivot describes the selection.
func buildPreview(records []dataprocessing.NormalizedRecord, clientColumn string) Preview {
	dated := 0
	total := 0.0
	for _, r := range records {
		if r.HasDate {
			dated++
		}
		total += r.Amount
	}

	clients := lo.Uniq(lo.Map(records, func(r dataprocessing.NormalizedRecord, _ int) string {
		return r.Raw[clientColumn]
	}))

	return Preview{
		RecordCount:     len(records),
		DatedRecords:    dated,
		DistinctClients: len(clients),
		TotalAmount:     total,
		TotalDisplay:    dataprocessing.FormatMillions(total),
	}
}

// filterOptions collects the year, quarter and client values the UI can
// offer, from the unfiltered records so narrowing one filter does not hide
// the others.
func filterOptions(records []dataprocessing.NormalizedRecord, clientColumn string) FilterOptions {
	dated := lo.Filter(records, func(r dataprocessing.NormalizedRecord, _ int) bool {
		return r.HasDate
	})

	years := lo.Uniq(lo.Map(dated, func(r dataprocessing.NormalizedRecord, _ int) int {
		return r.Year
	}))
	sort.Ints(years)

	quarters := lo.Uniq(lo.Map(dated, func(r dataprocessing.NormalizedRecord, _ int) string {
		return r.Quarter
	}))
	sort.Strings(quarters)

	clients := lo.Uniq(lo.Map(records, func(r dataprocessing.NormalizedRecord, _ int) string {
		return r.Raw[clientColumn]
	}))
	sort.Strings(clients)

	return FilterOptions{
		Years:    years,
		Quarters: quarters,
		Clients:  clients,
	}
}

// displayTable renders the report with FormatThousands applied to every
// cell, the shape the on-screen table uses.
func displayTable(report *dataprocessing.ReportTable) [][]string {
	keys := report.ColumnKeys()
	rows := make([][]string, 0, len(report.Rows)+1)
	for _, row := range report.Rows {
		rows = append(rows, displayLine(row, keys))
	}
	rows = append(rows, displayLine(report.Total, keys))
	return rows
}

func displayLine(row dataprocessing.ReportRow, keys []dataprocessing.ColumnKey) []string {
	line := make([]string, 0, len(keys)+1)
	line = append(line, row.Client)
	for _, key := range keys {
		line = append(line, dataprocessing.FormatThousands(row.Cell(key.Group, key.Leaf)))
	}
	return line
}
