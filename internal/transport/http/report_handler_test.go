package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vispulse/internal/config"
	apierrors "vispulse/internal/errors"
	"vispulse/internal/infrastructure"
	"vispulse/internal/services"
)

const sampleCSV = "Date;Customer Parent;Total USD\n" +
	"15/01/2024;Acme;1.234,56\n" +
	"10/02/2024;Beta;100,00\n"

func newTestHandler() *ReportHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	svc := services.NewReportService(cfg, logger, nil)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return NewReportHandler(svc, logger, errorHandler, cfg.Report.MaxUploadBytes)
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestGenerateReport(t *testing.T) {
	handler := newTestHandler()

	t.Run("multipart upload", func(t *testing.T) {
		body, contentType := multipartBody(t, "export.csv", []byte(sampleCSV), map[string]string{
			"delimiter": ";",
		})
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var result services.ReportResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "Total USD", result.Schema.AmountColumn)
		assert.Equal(t, 2, result.Preview.RecordCount)
		assert.Len(t, result.Report.Rows, 2)

		// The report rows carry the unrounded cell values on the wire.
		var payload struct {
			Report struct {
				Rows []struct {
					Client string    `json:"client"`
					Values []float64 `json:"values"`
				} `json:"rows"`
				Total struct {
					Values []float64 `json:"values"`
				} `json:"total"`
			} `json:"report"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		require.Len(t, payload.Report.Rows, 2)
		assert.Equal(t, "Acme", payload.Report.Rows[0].Client)
		assert.Contains(t, payload.Report.Rows[0].Values, 1234.56)
		require.NotEmpty(t, payload.Report.Total.Values)
		grand := payload.Report.Total.Values[len(payload.Report.Total.Values)-1]
		assert.InDelta(t, 1334.56, grand, 1e-9)
	})

	t.Run("raw body with query params", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/?client=Acme", strings.NewReader(sampleCSV))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var result services.ReportResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result.Report.Rows, 1)
		assert.Equal(t, "Acme", result.Report.Rows[0].Client)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	})

	t.Run("invalid quarter rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/?quarter=Q5", strings.NewReader(sampleCSV))
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid year rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/?year=banana", strings.NewReader(sampleCSV))
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("undecodable input yields 422", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte{0xff, 0xfe}))
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var problem map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, "/errors/report/decode-failed", problem["type"])
	})

	t.Run("header only input yields no-records problem", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("Date;Customer Parent;Total USD\n"))
		rec := httptest.NewRecorder()

		handler.GenerateReport(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var problem map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, "/errors/report/no-records", problem["type"])
	})

	t.Run("oversized upload rejected", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		cfg := config.Default()
		small := NewReportHandler(
			services.NewReportService(cfg, logger, nil),
			logger,
			apierrors.NewErrorHandler(logger, false),
			8,
		)

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(sampleCSV))
		rec := httptest.NewRecorder()

		small.GenerateReport(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestExportReport(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(sampleCSV))
	rec := httptest.NewRecorder()

	handler.ExportReport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Regexp(t, `attachment; filename="reporte_visibility_\d{8}_\d{4}\.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, rec.Body.String(), "Acme")
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, services.FormatCSV, formatFor(""))
	assert.Equal(t, services.FormatCSV, formatFor("export.csv"))
	assert.Equal(t, services.FormatXLSX, formatFor("export.xlsx"))
	assert.Equal(t, services.FormatXLSX, formatFor("EXPORT.XLSX"))
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler("1.2.3")

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "1.2.3", resp["version"])
}

// Error responses keep the trace id when the request carries one.
func TestProblemCarriesTraceID(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(infrastructure.WithTraceID(context.Background(), "trace-1"))
	rec := httptest.NewRecorder()

	handler.GenerateReport(rec, req)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "trace-1", problem["trace_id"])
}
