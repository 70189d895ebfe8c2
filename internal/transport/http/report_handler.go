package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"vispulse/internal/dataprocessing"
	apierrors "vispulse/internal/errors"
	"vispulse/internal/services"
)

// ReportServiceInterface is the service surface the handler depends on
type ReportServiceInterface interface {
	Generate(ctx context.Context, input services.GenerateInput) (*services.ReportResult, error)
	Export(ctx context.Context, input services.GenerateInput) ([]byte, string, error)
}

// ReportHandler handles report HTTP requests with RFC 7807 error responses
type ReportHandler struct {
	service        ReportServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *ReportHandler {
	return &ReportHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "report_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.GenerateReport)
	r.Post("/export", h.ExportReport)

	return r
}

// reportRequest carries the decode and filter options accompanying an
// upload. The delimiter is validated by the service against its known set,
// so only the filter fields carry rules here.
type reportRequest struct {
	Delimiter string `validate:"omitempty,max=3"`
	Year      int    `validate:"omitempty,gte=1900,lte=2200"`
	Quarter   string `validate:"omitempty,oneof=Q1 Q2 Q3 Q4"`
	Client    string `validate:"omitempty,max=256"`
}

// GenerateReport handles POST /api/reports
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Generate(r.Context(), *input)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// ExportReport handles POST /api/reports/export, answering with a CSV
// attachment under the timestamped download name.
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	body, name, err := h.service.Export(r.Context(), *input)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// parseRequest accepts either a multipart form with a "file" part or a raw
// delimited body, plus the delimiter and filter options as form or query
// values.
func (h *ReportHandler) parseRequest(r *http.Request) (*services.GenerateInput, error) {
	var (
		data     []byte
		filename string
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, apierrors.InvalidRequestWithError(err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, apierrors.ErrValidation("file", "file part is required")
		}
		defer file.Close()

		data, err = readUpload(file, h.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		filename = header.Filename
	} else {
		body, err := readUpload(r.Body, h.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, apierrors.ErrValidation("body", "request body is required")
		}
		data = body
	}

	req := reportRequest{
		Delimiter: formValue(r, "delimiter"),
		Quarter:   formValue(r, "quarter"),
		Client:    formValue(r, "client"),
	}
	if yearValue := formValue(r, "year"); yearValue != "" {
		year, err := strconv.Atoi(yearValue)
		if err != nil {
			return nil, apierrors.ErrValidation("year", "year must be an integer")
		}
		req.Year = year
	}

	if err := h.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	return &services.GenerateInput{
		Data:      data,
		Format:    formatFor(filename),
		Delimiter: req.Delimiter,
		Filter: dataprocessing.Filter{
			Year:    req.Year,
			Quarter: req.Quarter,
			Client:  req.Client,
		},
	}, nil
}

// formValue reads a value from the parsed form, falling back to the query
// string for raw-body requests.
func formValue(r *http.Request, key string) string {
	if r.MultipartForm != nil {
		if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return r.URL.Query().Get(key)
}

// formatFor picks the input format from the uploaded file name. Raw bodies
// have no name and default to CSV.
func formatFor(filename string) services.InputFormat {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return services.FormatXLSX
	}
	return services.FormatCSV
}

func readUpload(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	if int64(len(data)) > limit {
		return nil, apierrors.New(http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
			fmt.Sprintf("Upload exceeds the %d byte limit", limit))
	}
	return data, nil
}

// validationError converts validator errors into a field-level APIError
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return apierrors.ErrValidation(strings.ToLower(first.Field()),
			fmt.Sprintf("failed %q validation", first.Tag()))
	}
	return apierrors.InvalidRequestWithError(err)
}
