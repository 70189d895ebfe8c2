package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"vispulse/internal/dataprocessing"
)

// bom is the UTF-8 byte order mark, written so Excel opens the export with
// the right encoding.
var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteReport renders the pivot table as delimited text: a two-row
// quarter/month header followed by one row per client and the closing
// grand-total row. Cell values are written unrounded; rounding is a display
// concern the consumer owns.
func WriteReport(w io.Writer, table *dataprocessing.ReportTable) error {
	if _, err := w.Write(bom); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	keys := table.ColumnKeys()

	groupRow := make([]string, 0, len(keys)+1)
	leafRow := make([]string, 0, len(keys)+1)
	groupRow = append(groupRow, "")
	leafRow = append(leafRow, "Client")
	for _, key := range keys {
		groupRow = append(groupRow, key.Group)
		leafRow = append(leafRow, key.Leaf)
	}

	if err := writer.Write(groupRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.Write(leafRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range table.Rows {
		if err := writer.Write(reportLine(row, keys)); err != nil {
			return fmt.Errorf("failed to write row for %q: %w", row.Client, err)
		}
	}
	if err := writer.Write(reportLine(table.Total, keys)); err != nil {
		return fmt.Errorf("failed to write total row: %w", err)
	}

	writer.Flush()
	return writer.Error()
}

func reportLine(row dataprocessing.ReportRow, keys []dataprocessing.ColumnKey) []string {
	line := make([]string, 0, len(keys)+1)
	line = append(line, row.Client)
	for _, key := range keys {
		line = append(line, dataprocessing.FormatExact(row.Cell(key.Group, key.Leaf)))
	}
	return line
}

// ReportFileName builds the download name for an export generated at the
// given moment, e.g. reporte_visibility_20240115_0930.csv.
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("reporte_visibility_%s.csv", now.Format("20060102_1504"))
}

// WriteReportFile writes the report into dir under the timestamped name and
// returns the full path.
func WriteReportFile(dir string, table *dataprocessing.ReportTable, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, ReportFileName(now))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteReport(file, table); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return path, nil
}
