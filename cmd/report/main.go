// Command report runs the pivot pipeline against a local file and writes
// the CSV export, for use in scripts and scheduled jobs where the HTTP
// service is overkill.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vispulse/internal/config"
	"vispulse/internal/dataprocessing"
	"vispulse/internal/exporter"
	"vispulse/internal/infrastructure"
	"vispulse/internal/services"
)

func main() {
	var (
		inPath    = flag.String("in", "", "input file (.csv or .xlsx)")
		delimiter = flag.String("delimiter", ";", "CSV delimiter: ';' ',' 'tab' or '|'")
		year      = flag.Int("year", 0, "filter by year")
		quarter   = flag.String("quarter", "", "filter by quarter (Q1..Q4)")
		client    = flag.String("client", "", "filter by client")
		outPath   = flag.String("out", "", "output file (default: timestamped name next to the input)")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: report -in <file.csv|file.xlsx> [-delimiter ';'] [-year N] [-quarter Qn] [-client NAME] [-out FILE]")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  level,
		Format: "text",
		Output: "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(logger, *inPath, *delimiter, *year, *quarter, *client, *outPath); err != nil {
		logger.Error("report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, inPath, delimiter string, year int, quarter, client, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	format := services.FormatCSV
	if strings.EqualFold(filepath.Ext(inPath), ".xlsx") {
		format = services.FormatXLSX
	}

	cfg := config.Default()
	svc := services.NewReportService(cfg, logger, nil)

	result, err := svc.Generate(context.Background(), services.GenerateInput{
		Data:      data,
		Format:    format,
		Delimiter: delimiter,
		Filter: dataprocessing.Filter{
			Year:    year,
			Quarter: quarter,
			Client:  client,
		},
	})
	if err != nil {
		return err
	}

	logger.Info("report generated",
		slog.Int("records", result.Preview.RecordCount),
		slog.Int("clients", result.Preview.DistinctClients),
		slog.String("total", result.Preview.TotalDisplay))

	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(inPath), exporter.ReportFileName(time.Now()))
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := exporter.WriteReport(file, result.Report); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	fmt.Println(outPath)
	return nil
}
