// Package exporter renders pivot report tables as CSV downloads with the
// two-row quarter/month header layout analysts expect to open in Excel.
package exporter
