// Package dataprocessing turns loosely-structured tabular revenue exports
// into a normalized, period-bucketed pivot report.
//
// # Architecture
//
// The package is organized as a pipeline of small, pure stages:
//
// 1. Decode: delimited bytes (or an Excel workbook) → headers + RawRecords
// 2. Schema inference: heuristic mapping of date/client/amount columns
// 3. Normalization: locale-tolerant date and amount coercion
// 4. Period derivation: year / month / month name / quarter grouping keys
// 5. Aggregation: the client × quarter/month pivot with subtotals
//
// # Usage
//
//	table, err := dataprocessing.DecodeTable(data, ';')
//	if err != nil {
//	    return err
//	}
//	schema := dataprocessing.InferSchema(table.Headers)
//	records := dataprocessing.NewRecords(table)
//	if err := dataprocessing.NormalizeDates(records, schema.DateColumn); err != nil {
//	    return err
//	}
//	if err := dataprocessing.NormalizeAmounts(records, schema.AmountColumn); err != nil {
//	    return err
//	}
//	dataprocessing.DerivePeriods(records)
//	report, err := dataprocessing.Aggregate(table.Headers, records, schema)
//
// # Error Handling
//
// Setup-level failures (undecodable input, a configured column missing from
// the header set) return errors naming the cause. Per-cell parse failures
// never do: an unparseable date or amount becomes Missing and is excluded
// from or zero-filled in aggregation. A single malformed cell must not
// invalidate an entire report.
//
// Every stage is a pure function of its input, so re-running the pipeline
// on identical bytes yields an identical report.
package dataprocessing
