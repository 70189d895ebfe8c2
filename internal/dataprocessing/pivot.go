package dataprocessing

import (
	"encoding/json"
	"sort"
	"time"

	apperrors "vispulse/internal/errors"
)

// Column group and leaf labels used by the pivot. TotalGroup carries the
// single AnnualLeaf column; every quarter group carries its month leaves
// plus a TotalLeaf subtotal.
const (
	TotalGroup = "Total"
	TotalLeaf  = "Total"
	AnnualLeaf = "Anual"
	TotalRow   = "Total"
)

var quarterOrder = []string{"Q1", "Q2", "Q3", "Q4"}

// ColumnKey addresses one cell column in the two-level header hierarchy:
// Group is a quarter label or TotalGroup, Leaf is a month name, TotalLeaf
// or AnnualLeaf.
type ColumnKey struct {
	Group string `json:"group"`
	Leaf  string `json:"leaf"`
}

// ColumnGroup describes one outer header cell and its ordered leaves.
// Modeling the hierarchy as an explicit ordered descriptor list keeps
// subtotal placement and the omission of absent quarters structural
// rather than incidental.
type ColumnGroup struct {
	Name   string   `json:"name"`
	Leaves []string `json:"leaves"`
}

// ReportRow is one client row of the pivot. Cells is keyed by ColumnKey and
// zero-filled: a missing key means the column does not exist in this table,
// not that the cell is empty.
type ReportRow struct {
	Client string
	Cells  map[ColumnKey]float64
}

// Cell returns the value at (group, leaf), 0 when the column is absent.
func (r ReportRow) Cell(group, leaf string) float64 {
	return r.Cells[ColumnKey{Group: group, Leaf: leaf}]
}

// AnnualTotal is the row's ("Total","Anual") cell.
func (r ReportRow) AnnualTotal() float64 {
	return r.Cell(TotalGroup, AnnualLeaf)
}

// Values flattens the row's cells in the given column order.
func (r ReportRow) Values(keys []ColumnKey) []float64 {
	values := make([]float64, len(keys))
	for i, key := range keys {
		values[i] = r.Cells[key]
	}
	return values
}

// ReportTable is the pivot result: client rows against the quarter/month
// column hierarchy, with quarter subtotals, an annual grand-total column
// and a trailing synthetic Total row. Rows excludes the Total row and is
// sorted by annual total descending, stable on ties.
type ReportTable struct {
	Columns []ColumnGroup
	Rows    []ReportRow
	Total   ReportRow
}

// reportRowJSON is the wire shape of a row: the client name and the cell
// values flattened in column order, for zipping with the column descriptors.
type reportRowJSON struct {
	Client string    `json:"client"`
	Values []float64 `json:"values"`
}

// MarshalJSON emits every row and the Total row with their unrounded cell
// values as slices aligned with the flattened columns, since the cell map
// itself does not have a useful JSON form.
func (t *ReportTable) MarshalJSON() ([]byte, error) {
	keys := t.ColumnKeys()
	rows := make([]reportRowJSON, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = reportRowJSON{Client: row.Client, Values: row.Values(keys)}
	}
	return json.Marshal(struct {
		Columns []ColumnGroup   `json:"columns"`
		Rows    []reportRowJSON `json:"rows"`
		Total   reportRowJSON   `json:"total"`
	}{
		Columns: t.Columns,
		Rows:    rows,
		Total:   reportRowJSON{Client: t.Total.Client, Values: t.Total.Values(keys)},
	})
}

// ColumnKeys returns the flattened, ordered cell columns of the table.
func (t *ReportTable) ColumnKeys() []ColumnKey {
	var keys []ColumnKey
	for _, group := range t.Columns {
		for _, leaf := range group.Leaves {
			keys = append(keys, ColumnKey{Group: group.Name, Leaf: leaf})
		}
	}
	return keys
}

// Aggregate builds the pivot report from normalized records.
//
// Records without a date are excluded entirely; records with a date but a
// missing amount contribute zero. Clients appear in the table only when at
// least one of their records has a date, and quarters wholly absent from
// the data are omitted as column groups instead of showing as all zeros.
// The client and amount columns must exist in the input headers — a column
// the schema inferrer defaulted to that is not actually present fails here
// with an error naming it.
func Aggregate(headers []string, records []NormalizedRecord, schema Schema) (*ReportTable, error) {
	if !containsHeader(headers, schema.ClientColumn) {
		return nil, apperrors.NewSchemaMismatchError(schema.ClientColumn)
	}
	if !containsHeader(headers, schema.AmountColumn) {
		return nil, apperrors.NewSchemaMismatchError(schema.AmountColumn)
	}

	type cellKey struct {
		client  string
		quarter string
		month   string
	}

	sums := make(map[cellKey]float64)
	monthsByQuarter := make(map[string]map[string]bool)
	var clientOrder []string
	seenClient := make(map[string]bool)

	for _, record := range records {
		if !record.HasDate {
			continue
		}
		client := record.Raw[schema.ClientColumn]
		if !seenClient[client] {
			seenClient[client] = true
			clientOrder = append(clientOrder, client)
		}

		amount := 0.0
		if record.HasAmount {
			amount = record.Amount
		}
		sums[cellKey{client: client, quarter: record.Quarter, month: record.MonthName}] += amount

		if monthsByQuarter[record.Quarter] == nil {
			monthsByQuarter[record.Quarter] = make(map[string]bool)
		}
		monthsByQuarter[record.Quarter][record.MonthName] = true
	}

	// Column hierarchy: present quarters in Q1..Q4 order, each with its
	// present months in calendar order plus a subtotal leaf, then the
	// annual grand-total group.
	var columns []ColumnGroup
	for _, quarter := range quarterOrder {
		months, ok := monthsByQuarter[quarter]
		if !ok {
			continue
		}
		group := ColumnGroup{Name: quarter}
		for m := time.January; m <= time.December; m++ {
			if months[m.String()] {
				group.Leaves = append(group.Leaves, m.String())
			}
		}
		group.Leaves = append(group.Leaves, TotalLeaf)
		columns = append(columns, group)
	}
	columns = append(columns, ColumnGroup{Name: TotalGroup, Leaves: []string{AnnualLeaf}})

	table := &ReportTable{Columns: columns}

	rows := make([]ReportRow, 0, len(clientOrder))
	for _, client := range clientOrder {
		row := ReportRow{Client: client, Cells: make(map[ColumnKey]float64)}
		annual := 0.0
		for _, group := range columns {
			if group.Name == TotalGroup {
				continue
			}
			subtotal := 0.0
			for _, leaf := range group.Leaves {
				if leaf == TotalLeaf {
					continue
				}
				value := sums[cellKey{client: client, quarter: group.Name, month: leaf}]
				row.Cells[ColumnKey{Group: group.Name, Leaf: leaf}] = value
				subtotal += value
			}
			row.Cells[ColumnKey{Group: group.Name, Leaf: TotalLeaf}] = subtotal
			annual += subtotal
		}
		row.Cells[ColumnKey{Group: TotalGroup, Leaf: AnnualLeaf}] = annual
		rows = append(rows, row)
	}

	// Descending by annual total; ties keep input encounter order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AnnualTotal() > rows[j].AnnualTotal()
	})
	table.Rows = rows

	// The Total row is the column-wise sum of every client row, computed
	// after the annual column so its own annual cell equals the grand sum.
	total := ReportRow{Client: TotalRow, Cells: make(map[ColumnKey]float64)}
	for _, key := range table.ColumnKeys() {
		sum := 0.0
		for _, row := range rows {
			sum += row.Cells[key]
		}
		total.Cells[key] = sum
	}
	table.Total = total

	return table, nil
}
