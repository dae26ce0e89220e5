package models

import "sort"

// Company identifies one filer: a display name plus its canonical registry
// code (CIK). Immutable reference data supplied by the caller.
type Company struct {
	Name string `json:"name"`
	CIK  string `json:"cik"`
}

// MetricRow is one output row: a fact joined with its decoded context
// dimensions, the filing-level descriptive fields, and the canonical
// (namespace-stripped) metric name. Rows with the same metric name but
// different contexts are distinct and both retained.
type MetricRow struct {
	Company     string            `json:"company"`
	CIK         string            `json:"cik"`
	PeriodLabel string            `json:"period_label"` // target period, YYYY-MM
	FilingType  string            `json:"filing_type"`
	MetricName  string            `json:"metric_name"`
	MetricValue float64           `json:"metric_value"`
	Context     ContextDimensions `json:"context"`
	Attrs       map[string]string `json:"attrs"`               // fact attribute bag
	Ancillary   map[string]string `json:"ancillary,omitempty"` // resolved descriptive fields
}

// MetricTable is an ordered collection of rows. It holds either one
// company's rows (extraction order) or the concatenation of several
// company tables; row position is the only index.
type MetricTable struct {
	Rows []MetricRow `json:"rows"`
}

// Append adds rows to the end of the table.
func (t *MetricTable) Append(rows ...MetricRow) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows.
func (t *MetricTable) Len() int { return len(t.Rows) }

// CompanyRows returns the rows belonging to one registry code, in table
// order. Slicing a concatenated table this way reproduces the per-company
// table exactly.
func (t *MetricTable) CompanyRows(cik string) []MetricRow {
	var rows []MetricRow
	for _, r := range t.Rows {
		if r.CIK == cik {
			rows = append(rows, r)
		}
	}
	return rows
}

// Concat joins per-company tables into one table, preserving table order
// and row order within each table.
func Concat(tables ...*MetricTable) *MetricTable {
	out := &MetricTable{}
	for _, tbl := range tables {
		out.Rows = append(out.Rows, tbl.Rows...)
	}
	return out
}

// AttrColumns returns the sorted union of fact attribute keys across all
// rows. Sorting keeps exported column order deterministic.
func (t *MetricTable) AttrColumns() []string {
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		for k := range r.Attrs {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
