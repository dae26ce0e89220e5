// Package export writes a finished metric table to disk. Column layout
// is fixed: a contiguous idx from row position, the row identity and
// decoded context columns, the sorted union of raw fact attribute keys
// across all rows, then the ancillary fields in configured order. Two
// runs over the same table produce identical files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/seenimoa/edgarfacts/internal/config"
	"github.com/seenimoa/edgarfacts/pkg/models"
)

// Exporter writes a finished metric table to its destination.
type Exporter interface {
	Export(table *models.MetricTable) error
}

// ForConfig selects the exporter for the configured output format.
func ForConfig(out config.OutputConfig, ancillaryFields []string) (Exporter, error) {
	switch out.Format {
	case "csv":
		return NewCSV(out.Path, ancillaryFields), nil
	case "xlsx":
		return NewXLSX(out.Path, ancillaryFields), nil
	default:
		return nil, fmt.Errorf("output format %q not supported", out.Format)
	}
}

func headers(attrCols, ancillary []string) []string {
	cols := []string{"idx", "company", "cik", "metric_name", "metric_value",
		"primary_date", "secondary_date", "entity_qualifier"}
	cols = append(cols, attrCols...)
	cols = append(cols, ancillary...)
	return cols
}

func record(idx int, row models.MetricRow, attrCols, ancillary []string) []string {
	rec := []string{
		strconv.Itoa(idx),
		row.Company,
		row.CIK,
		row.MetricName,
		strconv.FormatFloat(row.MetricValue, 'f', -1, 64),
		formatDate(row.Context.PrimaryDate),
		formatDate(row.Context.SecondaryDate),
		row.Context.EntityQualifier,
	}
	for _, col := range attrCols {
		rec = append(rec, row.Attrs[col])
	}
	for _, field := range ancillary {
		rec = append(rec, row.Ancillary[field])
	}
	return rec
}

func formatDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format("2006-01-02")
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
