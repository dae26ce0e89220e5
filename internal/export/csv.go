package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/seenimoa/edgarfacts/pkg/models"
)

// CSV writes the table as a comma-separated file.
type CSV struct {
	path      string
	ancillary []string
}

// NewCSV builds a CSV exporter targeting path, with ancillary columns
// in the given order.
func NewCSV(path string, ancillary []string) *CSV {
	return &CSV{path: path, ancillary: ancillary}
}

// Export writes the table to the configured path, header row first.
func (e *CSV) Export(table *models.MetricTable) error {
	if err := ensureParentDir(e.path); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", e.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	attrCols := table.AttrColumns()
	if err := w.Write(headers(attrCols, e.ancillary)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range table.Rows {
		if err := w.Write(record(i, row, attrCols, e.ancillary)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", e.path, err)
	}
	return nil
}
