package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/edgarfacts/pkg/models"
)

const sheetName = "Metrics"

// XLSX writes the table as an Excel workbook with a single Metrics
// sheet. idx and metric_value land as native numbers, everything else
// as text.
type XLSX struct {
	path      string
	ancillary []string
}

// NewXLSX builds an XLSX exporter targeting path, with ancillary
// columns in the given order.
func NewXLSX(path string, ancillary []string) *XLSX {
	return &XLSX{path: path, ancillary: ancillary}
}

// Export writes the table to the configured path.
func (e *XLSX) Export(table *models.MetricTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	attrCols := table.AttrColumns()

	header := headers(attrCols, e.ancillary)
	if err := writeSheetRow(f, 1, stringCells(header)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range table.Rows {
		cells := []interface{}{
			i,
			row.Company,
			row.CIK,
			row.MetricName,
			row.MetricValue,
			formatDate(row.Context.PrimaryDate),
			formatDate(row.Context.SecondaryDate),
			row.Context.EntityQualifier,
		}
		for _, col := range attrCols {
			cells = append(cells, row.Attrs[col])
		}
		for _, field := range e.ancillary {
			cells = append(cells, row.Ancillary[field])
		}
		if err := writeSheetRow(f, i+2, cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if err := ensureParentDir(e.path); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("saving %s: %w", e.path, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, rowNum int, cells []interface{}) error {
	addr, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, addr, &cells)
}

func stringCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
