package data

import (
	"sort"
	"strings"

	"github.com/sawpanic/signalrun/internal/fault"
)

// Row maps column names to raw string cells. Cells are never parsed or
// inspected at this layer.
type Row map[string]string

// Dataset is the tabular input as loaded: the ordered header plus one
// Row per data record, in file order.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// Validate enforces the structural contract: at least one data row,
// then presence of every required column. Emptiness is checked first,
// so an empty file with missing columns reports the emptiness.
func (d *Dataset) Validate(required ...string) error {
	if len(d.Rows) == 0 {
		return fault.New(fault.EmptyDataset, "Empty input file")
	}

	have := make(map[string]bool, len(d.Columns))
	for _, col := range d.Columns {
		have[col] = true
	}

	missing := make([]string, 0, len(required))
	for _, col := range required {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fault.New(fault.MissingColumns,
			"Missing required columns in dataset: [%s]", strings.Join(missing, " "))
	}

	return nil
}
