// Package fixed implements a normalize.Loader over inline row data declared
// directly in the project document, for lookup tables and reference data
// small enough not to warrant an external source.
package fixed

import (
	"context"
	"fmt"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

// Loader returns the entity's declared Values verbatim as a Table, ordered
// by entity.Columns if set, or by the union of keys seen across rows
// otherwise.
type Loader struct{}

// New returns a fixed-data loader.
func New() *Loader {
	return &Loader{}
}

// Load implements normalize.Loader.
func (l *Loader) Load(_ context.Context, entity *normalize.EntityConfig, _ normalize.DataSourceConfig) (*normalize.Table, error) {
	if entity.Type != "fixed" {
		return nil, fmt.Errorf("fixed loader invoked for entity %q of type %q", entity.Name, entity.Type)
	}

	cols := entity.Columns
	if len(cols) == 0 {
		cols = columnUnion(entity.Values)
	}

	table := normalize.NewTable(cols)
	table.Rows = append(table.Rows, entity.Values...)
	return table, nil
}

func columnUnion(rows []normalize.Row) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}
