package normalize

import "context"

// loadRaw loads the raw, pre-transform table for cfg: from another entity's
// already-produced output when cfg.Source is set (Type=="entity" — no
// Loader is registered for this, since a Loader only ever sees a
// DataSourceConfig, never the Store), or through the registry otherwise.
func loadRaw(ctx context.Context, project *Project, registry *Registry, cfg *EntityConfig, store *Store) (*Table, error) {
	if cfg.Source != "" {
		t := store.Get(cfg.Source)
		if t == nil {
			return nil, newError(KindLoadFailed, cfg.Name, "source", "",
				"source entity %q has not been produced yet", cfg.Source)
		}
		return t, nil
	}
	source := project.DataSources[cfg.DataSource]
	return registry.Load(ctx, cfg, source)
}

// loadEntityWithAppend loads entity's base raw table and, if it declares
// any Append items, loads each item's sub-table-config (Source reference or
// self-contained loader config) and unions the results onto the base table
// before any other transform runs — so that, per append_mode==distinct,
// the fresh system_id a later SubsetWithSurrogateID assigns is computed
// once over the whole unioned set rather than per sub-table-config.
func loadEntityWithAppend(ctx context.Context, project *Project, registry *Registry, entity *EntityConfig, store *Store) (*Table, error) {
	combined, err := loadRaw(ctx, project, registry, entity, store)
	if err != nil {
		return nil, err
	}
	if len(entity.Append) == 0 {
		return combined, nil
	}

	combined = combined.Clone()
	for _, item := range entity.Append {
		sub := item.subConfig(entity)
		t, err := loadRaw(ctx, project, registry, sub, store)
		if err != nil {
			return nil, err
		}
		combined = unionTables(combined, t)
	}
	if entity.AppendMode == AppendModeDistinct {
		combined = dropFullRowDuplicateRows(combined)
	}
	return combined, nil
}

// unionTables concatenates a and b's rows into a's column order, extending
// it with any column b introduces that a lacks; rows missing a column get
// nil for it.
func unionTables(a, b *Table) *Table {
	cols := append([]string{}, a.Columns...)
	for _, c := range b.Columns {
		if !contains(cols, c) {
			cols = append(cols, c)
		}
	}
	out := NewTable(cols)
	for _, r := range a.Rows {
		out.Rows = append(out.Rows, copyRowToColumns(r, cols))
	}
	for _, r := range b.Rows {
		out.Rows = append(out.Rows, copyRowToColumns(r, cols))
	}
	return out
}

func copyRowToColumns(r Row, cols []string) Row {
	out := make(Row, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}

// dropFullRowDuplicateRows removes rows that are identical across every
// column, the "distinct" append_mode's union-time dedup.
func dropFullRowDuplicateRows(t *Table) *Table {
	seen := make(map[string]struct{}, len(t.Rows))
	out := t.Clone()
	out.Rows = out.Rows[:0]
	for _, row := range t.Rows {
		key := rowKey(row, t.Columns)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}
