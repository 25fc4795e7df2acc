package normalize

// DropEmptyRows removes rows that are empty across the configured subset of
// columns:
//   - cfg disabled, or an explicitly empty Subset: no-op.
//   - cfg.EmptyValues set: per-column substitution of the listed sentinel
//     values (e.g. "NULL", "-") to NA before the row-wise check, subset
//     becomes the map's keys.
//   - cfg.TreatEmptyStringsAsNA: "" is additionally treated as NA across the
//     subset columns.
//   - a row is dropped only if EVERY subset column is NA on it ("how=all"),
//     matching the Python default.
//
// A Subset naming columns absent from src is a warning; the table is
// returned unchanged in that case.
func DropEmptyRows(src *Table, entityName string, cfg DropEmptyRowsConfig, report *Report) *Table {
	if !cfg.Enabled {
		return src
	}
	if cfg.Subset != nil && len(cfg.Subset) == 0 {
		return src
	}

	subset := cfg.Subset
	if len(cfg.EmptyValues) > 0 {
		subset = make([]string, 0, len(cfg.EmptyValues))
		for c := range cfg.EmptyValues {
			subset = append(subset, c)
		}
	}
	if len(subset) == 0 {
		subset = append([]string{}, src.Columns...)
	}

	if missing := src.MissingColumns(subset); len(missing) > 0 {
		report.AddWarning(KindColumnMismatch, entityName, "drop_empty_rows.subset", "",
			"drop_empty_rows subset references columns not present in data: %v", missing)
		return src
	}

	out := src.Clone()
	out.Rows = out.Rows[:0]
	for _, row := range src.Rows {
		if !isEmptyAcross(row, subset, cfg) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func isEmptyAcross(row Row, subset []string, cfg DropEmptyRowsConfig) bool {
	for _, c := range subset {
		v := row[c]
		if isEmptyValue(v, c, cfg) {
			continue
		}
		return false
	}
	return true
}

func isEmptyValue(v any, column string, cfg DropEmptyRowsConfig) bool {
	if IsNull(v) {
		return true
	}
	if cfg.TreatEmptyStringsAsNA && IsEmptyString(v) {
		return true
	}
	for _, sentinel := range cfg.EmptyValues[column] {
		if v == sentinel {
			return true
		}
	}
	return false
}
