package normalize

// Unpivot reshapes src from wide to long form according to cfg (a melt: for
// every row, one output row per ValueVar, carrying the IDVars plus a
// VarName/ValueName pair):
//
//   - cfg == nil: no-op, returns src unchanged.
//   - ValueName already present as a column: the table is treated as
//     already melted and returned unchanged, with nothing added to report.
//   - any of IDVars/ValueVars/VarName/ValueName unset: a hard
//     KindInvalidUnnest error, table returned unchanged.
//   - missing IDVars columns: a hard KindUnnestMissingIDVar error (the row
//     identity cannot be established without them).
//   - missing ValueVars columns: a soft defer — a warning is recorded, the
//     table is returned unchanged and deferred is reported via the bool
//     return, so the caller can retry the entity in a later round.
func Unpivot(src *Table, entityName string, cfg *UnnestConfig, report *Report) (out *Table, deferred bool) {
	if cfg == nil {
		return src, false
	}
	if src.HasColumn(cfg.ValueName) {
		return src, false
	}
	if len(cfg.IDVars) == 0 || len(cfg.ValueVars) == 0 || cfg.VarName == "" || cfg.ValueName == "" {
		report.AddError(KindInvalidUnnest, entityName, "", "",
			"unnest configuration incomplete: id_vars, value_vars, var_name, and value_name must all be set")
		return src, false
	}
	if missing := src.MissingColumns(cfg.IDVars); len(missing) > 0 {
		report.AddError(KindUnnestMissingIDVar, entityName, "", "",
			"unnest id_vars missing from data: %v", missing)
		return src, false
	}
	if missing := src.MissingColumns(cfg.ValueVars); len(missing) > 0 {
		report.AddWarning(KindInvalidUnnest, entityName, "", "",
			"unnest value_vars not yet present, deferring: %v", missing)
		return src, true
	}

	outCols := append(append([]string{}, cfg.IDVars...), cfg.VarName, cfg.ValueName)
	result := NewTable(outCols)
	for _, row := range src.Rows {
		for _, valueVar := range cfg.ValueVars {
			newRow := make(Row, len(outCols))
			for _, idVar := range cfg.IDVars {
				newRow[idVar] = row[idVar]
			}
			newRow[cfg.VarName] = valueVar
			newRow[cfg.ValueName] = row[valueVar]
			result.Rows = append(result.Rows, newRow)
		}
	}
	return result, false
}
