package normalize

// SubsetWithSurrogateID projects src down to the declared key/column set for
// entity (plus whatever its foreign keys and unnest configuration also need
// to survive the projection) and assigns a sequential surrogate id to every
// row under entity.SurrogateID, starting at startID. Entity-level
// ExtraColumns are broadcast onto every row as constants after the
// projection.
//
// Missing declared columns are reported to report as warnings and simply
// absent from the result rather than causing a hard failure, mirroring the
// original Python loaders' tolerance for partially-populated sources.
func SubsetWithSurrogateID(src *Table, entity *EntityConfig, startID int64, report *Report) *Table {
	wanted := append([]string{}, entity.Keys...)
	wanted = append(wanted, entity.Columns...)
	for _, fk := range entity.ForeignKeys {
		wanted = append(wanted, fk.LocalKeys...)
	}
	if entity.Unnest != nil {
		wanted = append(wanted, entity.Unnest.VarName, entity.Unnest.ValueName)
	}
	wanted = unique(wanted)
	if len(wanted) == 0 {
		wanted = append([]string{}, src.Columns...)
	}
	// Broadcast constants never come from src, so a declared column that is
	// really an entity-level extra_column must not be reported as missing.
	var broadcastNames []string
	for name := range entity.ExtraColumns {
		broadcastNames = append(broadcastNames, name)
	}
	wanted = subtract(wanted, broadcastNames)

	missing := src.MissingColumns(wanted)
	for _, m := range missing {
		report.AddWarning(KindColumnMismatch, entity.Name, "", m,
			"declared column %q not present in loaded data, omitting", m)
	}
	present := subtract(wanted, missing)

	outCols := append([]string{entity.SurrogateID}, present...)
	if entity.PublicID != "" && !contains(present, entity.PublicID) && src.HasColumn(entity.PublicID) {
		outCols = append(outCols, entity.PublicID)
		present = append(present, entity.PublicID)
	}
	for name := range entity.ExtraColumns {
		if !contains(outCols, name) {
			outCols = append(outCols, name)
		}
	}
	out := NewTable(outCols)

	id := startID
	for _, srcRow := range src.Rows {
		row := make(Row, len(outCols))
		row[entity.SurrogateID] = id
		for _, c := range present {
			row[c] = srcRow[c]
		}
		for name, val := range entity.ExtraColumns {
			row[name] = val
		}
		out.Rows = append(out.Rows, row)
		id++
	}
	return out
}
