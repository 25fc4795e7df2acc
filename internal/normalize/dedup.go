package normalize

// DropDuplicates removes duplicate rows from src per cfg, mirroring the
// original Python `drop_duplicate_rows`:
//   - cfg disabled: no-op, returns src unchanged.
//   - cfg.AllColumns: dedup on every column.
//   - cfg.Subset: dedup on the given column subset (cleaned via unique());
//     an empty cleaned subset is an error (unchanged table returned); a
//     subset naming columns absent from src is a warning (unchanged table
//     returned).
//   - cfg.FDCheck: before dropping, runs CheckFunctionalDependency against
//     the subset; a violation is an error if cfg.StrictFD, a warning
//     otherwise, in both cases the Python original still proceeds to drop.
func DropDuplicates(src *Table, entityName string, cfg DropDuplicatesConfig, report *Report) *Table {
	if !cfg.Enabled {
		return src
	}

	var subset []string
	if cfg.AllColumns {
		subset = append([]string{}, src.Columns...)
	} else {
		subset = unique(cfg.Subset)
		if len(subset) == 0 {
			report.AddError(KindMissingRequiredField, entityName, "drop_duplicates.subset", "",
				"drop_duplicates subset resolved to an empty column list")
			return src
		}
		if missing := src.MissingColumns(subset); len(missing) > 0 {
			report.AddWarning(KindColumnMismatch, entityName, "drop_duplicates.subset", "",
				"drop_duplicates subset references columns not present in data: %v", missing)
			return src
		}
	}

	if cfg.FDCheck {
		CheckFunctionalDependency(src, entityName, subset, cfg.StrictFD, report)
	}

	seen := make(map[string]struct{}, len(src.Rows))
	out := src.Clone()
	out.Rows = out.Rows[:0]
	for _, row := range src.Rows {
		key := rowKey(row, subset)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

const maxReportedBadKeys = 5

// CheckFunctionalDependency verifies that determinant columns functionally
// determine the rest of the row: after removing fully-identical duplicate
// rows, no two remaining rows may share the same determinant-column values.
// A violation is recorded as an error (raiseError true) or a warning
// (otherwise), truncating the list of offending keys to maxReportedBadKeys,
// mirroring `FunctionalDependencySpecification.is_satisfied_by`.
func CheckFunctionalDependency(src *Table, entityName string, determinant []string, raiseError bool, report *Report) bool {
	wholeRowSeen := make(map[string]struct{}, len(src.Rows))
	deduped := make([]Row, 0, len(src.Rows))
	for _, row := range src.Rows {
		key := rowKey(row, src.Columns)
		if _, ok := wholeRowSeen[key]; ok {
			continue
		}
		wholeRowSeen[key] = struct{}{}
		deduped = append(deduped, row)
	}

	counts := make(map[string]int, len(deduped))
	firstKey := make(map[string]Row, len(deduped))
	var order []string
	for _, row := range deduped {
		key := rowKey(row, determinant)
		if counts[key] == 0 {
			order = append(order, key)
			firstKey[key] = row
		}
		counts[key]++
	}

	var bad []Row
	for _, key := range order {
		if counts[key] > 1 {
			bad = append(bad, firstKey[key])
		}
	}
	if len(bad) == 0 {
		return true
	}

	truncated := len(bad) > maxReportedBadKeys
	shown := bad
	if truncated {
		shown = bad[:maxReportedBadKeys]
	}
	keys := make([]string, len(shown))
	for i, row := range shown {
		keys[i] = displayKey(row, determinant)
	}
	msg := "functional dependency violated on columns %v for key(s) %v"
	suffix := ""
	if truncated {
		suffix = " (showing first %d of %d violations)"
	}
	if raiseError {
		if truncated {
			report.AddError(KindFunctionalDependencyViolation, entityName, "", "", msg+suffix, determinant, keys, maxReportedBadKeys, len(bad))
		} else {
			report.AddError(KindFunctionalDependencyViolation, entityName, "", "", msg, determinant, keys)
		}
	} else {
		if truncated {
			report.AddWarning(KindFunctionalDependencyViolation, entityName, "", "", msg+suffix, determinant, keys, maxReportedBadKeys, len(bad))
		} else {
			report.AddWarning(KindFunctionalDependencyViolation, entityName, "", "", msg, determinant, keys)
		}
	}
	return false
}
