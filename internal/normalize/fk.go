package normalize

import (
	"fmt"
	"strings"
)

// mergeStats accumulates the counters validateForeignKeyConstraints needs,
// gathered during the single pass over local/remote rows so post-merge
// validation never has to re-walk either table.
type mergeStats struct {
	unmatchedLocal      int
	unmatchedRemoteRows int
}

// ResolveForeignKey joins local against remote according to fk, producing a
// new table with the remote's public_id auto-propagated plus fk's
// ExtraColumns populated from the matched remote row. It never mutates
// local or remote. The join runs in phases: validate, project remote
// columns, pre-merge validation, merge, post-merge validation.
//
// deferred is true when the join could not be attempted yet (local keys not
// present in local — e.g. still waiting on an earlier transform) and local
// is returned unchanged. already is true when the FK appears to have been
// applied already (every declared extra column is already present on
// local), in which case local is also returned unchanged.
func ResolveForeignKey(
	local *Table, localEntityName string, fk ForeignKeyConfig,
	remote *Table, remoteEntity *EntityConfig,
	report *Report,
) (merged *Table, deferred bool, already bool) {
	if fk.alreadyLinked(local) {
		return local, false, true
	}

	isCross := fk.How == JoinCross
	if isCross {
		if len(fk.LocalKeys) > 0 || len(fk.RemoteKeys) > 0 {
			report.AddError(KindInvalidForeignKey, localEntityName, "", "",
				"cross join to %q must not declare local_keys/remote_keys", fk.RemoteEntity)
			return local, false, false
		}
	} else if missing := local.MissingColumns(fk.LocalKeys); len(missing) > 0 {
		report.AddWarning(KindFKLocalKeysMissing, localEntityName, "", "",
			"foreign key to %q deferred: local keys not yet present: %v", fk.RemoteEntity, missing)
		return local, true, false
	}

	present, missingRemote := fk.getValidRemoteColumns(remote, remoteEntity)
	if !isCross {
		presentKeys := intersect(fk.RemoteKeys, present)
		if len(presentKeys) != len(fk.RemoteKeys) {
			report.AddError(KindFKRemoteKeysMissing, localEntityName, "", "",
				"foreign key to %q: remote key columns missing from remote data: %v",
				fk.RemoteEntity, subtract(fk.RemoteKeys, presentKeys))
			return local, false, false
		}
	}
	if extraMissing := subtract(missingRemote, fk.RemoteKeys); len(extraMissing) > 0 {
		report.AddWarning(KindColumnMismatch, localEntityName, "", "",
			"foreign key to %q: extra_columns source fields missing from remote data, skipping: %v",
			fk.RemoteEntity, extraMissing)
	}

	// rename: remote source column -> local output column, always seeded
	// with {remote system_id -> remote public_id} so the parent's public
	// id propagates into the child automatically (invariant: a parent's
	// public_id is the name of the FK column created in the child).
	rename := fk.resolvedExtraColumns(remoteEntity)
	extras := make(map[string]string, len(rename))
	for source, newName := range rename {
		if !contains(present, source) {
			continue
		}
		final := newName
		if contains(local.Columns, newName) {
			final = newName + "_" + fk.RemoteEntity
		}
		extras[source] = final
	}

	validatePreMergeConstraints(local, remote, fk, localEntityName, report)

	var rows []Row
	var stats mergeStats

	switch {
	case isCross:
		rows = make([]Row, 0, local.NumRows()*remote.NumRows())
		for _, lrow := range local.Rows {
			for _, rrow := range remote.Rows {
				rows = append(rows, copyRowWithExtras(lrow, extras, rrow))
			}
		}
	default:
		index := buildRemoteIndex(remote, fk.RemoteKeys)
		matchedRemoteKeys := make(map[string]struct{})

		for _, row := range local.Rows {
			key, hasNull := keyOf(row, fk.LocalKeys)
			if hasNull && !fk.Constraints.AllowNullKeys {
				report.AddError(KindConstraintViolation, localEntityName, "", "",
					"foreign key to %q: null value in local key columns %v", fk.RemoteEntity, fk.LocalKeys)
				continue
			}

			matches := index[key]
			if len(matches) == 0 {
				stats.unmatchedLocal++
				if fk.How == JoinInner && !fk.Constraints.AllowUnmatchedLeft {
					continue
				}
				rows = append(rows, copyRowWithExtras(row, extras, nil))
				continue
			}
			matchedRemoteKeys[key] = struct{}{}
			for _, remoteRow := range matches {
				rows = append(rows, copyRowWithExtras(row, extras, remoteRow))
			}
		}

		if fk.How == JoinRight || fk.How == JoinOuter {
			for _, remoteRow := range remote.Rows {
				key, hasNull := keyOf(remoteRow, fk.RemoteKeys)
				if hasNull {
					continue
				}
				if _, ok := matchedRemoteKeys[key]; ok {
					continue
				}
				rows = append(rows, copyRemoteOnlyRow(local.Columns, extras, remoteRow))
			}
		}

		for _, remoteRow := range remote.Rows {
			key, hasNull := keyOf(remoteRow, fk.RemoteKeys)
			if hasNull {
				continue
			}
			if _, ok := matchedRemoteKeys[key]; !ok {
				stats.unmatchedRemoteRows++
			}
		}
	}

	outCols := append([]string{}, local.Columns...)
	for _, final := range extras {
		if !contains(outCols, final) {
			outCols = append(outCols, final)
		}
	}
	out := &Table{Columns: outCols, Rows: rows}

	if fk.Constraints.HasMatchConstraints() {
		validateForeignKeyConstraints(local, out, fk, localEntityName, stats, report)
	}

	if fk.DropRemoteID && remoteEntity != nil && remoteEntity.PublicID != "" {
		out = dropColumn(out, remoteEntity.PublicID)
	}

	return out, false, false
}

// alreadyLinked reports whether every declared extra column is already
// present on local, mirroring `ForeignKeyConfig.has_foreign_key_link`.
func (fk ForeignKeyConfig) alreadyLinked(local *Table) bool {
	if len(fk.ExtraColumns) == 0 {
		return false
	}
	for newName := range fk.ExtraColumns {
		if !local.HasColumn(newName) {
			return false
		}
	}
	return true
}

func intersect(a, b []string) []string {
	bs := stringSet(b)
	var out []string
	for _, it := range a {
		if _, ok := bs[it]; ok {
			out = append(out, it)
		}
	}
	return out
}

func keyOf(row Row, cols []string) (key string, hasNull bool) {
	for _, c := range cols {
		if IsNull(row[c]) {
			hasNull = true
		}
	}
	return rowKey(row, cols), hasNull
}

func buildRemoteIndex(remote *Table, keys []string) map[string][]Row {
	idx := make(map[string][]Row, remote.NumRows())
	for _, row := range remote.Rows {
		k, hasNull := keyOf(row, keys)
		if hasNull {
			continue
		}
		idx[k] = append(idx[k], row)
	}
	return idx
}

func copyRowWithExtras(local Row, extras map[string]string, remote Row) Row {
	out := make(Row, len(local)+len(extras))
	for k, v := range local {
		out[k] = v
	}
	for source, newName := range extras {
		if remote != nil {
			out[newName] = remote[source]
		} else if _, exists := out[newName]; !exists {
			out[newName] = nil
		}
	}
	return out
}

// copyRemoteOnlyRow builds the row emitted for a remote-only match (right
// or outer join): every local column is null, extras are populated from
// the unmatched remote row.
func copyRemoteOnlyRow(localColumns []string, extras map[string]string, remote Row) Row {
	out := make(Row, len(localColumns)+len(extras))
	for _, c := range localColumns {
		out[c] = nil
	}
	for source, newName := range extras {
		out[newName] = remote[source]
	}
	return out
}

func dropColumn(t *Table, name string) *Table {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != name {
			cols = append(cols, c)
		}
	}
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			nr[c] = r[c]
		}
		rows[i] = nr
	}
	return &Table{Columns: cols, Rows: rows}
}

// validatePreMergeConstraints checks require_unique_left/require_unique_right
// before the merge runs, since once rows have been joined the key columns
// alone no longer determine which side a duplicate came from. A no-op for
// cross joins, which declare no keys to be unique over.
func validatePreMergeConstraints(local, remote *Table, fk ForeignKeyConfig, entityName string, report *Report) {
	if fk.How == JoinCross {
		return
	}
	if fk.Constraints.RequireUniqueLeft {
		if dupes := duplicateKeyValues(local, fk.LocalKeys); len(dupes) > 0 {
			report.AddError(KindConstraintViolation, entityName, "", "",
				"foreign key to %q: local key columns %v are not unique (require_unique_left): %v",
				fk.RemoteEntity, fk.LocalKeys, dupes)
		}
	}
	if fk.Constraints.RequireUniqueRight {
		if dupes := duplicateKeyValues(remote, fk.RemoteKeys); len(dupes) > 0 {
			report.AddError(KindConstraintViolation, entityName, "", "",
				"foreign key to %q: duplicate right key(s) found in %q (require_unique_right): %v",
				fk.RemoteEntity, fk.RemoteEntity, dupes)
		}
	}
}

// duplicateKeyValues returns a display string per distinct key value that
// occurs more than once in t across cols, skipping rows with a null key.
func duplicateKeyValues(t *Table, cols []string) []string {
	seen := make(map[string]struct{}, len(t.Rows))
	reported := make(map[string]struct{})
	var dupes []string
	for _, row := range t.Rows {
		key, hasNull := keyOf(row, cols)
		if hasNull {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			continue
		}
		if _, ok := reported[key]; ok {
			continue
		}
		reported[key] = struct{}{}
		dupes = append(dupes, displayKey(row, cols))
	}
	return dupes
}

func displayKey(row Row, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(row[c])
	}
	return strings.Join(parts, ",")
}

// validateForeignKeyConstraints checks the post-merge shape against fk's
// declared constraints. Violations are recorded as errors; the caller only
// invokes this when fk.Constraints.HasMatchConstraints() is true. That is
// also the case for a zero-value constraint set, whose false
// AllowUnmatchedLeft and AllowRowDecrease are then enforced here.
func validateForeignKeyConstraints(local, merged *Table, fk ForeignKeyConfig, entityName string, stats mergeStats, report *Report) {
	c := fk.Constraints

	if stats.unmatchedLocal > 0 && !c.AllowUnmatchedLeft {
		report.AddError(KindConstraintViolation, entityName, "", "",
			"foreign key to %q: %d local row(s) had no matching remote row and allow_unmatched_left is false",
			fk.RemoteEntity, stats.unmatchedLocal)
	}
	if (fk.How == JoinRight || fk.How == JoinOuter) && stats.unmatchedRemoteRows > 0 && !c.AllowUnmatchedRight {
		report.AddError(KindConstraintViolation, entityName, "", "",
			"foreign key to %q: %d remote row(s) had no matching local row and allow_unmatched_right is false",
			fk.RemoteEntity, stats.unmatchedRemoteRows)
	}
	if c.RequireAllLeftMatched && stats.unmatchedLocal > 0 {
		report.AddError(KindConstraintViolation, entityName, "", "",
			"foreign key to %q: %d local row(s) unmatched but require_all_left_matched is set",
			fk.RemoteEntity, stats.unmatchedLocal)
	}
	if c.RequireAllRightMatched && stats.unmatchedRemoteRows > 0 {
		report.AddError(KindConstraintViolation, entityName, "", "",
			"foreign key to %q: %d remote row(s) unmatched but require_all_right_matched is set",
			fk.RemoteEntity, stats.unmatchedRemoteRows)
	}
	if c.MinMatchRate > 0 && local.NumRows() > 0 {
		rate := float64(local.NumRows()-stats.unmatchedLocal) / float64(local.NumRows())
		if rate < c.MinMatchRate {
			report.AddError(KindConstraintViolation, entityName, "", "",
				"foreign key to %q: match rate %.4f below min_match_rate %.4f",
				fk.RemoteEntity, rate, c.MinMatchRate)
		}
	}
	if !c.AllowRowDecrease && merged.NumRows() < local.NumRows() {
		report.AddError(KindConstraintViolation, entityName, "", "",
			"foreign key to %q: row count decreased from %d to %d and allow_row_decrease is false",
			fk.RemoteEntity, local.NumRows(), merged.NumRows())
	}
	increase := merged.NumRows() - local.NumRows()
	if c.MaxRowIncreaseAbs != nil && increase > *c.MaxRowIncreaseAbs {
		report.AddError(KindConstraintViolation, entityName, "", "",
			"foreign key to %q: row count increased by %d, exceeding max_row_increase_abs %d",
			fk.RemoteEntity, increase, *c.MaxRowIncreaseAbs)
	}
	if c.MaxRowIncreasePct != nil && local.NumRows() > 0 {
		pct := float64(increase) / float64(local.NumRows())
		if pct > *c.MaxRowIncreasePct {
			report.AddError(KindConstraintViolation, entityName, "", "",
				"foreign key to %q: row count increased by %.2f%%, exceeding max_row_increase_pct %.2f%%",
				fk.RemoteEntity, pct*100, *c.MaxRowIncreasePct*100)
		}
	}
	switch c.Cardinality {
	case CardinalityOneToOne, CardinalityManyToOne:
		if merged.NumRows() > local.NumRows() {
			report.AddError(KindConstraintViolation, entityName, "", "",
				"foreign key to %q: expected cardinality %s but row count increased from %d to %d",
				fk.RemoteEntity, c.Cardinality, local.NumRows(), merged.NumRows())
		}
	}
}
