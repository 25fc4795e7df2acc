package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a specific error/warning condition raised anywhere in a
// normalization run. Kind values are stable strings so callers can switch
// on them without importing sentinel error variables.
type Kind string

const (
	// ConfigurationError family (pre-run).
	KindUnknownEntity        Kind = "unknown_entity"
	KindUnknownDataSource    Kind = "unknown_data_source"
	KindMissingRequiredField Kind = "missing_required_field"
	KindBadFieldType         Kind = "bad_field_type"
	KindCircularDependency   Kind = "circular_dependency"
	KindInvalidForeignKey    Kind = "invalid_foreign_key"
	KindInvalidUnnest        Kind = "invalid_unnest"
	KindDuplicateSurrogateID Kind = "duplicate_surrogate_id"

	// ReferenceError family (pre-run, runtime-detectable).
	KindUnnestMissingIDVar   Kind = "unnest_missing_id_var"
	KindFKLocalKeysMissing   Kind = "fk_local_keys_missing"

	// LoadError family.
	KindColumnMismatch   Kind = "column_mismatch"
	KindRowShapeMismatch Kind = "row_shape_mismatch"
	KindLoadFailed       Kind = "load_failed"

	// LinkingError family.
	KindFKRemoteKeysMissing     Kind = "fk_remote_keys_missing"
	KindFKLocalKeysMissingData  Kind = "fk_local_keys_missing_in_data"
	KindConstraintViolation     Kind = "constraint_violation"

	// SchedulingError family.
	KindStalledDependency  Kind = "stalled_dependency"
	KindPersistentDeferral Kind = "persistent_deferral"

	// InvariantError family (internal).
	KindFunctionalDependencyViolation Kind = "functional_dependency_violation"
)

// Severity of an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one entry of a specification report: a severity-tagged message,
// optionally attributed to an entity/field/column.
type Issue struct {
	Severity Severity
	Kind     Kind
	Message  string
	Entity   string
	Field    string
	Column   string
}

func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", strings.ToUpper(string(i.Severity)))
	if i.Entity != "" {
		fmt.Fprintf(&b, " Entity '%s':", i.Entity)
	}
	fmt.Fprintf(&b, " %s", i.Message)
	if i.Field != "" {
		fmt.Fprintf(&b, " (field: %s)", i.Field)
	}
	if i.Column != "" {
		fmt.Fprintf(&b, " (column: %s)", i.Column)
	}
	return b.String()
}

// Error wraps a single Issue so it can be returned/inspected through the
// standard errors.As/errors.Is machinery while a Report carries the full
// accumulated list.
type Error struct {
	Issue Issue
}

func (e *Error) Error() string { return e.Issue.String() }

// Is reports whether target is an *Error with the same Kind, so callers can
// write `errors.Is(err, &normalize.Error{Issue: normalize.Issue{Kind: ...}})`
// or more idiomatically use errors.As and inspect Kind directly.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Issue.Kind == e.Issue.Kind
}

func newError(kind Kind, entity, field, column, format string, args ...any) *Error {
	return &Error{Issue: Issue{
		Severity: SeverityError,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Entity:   entity,
		Field:    field,
		Column:   column,
	}}
}

// Status is the overall outcome of a Report.
type Status string

const (
	StatusValid             Status = "valid"
	StatusValidWithWarnings Status = "valid-with-warnings"
	StatusInvalid           Status = "invalid"
)

// Report is an ordered pair of issue lists accumulated while validating and
// running a project, and returned to callers by Normalize.
type Report struct {
	Errors   []Issue
	Warnings []Issue
}

// AddError appends an error-severity issue.
func (r *Report) AddError(kind Kind, entity, field, column, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{
		Severity: SeverityError, Kind: kind, Message: fmt.Sprintf(format, args...),
		Entity: entity, Field: field, Column: column,
	})
}

// AddWarning appends a warning-severity issue.
func (r *Report) AddWarning(kind Kind, entity, field, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{
		Severity: SeverityWarning, Kind: kind, Message: fmt.Sprintf(format, args...),
		Entity: entity, Field: field, Column: column,
	})
}

// Merge appends another report's issues into this one.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// HasErrors reports whether any error-severity issue was recorded.
func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings reports whether any warning-severity issue was recorded.
func (r *Report) HasWarnings() bool { return len(r.Warnings) > 0 }

// Status derives the overall status from the accumulated issues.
func (r *Report) Status() Status {
	switch {
	case r.HasErrors():
		return StatusInvalid
	case r.HasWarnings():
		return StatusValidWithWarnings
	default:
		return StatusValid
	}
}

// ExitCode implements the CLI front-end's exit-code policy: 0 for valid
// and valid-with-warnings, 1 for invalid.
func (r *Report) ExitCode() int {
	if r.Status() == StatusInvalid {
		return 1
	}
	return 0
}

// Render produces a human-readable report: a leading ✓ when clean,
// otherwise "✗ N errors:" / "⚠ M warnings:" each with numbered lines.
func (r *Report) Render() string {
	var b strings.Builder
	if !r.HasErrors() && !r.HasWarnings() {
		b.WriteString("✓ Project is valid\n")
		return b.String()
	}
	if r.HasErrors() {
		fmt.Fprintf(&b, "✗ %d error(s):\n", len(r.Errors))
		for i, issue := range r.Errors {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, issue.String())
		}
	}
	if r.HasWarnings() {
		fmt.Fprintf(&b, "⚠ %d warning(s):\n", len(r.Warnings))
		for i, issue := range r.Warnings {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, issue.String())
		}
	}
	return b.String()
}

// Error lets a *Report satisfy the error interface, so a hard-halted run can
// simply `return partialStore, report, report` when report.HasErrors().
func (r *Report) Error() string {
	return r.Render()
}
