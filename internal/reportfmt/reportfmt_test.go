package reportfmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

func TestParseFormat(t *testing.T) {
	t.Run("defaults to table", func(t *testing.T) {
		f, err := ParseFormat("")
		require.NoError(t, err)
		assert.Equal(t, FormatTable, f)
	})
	t.Run("accepts json and yaml", func(t *testing.T) {
		f, err := ParseFormat("JSON")
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, f)

		f, err = ParseFormat("yml")
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, f)
	})
	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := ParseFormat("xml")
		assert.Error(t, err)
	})
}

func TestFormatter_PrintTable_CleanReport(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: FormatTable, Writer: &buf}
	require.NoError(t, f.Print(&normalize.Report{}))
	assert.Contains(t, buf.String(), "✓ Project is valid")
}

func TestFormatter_PrintTable_WithIssues(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: FormatTable, Writer: &buf}
	report := &normalize.Report{}
	report.AddError(normalize.KindUnknownEntity, "sample", "", "", "bad reference")
	require.NoError(t, f.Print(report))
	assert.Contains(t, buf.String(), "1 error(s)")
}

func TestFormatter_PrintJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: FormatJSON, Writer: &buf}
	report := &normalize.Report{}
	report.AddWarning(normalize.KindColumnMismatch, "sample", "", "code", "missing column")
	require.NoError(t, f.Print(report))
	assert.Contains(t, buf.String(), "\"Kind\": \"column_mismatch\"")
}
