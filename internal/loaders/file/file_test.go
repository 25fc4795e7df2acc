package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

func TestLoader_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,label\ncm,centimeter\nm,meter\n"), 0o644))

	entity := &normalize.EntityConfig{Name: "unit", Type: "csv"}
	source := normalize.DataSourceConfig{Driver: "csv", Options: map[string]any{"path": path}}

	table, err := New().Load(context.Background(), entity, source)
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "label"}, table.Columns)
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, "cm", table.Rows[0]["code"])
}

func TestLoader_MissingPathOptionIsError(t *testing.T) {
	entity := &normalize.EntityConfig{Name: "unit", Type: "csv"}
	_, err := New().Load(context.Background(), entity, normalize.DataSourceConfig{Driver: "csv"})
	assert.Error(t, err)
}

func TestLoader_UnsupportedTypeIsError(t *testing.T) {
	entity := &normalize.EntityConfig{Name: "unit", Type: "json"}
	source := normalize.DataSourceConfig{Options: map[string]any{"path": "whatever"}}
	_, err := New().Load(context.Background(), entity, source)
	assert.Error(t, err)
}
