package fixed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

func TestLoader_UsesDeclaredColumnOrder(t *testing.T) {
	entity := &normalize.EntityConfig{
		Name:    "unit",
		Type:    "fixed",
		Columns: []string{"code", "label"},
		Values: []normalize.Row{
			{"code": "cm", "label": "centimeter"},
			{"code": "m", "label": "meter"},
		},
	}

	table, err := New().Load(context.Background(), entity, normalize.DataSourceConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "label"}, table.Columns)
	assert.Equal(t, 2, table.NumRows())
}

func TestLoader_RejectsNonFixedEntity(t *testing.T) {
	entity := &normalize.EntityConfig{Name: "unit", Type: "postgres"}
	_, err := New().Load(context.Background(), entity, normalize.DataSourceConfig{})
	assert.Error(t, err)
}

func TestLoader_DerivesColumnsWhenUndeclared(t *testing.T) {
	entity := &normalize.EntityConfig{
		Name: "unit",
		Type: "fixed",
		Values: []normalize.Row{
			{"code": "cm"},
		},
	}
	table, err := New().Load(context.Background(), entity, normalize.DataSourceConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, table.Columns)
}
