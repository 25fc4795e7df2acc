package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_AddEntity_NormalizesDefaults(t *testing.T) {
	p := NewProject("demo")
	p.AddEntity(EntityConfig{Name: "widget", Keys: []string{"a", "a", "b"}})

	got := p.GetEntity("widget")
	require.NotNil(t, got)
	assert.Equal(t, "system_id", got.SurrogateID)
	assert.Equal(t, []string{"a", "b"}, got.Keys)
}

func TestEntityConfig_DependsOn_SortedAndDeduped(t *testing.T) {
	e := EntityConfig{
		ForeignKeys: []ForeignKeyConfig{
			{RemoteEntity: "species"},
			{RemoteEntity: "sample"},
			{RemoteEntity: "species"},
		},
	}
	assert.Equal(t, []string{"sample", "species"}, e.DependsOn())
}

func TestEntityConfig_GetEntityColumns(t *testing.T) {
	e := &EntityConfig{
		SurrogateID: "system_id",
		PublicID:    "public_id",
		Columns:     []string{"name"},
		Keys:        []string{"code"},
		ForeignKeys: []ForeignKeyConfig{
			{ExtraColumns: map[string]string{"species_id": "system_id"}},
		},
		Unnest: &UnnestConfig{VarName: "attr", ValueName: "value"},
	}
	cols := e.getEntityColumns()
	assert.Contains(t, cols, "system_id")
	assert.Contains(t, cols, "public_id")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "code")
	assert.Contains(t, cols, "species_id")
	assert.Contains(t, cols, "attr")
	assert.Contains(t, cols, "value")
}

func TestProject_MetadataHash_StableAndSensitive(t *testing.T) {
	p1 := NewProject("demo")
	p1.AddEntity(EntityConfig{Name: "widget", Columns: []string{"name"}})
	h1, err := p1.MetadataHash()
	require.NoError(t, err)

	p2 := NewProject("demo")
	p2.AddEntity(EntityConfig{Name: "widget", Columns: []string{"name"}})
	h2, err := p2.MetadataHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "identical declarations hash identically")

	p3 := NewProject("demo")
	p3.AddEntity(EntityConfig{Name: "widget", Columns: []string{"name", "extra"}})
	h3, err := p3.MetadataHash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "a changed declaration must change the hash")
}

func TestForeignKeyConfig_GetValidRemoteColumns(t *testing.T) {
	remote := NewTable([]string{"system_id", "code"})
	fk := ForeignKeyConfig{
		RemoteKeys:   []string{"code"},
		ExtraColumns: map[string]string{"species_id": "system_id", "species_label": "missing_col"},
	}
	present, missing := fk.getValidRemoteColumns(remote, nil)
	assert.ElementsMatch(t, []string{"code", "system_id"}, present)
	assert.Equal(t, []string{"missing_col"}, missing)
}
