package projectio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
name: demo
best_effort: true
data_sources:
  warehouse:
    driver: postgres
    options:
      dsn: "postgres://localhost/demo"
entities:
  species:
    type: fixed
    columns: [code, latin_name]
    values:
      - {code: QUE, latin_name: Quercus}
  sample:
    type: csv
    data_source: warehouse
    columns: [species_code]
    foreign_keys:
      - remote_entity: species
        local_keys: [species_code]
        remote_keys: [code]
        extra_columns:
          species_id: system_id
        constraints:
          allow_unmatched_left: false
`

func TestParse_DecodesFullShape(t *testing.T) {
	p, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Name)
	assert.True(t, p.BestEffort)
	require.Contains(t, p.DataSources, "warehouse")
	assert.Equal(t, "postgres", p.DataSources["warehouse"].Driver)

	species := p.GetEntity("species")
	require.NotNil(t, species)
	assert.Equal(t, "system_id", species.SurrogateID)
	assert.Equal(t, 1, len(species.Values))

	sample := p.GetEntity("sample")
	require.NotNil(t, sample)
	require.Len(t, sample.ForeignKeys, 1)
	fk := sample.ForeignKeys[0]
	assert.Equal(t, "species", fk.RemoteEntity)
	assert.False(t, fk.Constraints.AllowUnmatchedLeft)
	assert.True(t, fk.Constraints.AllowNullKeys, "defaults to true when unset")
}

func TestParse_InvalidYAMLIsError(t *testing.T) {
	_, err := Parse([]byte("not: [valid"))
	assert.Error(t, err)
}
