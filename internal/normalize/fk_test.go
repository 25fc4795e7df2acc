package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveForeignKey_BasicInnerJoin(t *testing.T) {
	local := newRowsTable([]string{"system_id", "species_code"},
		Row{"system_id": int64(1), "species_code": "QUE"},
		Row{"system_id": int64(2), "species_code": "PIN"},
	)
	remote := newRowsTable([]string{"system_id", "code", "latin_name"},
		Row{"system_id": int64(10), "code": "QUE", "latin_name": "Quercus"},
		Row{"system_id": int64(11), "code": "PIN", "latin_name": "Pinus"},
	)
	fk := normalizeForeignKeyConfig(ForeignKeyConfig{
		RemoteEntity: "species",
		LocalKeys:    []string{"species_code"},
		RemoteKeys:   []string{"code"},
		ExtraColumns: map[string]string{"species_name": "latin_name"},
		How:          JoinInner,
	})
	remoteEntity := &EntityConfig{Name: "species", SurrogateID: "system_id", PublicID: "species_id"}

	report := &Report{}
	out, deferred, already := ResolveForeignKey(local, "sample", fk, remote, remoteEntity, report)
	require.False(t, deferred)
	require.False(t, already)
	require.False(t, report.HasErrors())
	require.Equal(t, 2, out.NumRows())

	for _, row := range out.Rows {
		if row["species_code"] == "QUE" {
			assert.Equal(t, int64(10), row["species_id"])
			assert.Equal(t, "Quercus", row["species_name"])
		}
	}
}

func TestResolveForeignKey_DefersWhenLocalKeyMissing(t *testing.T) {
	local := newRowsTable([]string{"system_id"}, Row{"system_id": int64(1)})
	remote := newRowsTable([]string{"system_id", "code"}, Row{"system_id": int64(10), "code": "QUE"})
	fk := normalizeForeignKeyConfig(ForeignKeyConfig{
		RemoteEntity: "species", LocalKeys: []string{"species_code"}, RemoteKeys: []string{"code"},
	})

	report := &Report{}
	_, deferred, _ := ResolveForeignKey(local, "sample", fk, remote, nil, report)
	assert.True(t, deferred)
	assert.True(t, report.HasWarnings())
}

func TestResolveForeignKey_AlreadyLinkedIsNoOp(t *testing.T) {
	local := newRowsTable([]string{"system_id", "species_id"}, Row{"system_id": int64(1), "species_id": int64(10)})
	remote := newRowsTable([]string{"system_id"}, Row{"system_id": int64(10)})
	fk := normalizeForeignKeyConfig(ForeignKeyConfig{
		RemoteEntity: "species", LocalKeys: []string{"species_id"}, RemoteKeys: []string{"system_id"},
		ExtraColumns: map[string]string{"species_id": "system_id"},
	})

	report := &Report{}
	out, deferred, already := ResolveForeignKey(local, "sample", fk, remote, nil, report)
	assert.False(t, deferred)
	assert.True(t, already)
	assert.Same(t, local, out)
}

func TestResolveForeignKey_MissingRemoteKeyIsError(t *testing.T) {
	local := newRowsTable([]string{"system_id", "species_code"}, Row{"system_id": int64(1), "species_code": "QUE"})
	remote := newRowsTable([]string{"system_id"}, Row{"system_id": int64(10)})
	fk := normalizeForeignKeyConfig(ForeignKeyConfig{
		RemoteEntity: "species", LocalKeys: []string{"species_code"}, RemoteKeys: []string{"code"},
	})

	report := &Report{}
	out, deferred, _ := ResolveForeignKey(local, "sample", fk, remote, nil, report)
	assert.False(t, deferred)
	require.True(t, report.HasErrors())
	assert.Equal(t, KindFKRemoteKeysMissing, report.Errors[0].Kind)
	assert.Same(t, local, out)
}

func TestResolveForeignKey_UnmatchedLeftConstraintViolation(t *testing.T) {
	local := newRowsTable([]string{"system_id", "species_code"},
		Row{"system_id": int64(1), "species_code": "QUE"},
		Row{"system_id": int64(2), "species_code": "UNKNOWN"},
	)
	remote := newRowsTable([]string{"system_id", "code"}, Row{"system_id": int64(10), "code": "QUE"})
	fk := normalizeForeignKeyConfig(ForeignKeyConfig{
		RemoteEntity: "species", LocalKeys: []string{"species_code"}, RemoteKeys: []string{"code"},
		ExtraColumns: map[string]string{"species_id": "system_id"},
		Constraints:  ForeignKeyConstraints{AllowUnmatchedLeft: false},
	})

	report := &Report{}
	_, _, _ = ResolveForeignKey(local, "sample", fk, remote, nil, report)
	require.True(t, report.HasErrors())
	assert.Equal(t, KindConstraintViolation, report.Errors[0].Kind)
}

func TestResolveForeignKey_NullLocalKeyRejectedUnlessAllowed(t *testing.T) {
	local := newRowsTable([]string{"system_id", "species_code"}, Row{"system_id": int64(1), "species_code": nil})
	remote := newRowsTable([]string{"system_id", "code"}, Row{"system_id": int64(10), "code": "QUE"})
	fk := normalizeForeignKeyConfig(ForeignKeyConfig{
		RemoteEntity: "species", LocalKeys: []string{"species_code"}, RemoteKeys: []string{"code"},
		Constraints: ForeignKeyConstraints{AllowNullKeys: false},
	})

	report := &Report{}
	out, _, _ := ResolveForeignKey(local, "sample", fk, remote, nil, report)
	assert.True(t, report.HasErrors())
	assert.Equal(t, 0, out.NumRows())
}
