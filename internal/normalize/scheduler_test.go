package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildChainProject() *Project {
	p := NewProject("chain")
	p.AddEntity(EntityConfig{Name: "a", Type: "fixed"})
	p.AddEntity(EntityConfig{Name: "b", Type: "fixed", ForeignKeys: []ForeignKeyConfig{
		{RemoteEntity: "a", LocalKeys: []string{"a_id"}, RemoteKeys: []string{"system_id"}},
	}})
	p.AddEntity(EntityConfig{Name: "c", Type: "fixed", ForeignKeys: []ForeignKeyConfig{
		{RemoteEntity: "b", LocalKeys: []string{"b_id"}, RemoteKeys: []string{"system_id"}},
	}})
	return p
}

func TestReady_OnlyRootsFirst(t *testing.T) {
	p := buildChainProject()
	state := NewScheduleState()
	ready := Ready(p, state)
	assert.Equal(t, []string{"a"}, ready)
}

func TestReady_AdvancesAsDependenciesComplete(t *testing.T) {
	p := buildChainProject()
	state := NewScheduleState()
	state.Done["a"] = struct{}{}
	assert.Equal(t, []string{"b"}, Ready(p, state))

	state.Done["b"] = struct{}{}
	assert.Equal(t, []string{"c"}, Ready(p, state))
}

func TestDetectCycle_FindsMutualDependency(t *testing.T) {
	p := NewProject("cyclic")
	p.AddEntity(EntityConfig{Name: "x", Type: "fixed", ForeignKeys: []ForeignKeyConfig{
		{RemoteEntity: "y", LocalKeys: []string{"y_id"}, RemoteKeys: []string{"system_id"}},
	}})
	p.AddEntity(EntityConfig{Name: "y", Type: "fixed", ForeignKeys: []ForeignKeyConfig{
		{RemoteEntity: "x", LocalKeys: []string{"x_id"}, RemoteKeys: []string{"system_id"}},
	}})

	state := NewScheduleState()
	cyclic := DetectCycle(p, state)
	assert.Equal(t, []string{"x", "y"}, cyclic)
}

func TestDetectCycle_EmptyForAcyclicProject(t *testing.T) {
	p := buildChainProject()
	state := NewScheduleState()
	assert.Empty(t, DetectCycle(p, state))
}
