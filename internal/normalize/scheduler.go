package normalize

import "sort"

// ScheduleState tracks which entities have been fully produced, which are
// waiting on a dependency, and which are still untouched, across the
// iterative "produce what's ready, retry the rest" loop. The readiness
// check is Kahn's-algorithm-style (alphabetical tie-breaking among ready
// entities) but iterative rather than a single static sort, since an
// entity whose unnest or foreign key deferred is retried in a later round.
type ScheduleState struct {
	Done     map[string]struct{}
	Deferred map[string]struct{}
}

// NewScheduleState returns an empty state.
func NewScheduleState() *ScheduleState {
	return &ScheduleState{
		Done:     make(map[string]struct{}),
		Deferred: make(map[string]struct{}),
	}
}

// Ready returns the names of entities whose dependencies are all Done,
// excluding ones already Done, sorted alphabetically for determinism.
func Ready(project *Project, state *ScheduleState) []string {
	var ready []string
	for _, name := range project.EntityNames() {
		if _, done := state.Done[name]; done {
			continue
		}
		entity := project.Entities[name]
		if allDone(entity.DependsOn(), state.Done) {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)
	return ready
}

func allDone(names []string, done map[string]struct{}) bool {
	for _, n := range names {
		if _, ok := done[n]; !ok {
			return false
		}
	}
	return true
}

// DetectCycle returns the sorted names of entities that can never become
// Ready because they and their remaining dependents form (or depend on) a
// cycle — the in-degree map never reaches zero for them. Mirrors the
// corpus's stall-detection branch in the topological sorter, but is used
// here only to produce a diagnostic: the orchestrator reports it as
// KindCircularDependency rather than silently forcing a break, since
// forcing an arbitrary edge in a data-dependency graph (unlike a DDL
// dependency graph) would silently produce wrong data.
func DetectCycle(project *Project, state *ScheduleState) []string {
	remaining := make(map[string]struct{})
	for _, name := range project.EntityNames() {
		if _, done := state.Done[name]; !done {
			remaining[name] = struct{}{}
		}
	}
	resolved := make(map[string]struct{}, len(state.Done))
	for name := range state.Done {
		resolved[name] = struct{}{}
	}
	changed := true
	for changed {
		changed = false
		for name := range remaining {
			entity := project.Entities[name]
			stillWaiting := false
			for _, dep := range entity.DependsOn() {
				if _, ok := remaining[dep]; ok {
					stillWaiting = true
					break
				}
				if _, ok := resolved[dep]; !ok {
					stillWaiting = true
					break
				}
			}
			if !stillWaiting {
				delete(remaining, name)
				resolved[name] = struct{}{}
				changed = true
			}
		}
	}
	var cyclic []string
	for name := range remaining {
		cyclic = append(cyclic, name)
	}
	sort.Strings(cyclic)
	return cyclic
}
