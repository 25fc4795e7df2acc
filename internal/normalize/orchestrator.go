package normalize

import "context"

// Store holds the fully processed tables produced by a Normalize run, keyed
// by entity name.
type Store struct {
	Tables map[string]*Table
}

// Get returns the processed table for name, or nil if it was never
// produced (e.g. the run halted before reaching it).
func (s *Store) Get(name string) *Table {
	return s.Tables[name]
}

const defaultMaxRounds = 50

// Normalize runs the full pipeline: validate the project, then repeatedly
// produce whichever entities are ready (all
// dependencies Done), applying unnest, drop-empty-rows, drop-duplicates,
// subset/surrogate-id assignment and foreign-key resolution to each, until
// every entity is Done or no further progress can be made.
//
// It always returns a Report; callers decide whether to treat warnings as
// fatal. A Report with errors means the run halted early (unless
// project.BestEffort is set, in which case per-entity errors are recorded
// but the run continues with whatever entities remain processable).
func Normalize(ctx context.Context, project *Project, registry *Registry) (*Store, *Report) {
	report := &Report{}

	cfgReport := ValidateProject(project)
	report.Merge(cfgReport)
	if report.HasErrors() && !project.BestEffort {
		return &Store{Tables: map[string]*Table{}}, report
	}

	store := &Store{Tables: make(map[string]*Table)}
	state := NewScheduleState()
	pendingUnnest := make(map[string]struct{})

	maxRounds := project.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	round := 0
	for len(state.Done) < len(project.Entities) {
		if err := ctx.Err(); err != nil {
			report.AddError(KindLoadFailed, "", "", "", "run cancelled: %v", err)
			break
		}
		round++
		if round > maxRounds {
			report.AddError(KindStalledDependency, "", "", "",
				"exceeded maximum scheduling rounds (%d) with entities still undone", maxRounds)
			break
		}

		ready := Ready(project, state)
		var pendingRetry []string
		for name := range pendingUnnest {
			if _, done := state.Done[name]; !done {
				pendingRetry = append(pendingRetry, name)
			}
		}
		candidates := mergeCandidates(ready, pendingRetry)

		if len(candidates) == 0 {
			if cyclic := DetectCycle(project, state); len(cyclic) > 0 {
				report.AddError(KindCircularDependency, "", "", "",
					"circular dependency prevents progress: %v", cyclic)
			} else {
				var stuck []string
				for _, n := range project.EntityNames() {
					if _, done := state.Done[n]; !done {
						stuck = append(stuck, n)
					}
				}
				report.AddError(KindPersistentDeferral, "", "", "",
					"no entity could be produced this round; remaining: %v", stuck)
			}
			break
		}

		progressed := false
		for _, name := range candidates {
			if report.HasErrors() && !project.BestEffort {
				break
			}
			entity := project.Entities[name]
			table, ok := produceEntity(ctx, project, registry, entity, store, report)
			if !ok {
				continue
			}
			if table == nil {
				pendingUnnest[name] = struct{}{}
				continue
			}
			delete(pendingUnnest, name)
			store.Tables[name] = table
			state.Done[name] = struct{}{}
			progressed = true
		}
		if report.HasErrors() && !project.BestEffort {
			break
		}

		if !progressed {
			if report.HasErrors() && !project.BestEffort {
				break
			}
			var stuck []string
			for name := range pendingUnnest {
				stuck = append(stuck, name)
			}
			if len(stuck) > 0 {
				report.AddError(KindPersistentDeferral, "", "", "",
					"entities remained deferred after a full round with no progress: %v", stuck)
			}
			break
		}
	}

	return store, report
}

func mergeCandidates(ready, retry []string) []string {
	seen := stringSet(ready)
	out := append([]string{}, ready...)
	for _, r := range retry {
		if _, ok := seen[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// produceEntity runs one entity through load(+append) -> unnest ->
// drop-empty-rows -> drop-duplicates -> subset/surrogate-id -> foreign-key
// resolution. Every entity's surrogate id independently starts at 1: the
// store only ever holds one finished table per entity, so there is no
// run-wide id space to protect, and invariant 1 requires each entity's
// system_id column to span 1..N on its own.
//
// It returns (nil, true) when the entity must be retried in a later round
// (an unnest or FK deferral), and (nil, false) when loading the entity
// failed. Errors raised by the later stages are recorded in report and the
// table is still returned.
func produceEntity(ctx context.Context, project *Project, registry *Registry, entity *EntityConfig, store *Store, report *Report) (*Table, bool) {
	raw, err := loadEntityWithAppend(ctx, project, registry, entity, store)
	if err != nil {
		report.AddError(KindLoadFailed, entity.Name, "", "", "load failed: %v", err)
		return nil, false
	}

	table, deferred := Unpivot(raw, entity.Name, entity.Unnest, report)
	if deferred {
		return nil, true
	}

	table = DropEmptyRows(table, entity.Name, entity.DropEmptyRows, report)
	table = DropDuplicates(table, entity.Name, entity.DropDuplicates, report)

	table = SubsetWithSurrogateID(table, entity, 1, report)

	allDeferred := false
	for _, fk := range entity.ForeignKeys {
		remoteEntity := project.Entities[fk.RemoteEntity]
		remoteTable := store.Get(fk.RemoteEntity)
		if remoteTable == nil {
			report.AddWarning(KindFKLocalKeysMissing, entity.Name, "", "",
				"foreign key to %q deferred: remote entity not yet produced", fk.RemoteEntity)
			allDeferred = true
			continue
		}
		merged, deferredFK, _ := ResolveForeignKey(table, entity.Name, fk, remoteTable, remoteEntity, report)
		if deferredFK {
			allDeferred = true
			continue
		}
		table = merged
	}
	if allDeferred {
		return nil, true
	}

	return table, true
}
