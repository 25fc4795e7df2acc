package normalize

import "fmt"

// ValidateProject runs the pre-run configuration checks over the static
// project model, before any loader is invoked: every referenced entity/
// data source must exist and the dependency graph must be acyclic. A
// surrogate id column name shared by several entities is reported as a
// warning, not an error.
func ValidateProject(project *Project) *Report {
	report := &Report{}

	surrogateOwners := make(map[string][]string)
	for _, name := range project.EntityNames() {
		entity := project.Entities[name]

		if entity.Type == "entity" {
			if entity.Source == "" {
				report.AddError(KindMissingRequiredField, name, "source", "",
					"entity type \"entity\" requires source")
			} else if !project.EntityExists(entity.Source) {
				report.AddError(KindUnknownEntity, name, "source", "",
					"source references undeclared entity %q", entity.Source)
			}
		} else if entity.Type != "fixed" && entity.DataSource != "" {
			if _, ok := project.DataSources[entity.DataSource]; !ok {
				report.AddError(KindUnknownDataSource, name, "data_source", "",
					"references undeclared data source %q", entity.DataSource)
			}
		}

		for i, item := range entity.Append {
			if item.Source == "" {
				continue
			}
			if !project.EntityExists(item.Source) {
				report.AddError(KindUnknownEntity, name, "append", "",
					"append item %d references undeclared entity %q", i, item.Source)
			}
		}

		for _, fk := range entity.ForeignKeys {
			if !project.EntityExists(fk.RemoteEntity) {
				report.AddError(KindUnknownEntity, name, "foreign_keys", "",
					"foreign key references undeclared entity %q", fk.RemoteEntity)
				continue
			}
			if fk.How == JoinCross {
				if len(fk.LocalKeys) > 0 || len(fk.RemoteKeys) > 0 {
					report.AddError(KindInvalidForeignKey, name, "foreign_keys", "",
						"cross join to %q must not declare local_keys/remote_keys", fk.RemoteEntity)
				}
			} else if len(fk.LocalKeys) == 0 || len(fk.RemoteKeys) == 0 {
				report.AddError(KindInvalidForeignKey, name, "foreign_keys", "",
					"foreign key to %q must declare at least one local and remote key", fk.RemoteEntity)
			} else if len(fk.LocalKeys) != len(fk.RemoteKeys) {
				report.AddError(KindInvalidForeignKey, name, "foreign_keys", "",
					"foreign key to %q has %d local keys but %d remote keys",
					fk.RemoteEntity, len(fk.LocalKeys), len(fk.RemoteKeys))
			}
		}

		surrogateOwners[entity.SurrogateID] = append(surrogateOwners[entity.SurrogateID], name)
	}

	for id, owners := range surrogateOwners {
		if len(owners) > 1 {
			// A shared surrogate id column name across distinct entities is
			// only a problem once those tables are combined by a caller;
			// within this engine it is merely unusual, so this is a warning.
			report.AddWarning(KindDuplicateSurrogateID, "", "", id,
				"surrogate id %q is used by multiple entities: %v", id, owners)
		}
	}

	state := NewScheduleState()
	for i := 0; i < len(project.Entities)+1; i++ {
		ready := Ready(project, state)
		if len(ready) == 0 {
			break
		}
		for _, name := range ready {
			state.Done[name] = struct{}{}
		}
	}
	if cyclic := DetectCycle(project, state); len(cyclic) > 0 {
		report.AddError(KindCircularDependency, "", "", "",
			"circular dependency among entities: %v", cyclic)
	}

	return report
}

// RequireField returns an error if v is the zero value for a required
// string field.
func RequireField(entity, field, v string) error {
	if v == "" {
		return fmt.Errorf("entity %q: %s is required", entity, field)
	}
	return nil
}
