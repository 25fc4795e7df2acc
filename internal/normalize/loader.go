package normalize

import "context"

// Loader loads the raw rows for one entity from whatever backs it — an
// inline fixture, a SQL query, a spreadsheet, a document. Concrete drivers
// live in internal/loaders/*; the core only depends on this interface.
type Loader interface {
	// Load returns the entity's raw table, with columns in the order the
	// source produced them. Load must not apply any normalization-engine
	// semantics (no surrogate id assignment, no FK resolution) — it is a
	// pure data-acquisition step.
	Load(ctx context.Context, entity *EntityConfig, source DataSourceConfig) (*Table, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, entity *EntityConfig, source DataSourceConfig) (*Table, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, entity *EntityConfig, source DataSourceConfig) (*Table, error) {
	return f(ctx, entity, source)
}

// Registry dispatches an entity's Type to the Loader registered for it.
type Registry struct {
	drivers map[string]Loader
}

// NewRegistry returns an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Loader)}
}

// Register associates a driver name (an EntityConfig.Type value) with a
// Loader implementation.
func (r *Registry) Register(driver string, loader Loader) {
	r.drivers[driver] = loader
}

// Resolve returns the Loader registered for driver, or nil if none was.
func (r *Registry) Resolve(driver string) (Loader, bool) {
	l, ok := r.drivers[driver]
	return l, ok
}

// Load looks up the loader for entity.Type and invokes it against source.
// Returns a KindLoadFailed Error if no loader is registered for the type.
func (r *Registry) Load(ctx context.Context, entity *EntityConfig, source DataSourceConfig) (*Table, error) {
	loader, ok := r.Resolve(entity.Type)
	if !ok {
		return nil, newError(KindLoadFailed, entity.Name, "", "", "no loader registered for entity type %q", entity.Type)
	}
	return loader.Load(ctx, entity, source)
}
