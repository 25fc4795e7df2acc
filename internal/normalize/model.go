package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Cardinality constrains the shape of a foreign-key join.
type Cardinality string

const (
	CardinalityManyToOne  Cardinality = "many_to_one"
	CardinalityOneToOne   Cardinality = "one_to_one"
	CardinalityOneToMany  Cardinality = "one_to_many"
	CardinalityManyToMany Cardinality = "many_to_many"
)

// JoinKind selects the merge semantics used when resolving a foreign key.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
	JoinOuter JoinKind = "outer"
	JoinCross JoinKind = "cross"
)

// ForeignKeyConstraints restricts what the resolver will silently accept
// when merging a local entity against a remote one. Mirrors the Python
// `ForeignKeyConstraints` dataclass in model.py.
type ForeignKeyConstraints struct {
	Cardinality            Cardinality
	AllowUnmatchedLeft     bool
	AllowUnmatchedRight    bool
	AllowRowDecrease       bool
	RequireUniqueLeft      bool
	RequireUniqueRight     bool
	AllowNullKeys          bool
	RequireAllLeftMatched  bool
	RequireAllRightMatched bool
	MinMatchRate           float64
	MaxRowIncreaseAbs      *int
	MaxRowIncreasePct      *float64
}

// DefaultForeignKeyConstraints mirrors the Python dataclass defaults:
// allow_null_keys=True, everything else False/zero-value cardinality.
func DefaultForeignKeyConstraints() ForeignKeyConstraints {
	return ForeignKeyConstraints{
		AllowNullKeys: true,
	}
}

// HasMatchConstraints reports whether the resolver must run its post-merge
// checks: true when any cardinality/uniqueness/match-rate/row-increase
// constraint is set, or when AllowUnmatchedLeft or AllowUnmatchedRight is
// false. Since both of those default to false, a zero-value (or default)
// constraint set also reports true.
func (c ForeignKeyConstraints) HasMatchConstraints() bool {
	return c.Cardinality != "" ||
		c.RequireUniqueLeft ||
		c.RequireUniqueRight ||
		c.RequireAllLeftMatched ||
		c.RequireAllRightMatched ||
		c.MinMatchRate > 0 ||
		c.MaxRowIncreaseAbs != nil ||
		c.MaxRowIncreasePct != nil ||
		!c.AllowUnmatchedLeft ||
		!c.AllowUnmatchedRight
}

// ForeignKeyConfig declares one outgoing link from an entity to a remote
// entity it depends on. ExtraColumns maps a new local column name to the
// remote source column it should be populated from, on top of the
// resolver's own {remote system_id -> remote public_id} rename (see
// resolvedExtraColumns).
type ForeignKeyConfig struct {
	RemoteEntity string
	LocalKeys    []string
	RemoteKeys   []string
	ExtraColumns map[string]string
	DropRemoteID bool
	How          JoinKind
	Constraints  ForeignKeyConstraints
}

func normalizeForeignKeyConfig(fk ForeignKeyConfig) ForeignKeyConfig {
	fk.LocalKeys = unique(fk.LocalKeys)
	fk.RemoteKeys = unique(fk.RemoteKeys)
	if fk.How == "" {
		fk.How = JoinInner
	}
	return fk
}

// resolvedExtraColumns returns the rename map applied to remote columns
// after the join: remote source column -> new local column name. The map
// always starts from {remote system_id -> remote public_id} when
// remoteEntity declares a public id — this is what propagates a parent's
// public_id into the child as the literal foreign-key column, independent
// of anything the caller declared — and then layers the declared
// ExtraColumns (new name -> source name, inverted) on top, which take
// precedence on conflict. Mirrors the Python `resolved_extra_columns()`.
func (fk ForeignKeyConfig) resolvedExtraColumns(remoteEntity *EntityConfig) map[string]string {
	out := make(map[string]string, len(fk.ExtraColumns)+1)
	if remoteEntity != nil && remoteEntity.PublicID != "" && remoteEntity.SurrogateID != "" {
		out[remoteEntity.SurrogateID] = remoteEntity.PublicID
	}
	for newName, sourceName := range fk.ExtraColumns {
		out[sourceName] = newName
	}
	return out
}

// getValidRemoteColumns returns the remote columns this FK actually needs
// (RemoteKeys plus the source side of ExtraColumns plus remoteEntity's
// system_id, so the auto public_id rename has something to read from),
// filtered against what the remote table declares, with the missing ones
// reported separately so the caller can emit a warning instead of silently
// dropping them.
func (fk ForeignKeyConfig) getValidRemoteColumns(remote *Table, remoteEntity *EntityConfig) (present []string, missing []string) {
	// ExtraColumns is keyed new-name -> source-name; the remote columns
	// actually required are RemoteKeys plus every source-name value plus
	// the remote's own surrogate id column.
	wanted := append([]string{}, fk.RemoteKeys...)
	for _, sourceName := range fk.ExtraColumns {
		wanted = append(wanted, sourceName)
	}
	if remoteEntity != nil && remoteEntity.SurrogateID != "" {
		wanted = append(wanted, remoteEntity.SurrogateID)
	}
	wanted = unique(wanted)
	for _, c := range wanted {
		if remote.HasColumn(c) {
			present = append(present, c)
		} else {
			missing = append(missing, c)
		}
	}
	return present, missing
}

// UnnestConfig declares a wide-to-long (melt) reshape applied to an entity
// before it is otherwise processed.
type UnnestConfig struct {
	IDVars    []string
	ValueVars []string
	VarName   string
	ValueName string
}

// Empty reports whether no unnest was configured at all.
func (u *UnnestConfig) Empty() bool {
	return u == nil
}

// EntityConfig is the declarative description of one table/entity in a
// Project, mirroring the Python `TableConfig`.
type EntityConfig struct {
	Name             string
	Type             string // loader driver name: "fixed", "postgres", "csv", "xlsx", "docx", "pdf", or "entity"
	DataSource       string // key into Project.DataSources, empty for "fixed"/"entity"
	Source           string // for Type=="entity": name of another entity whose produced output is this one's input
	SurrogateID      string // defaults to "system_id"
	PublicID         string
	Keys             []string
	Columns          []string
	Values           []Row // inline rows for Type=="fixed"
	SQLQuery         string
	CheckColumnNames bool
	AutoDetectCols   bool
	ExtraColumns     map[string]any // broadcast constants applied to every row after subsetting
	ForeignKeys      []ForeignKeyConfig
	Unnest           *UnnestConfig
	Append           []AppendItem
	AppendMode       string // "all" (default) or "distinct"
	DropDuplicates   DropDuplicatesConfig
	DropEmptyRows    DropEmptyRowsConfig
}

const (
	AppendModeAll      = "all"
	AppendModeDistinct = "distinct"
)

// AppendItem is one entry of an entity's Append list: either a reference to
// another already-produced entity's output (Source set), or a
// self-contained sub-table-config whose unset fields fall back to the
// parent entity's (Type/DataSource/Columns/Keys left empty inherit).
// Mirrors the Python `sub_table_configs` construction: foreign_keys,
// unnest, append, and append_mode never carry over from the parent into an
// append item, so they are not fields on AppendItem at all.
type AppendItem struct {
	Source     string
	Type       string
	DataSource string
	Values     []Row
	SQLQuery   string
	Columns    []string
	Keys       []string
}

// subConfig returns the EntityConfig used to load this append item's raw
// rows: a copy of parent with the non-inheritable fields stripped and any
// field the item sets overriding the parent's.
func (item AppendItem) subConfig(parent *EntityConfig) *EntityConfig {
	sub := *parent
	sub.Name = parent.Name
	sub.Source = item.Source
	sub.ForeignKeys = nil
	sub.Unnest = nil
	sub.Append = nil
	sub.AppendMode = ""
	sub.ExtraColumns = nil
	if item.Type != "" {
		sub.Type = item.Type
	}
	if item.DataSource != "" {
		sub.DataSource = item.DataSource
	}
	if item.Values != nil {
		sub.Values = item.Values
	}
	if item.SQLQuery != "" {
		sub.SQLQuery = item.SQLQuery
	}
	if item.Columns != nil {
		sub.Columns = item.Columns
	}
	if item.Keys != nil {
		sub.Keys = item.Keys
	}
	return &sub
}

// DropDuplicatesConfig controls the drop-duplicates transform primitive,
// mirroring the Python `drop_duplicate_rows` call shape: a disabled flag, an
// "all columns" mode, or an explicit subset, optionally gated by a
// functional-dependency check.
type DropDuplicatesConfig struct {
	Enabled     bool
	AllColumns  bool
	Subset      []string
	FDCheck     bool
	StrictFD    bool
}

// DropEmptyRowsConfig controls the drop-empty-rows transform primitive.
// Subset == nil means "all columns"; a non-empty EmptyValues map switches to
// per-column empty-value substitution before the row-wise dropna.
type DropEmptyRowsConfig struct {
	Enabled                bool
	Subset                 []string
	EmptyValues            map[string][]any
	TreatEmptyStringsAsNA  bool
}

func normalizeEntityConfig(e EntityConfig) EntityConfig {
	if e.SurrogateID == "" {
		e.SurrogateID = "system_id"
	}
	e.Keys = unique(e.Keys)
	e.Columns = unique(e.Columns)
	fks := make([]ForeignKeyConfig, len(e.ForeignKeys))
	for i, fk := range e.ForeignKeys {
		fks[i] = normalizeForeignKeyConfig(fk)
	}
	e.ForeignKeys = fks
	if len(e.Append) > 0 && e.AppendMode == "" {
		e.AppendMode = AppendModeAll
	}
	return e
}

// DataSourceConfig backs one entry of Project.DataSources: a named handle a
// loader implementation resolves into a live connection or file path.
type DataSourceConfig struct {
	Driver  string
	Options map[string]any
}

// Project is the root declarative model: a named set of entities plus the
// data sources they draw from.
type Project struct {
	Name        string
	Entities    map[string]*EntityConfig
	DataSources map[string]DataSourceConfig
	BestEffort  bool
	MaxRounds   int
}

// NewProject returns an empty, initialized Project.
func NewProject(name string) *Project {
	return &Project{
		Name:        name,
		Entities:    make(map[string]*EntityConfig),
		DataSources: make(map[string]DataSourceConfig),
	}
}

// AddEntity registers (and normalizes) an entity definition.
func (p *Project) AddEntity(e EntityConfig) {
	norm := normalizeEntityConfig(e)
	p.Entities[norm.Name] = &norm
}

// EntityExists reports whether name is a declared entity.
func (p *Project) EntityExists(name string) bool {
	_, ok := p.Entities[name]
	return ok
}

// GetEntity returns the named entity config, or nil if not declared.
func (p *Project) GetEntity(name string) *EntityConfig {
	return p.Entities[name]
}

// EntityNames returns all declared entity names in sorted order, giving
// every caller that needs a deterministic iteration order (the scheduler's
// tie-breaking, the report renderer) one canonical source.
func (p *Project) EntityNames() []string {
	names := make([]string, 0, len(p.Entities))
	for n := range p.Entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DependsOn returns the names of entities e cannot be produced before:
// every foreign key's remote entity, the entity e sources its rows from
// (Type=="entity"), and every append item's source, deduplicated and
// sorted.
func (e *EntityConfig) DependsOn() []string {
	var deps []string
	for _, fk := range e.ForeignKeys {
		deps = append(deps, fk.RemoteEntity)
	}
	if e.Source != "" {
		deps = append(deps, e.Source)
	}
	for _, item := range e.Append {
		if item.Source != "" {
			deps = append(deps, item.Source)
		}
	}
	deps = unique(deps)
	sort.Strings(deps)
	return deps
}

// getEntityColumns computes the full eventual column set of an entity once
// fully processed: surrogate id, public id (if any), declared columns/keys,
// extra columns contributed by foreign keys, and unnest var/value columns.
// Mirrors the Python `ProjectSpecification.get_entity_columns`.
func (e *EntityConfig) getEntityColumns() []string {
	cols := []string{e.SurrogateID}
	if e.PublicID != "" {
		cols = append(cols, e.PublicID)
	}
	cols = append(cols, e.Columns...)
	cols = append(cols, e.Keys...)
	for _, fk := range e.ForeignKeys {
		for newName := range fk.ExtraColumns {
			cols = append(cols, newName)
		}
	}
	for name := range e.ExtraColumns {
		cols = append(cols, name)
	}
	if e.Unnest != nil {
		cols = append(cols, e.Unnest.VarName, e.Unnest.ValueName)
	}
	return unique(cols)
}

// MetadataHash returns a stable content hash of the project's entity
// declarations, over a canonically key-sorted JSON encoding (Go's
// encoding/json already sorts map keys on marshal). Used to detect whether
// a previously computed schedule is still valid for a given project.
func (p *Project) MetadataHash() (string, error) {
	names := p.EntityNames()
	ordered := make([]*EntityConfig, 0, len(names))
	for _, n := range names {
		ordered = append(ordered, p.Entities[n])
	}
	buf, err := json.Marshal(ordered)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
