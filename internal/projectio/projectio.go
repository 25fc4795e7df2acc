// Package projectio loads a declarative project document (YAML) into a
// normalize.Project. It is deliberately a collaborator, not part of the
// core: the core package never imports a YAML library, and include-
// directive resolution (if any) happens here, before the core ever sees
// the model.
package projectio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

// doc mirrors the project configuration document's on-disk shape.
type doc struct {
	Name        string                  `yaml:"name"`
	BestEffort  bool                    `yaml:"best_effort"`
	MaxRounds   int                     `yaml:"max_rounds"`
	DataSources map[string]dataSource   `yaml:"data_sources"`
	Entities    map[string]entityDoc    `yaml:"entities"`
}

type dataSource struct {
	Driver  string         `yaml:"driver"`
	Options map[string]any `yaml:"options"`
}

type entityDoc struct {
	Type             string             `yaml:"type"`
	DataSource       string             `yaml:"data_source"`
	Source           string             `yaml:"source"`
	SurrogateID      string             `yaml:"surrogate_id"`
	PublicID         string             `yaml:"public_id"`
	Keys             []string           `yaml:"keys"`
	Columns          []string           `yaml:"columns"`
	Values           []map[string]any   `yaml:"values"`
	SQLQuery         string             `yaml:"sql_query"`
	CheckColumnNames *bool              `yaml:"check_column_names"`
	AutoDetectCols   bool               `yaml:"auto_detect_columns"`
	ExtraColumns     map[string]any     `yaml:"extra_columns"`
	ForeignKeys      []foreignKeyDoc    `yaml:"foreign_keys"`
	Unnest           *unnestDoc         `yaml:"unnest"`
	Append           []appendItemDoc    `yaml:"append"`
	AppendMode       string             `yaml:"append_mode"`
	DropDuplicates   *dropDuplicatesDoc `yaml:"drop_duplicates"`
	DropEmptyRows    *dropEmptyRowsDoc  `yaml:"drop_empty_rows"`
}

type appendItemDoc struct {
	Source     string            `yaml:"source"`
	Type       string            `yaml:"type"`
	DataSource string            `yaml:"data_source"`
	Values     []map[string]any  `yaml:"values"`
	SQLQuery   string            `yaml:"sql_query"`
	Columns    []string          `yaml:"columns"`
	Keys       []string          `yaml:"keys"`
}

type foreignKeyDoc struct {
	RemoteEntity string            `yaml:"remote_entity"`
	LocalKeys    []string          `yaml:"local_keys"`
	RemoteKeys   []string          `yaml:"remote_keys"`
	ExtraColumns map[string]string `yaml:"extra_columns"`
	DropRemoteID bool              `yaml:"drop_remote_id"`
	How          string            `yaml:"how"`
	Constraints  *constraintsDoc   `yaml:"constraints"`
}

type constraintsDoc struct {
	Cardinality            string   `yaml:"cardinality"`
	AllowUnmatchedLeft     bool     `yaml:"allow_unmatched_left"`
	AllowUnmatchedRight    bool     `yaml:"allow_unmatched_right"`
	AllowRowDecrease       bool     `yaml:"allow_row_decrease"`
	RequireUniqueLeft      bool     `yaml:"require_unique_left"`
	RequireUniqueRight     bool     `yaml:"require_unique_right"`
	AllowNullKeys          *bool    `yaml:"allow_null_keys"`
	RequireAllLeftMatched  bool     `yaml:"require_all_left_matched"`
	RequireAllRightMatched bool     `yaml:"require_all_right_matched"`
	MinMatchRate           float64  `yaml:"min_match_rate"`
	MaxRowIncreaseAbs      *int     `yaml:"max_row_increase_abs"`
	MaxRowIncreasePct      *float64 `yaml:"max_row_increase_pct"`
}

type unnestDoc struct {
	IDVars    []string `yaml:"id_vars"`
	ValueVars []string `yaml:"value_vars"`
	VarName   string   `yaml:"var_name"`
	ValueName string   `yaml:"value_name"`
}

type dropDuplicatesDoc struct {
	Enabled    bool     `yaml:"enabled"`
	AllColumns bool     `yaml:"all_columns"`
	Subset     []string `yaml:"subset"`
	FDCheck    bool     `yaml:"fd_check"`
	StrictFD   bool     `yaml:"strict_fd"`
}

type dropEmptyRowsDoc struct {
	Enabled               bool                 `yaml:"enabled"`
	Subset                []string             `yaml:"subset"`
	EmptyValues           map[string][]any     `yaml:"empty_values"`
	TreatEmptyStringsAsNA *bool                `yaml:"treat_empty_strings_as_na"`
}

// Load reads and decodes the project document at path.
func Load(path string) (*normalize.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project document %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a project document already read into memory. The document
// is first unmarshalled into a plain map so structural errors are reported
// with yaml's own line/column context, then re-marshalled into the typed
// doc struct.
func Parse(data []byte) (*normalize.Project, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing project document: %w", err)
	}

	reencoded, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encoding project document: %w", err)
	}

	var d doc
	if err := yaml.Unmarshal(reencoded, &d); err != nil {
		return nil, fmt.Errorf("decoding project document: %w", err)
	}

	return toProject(d), nil
}

func toProject(d doc) *normalize.Project {
	p := normalize.NewProject(d.Name)
	p.BestEffort = d.BestEffort
	p.MaxRounds = d.MaxRounds

	for name, ds := range d.DataSources {
		p.DataSources[name] = normalize.DataSourceConfig{Driver: ds.Driver, Options: ds.Options}
	}

	for name, e := range d.Entities {
		p.AddEntity(toEntityConfig(name, e))
	}

	return p
}

func toEntityConfig(name string, e entityDoc) normalize.EntityConfig {
	values := make([]normalize.Row, len(e.Values))
	for i, v := range e.Values {
		row := make(normalize.Row, len(v))
		for k, val := range v {
			row[k] = val
		}
		values[i] = row
	}

	cfg := normalize.EntityConfig{
		Name:             name,
		Type:             e.Type,
		DataSource:       e.DataSource,
		Source:           e.Source,
		SurrogateID:      e.SurrogateID,
		PublicID:         e.PublicID,
		Keys:             e.Keys,
		Columns:          e.Columns,
		Values:           values,
		SQLQuery:         e.SQLQuery,
		CheckColumnNames: boolOr(e.CheckColumnNames, true),
		AutoDetectCols:   e.AutoDetectCols,
		ExtraColumns:     e.ExtraColumns,
		AppendMode:       e.AppendMode,
	}

	for _, fk := range e.ForeignKeys {
		cfg.ForeignKeys = append(cfg.ForeignKeys, toForeignKeyConfig(fk))
	}
	for _, item := range e.Append {
		cfg.Append = append(cfg.Append, toAppendItem(item))
	}
	if e.Unnest != nil {
		cfg.Unnest = &normalize.UnnestConfig{
			IDVars: e.Unnest.IDVars, ValueVars: e.Unnest.ValueVars,
			VarName: e.Unnest.VarName, ValueName: e.Unnest.ValueName,
		}
	}
	if e.DropDuplicates != nil {
		cfg.DropDuplicates = normalize.DropDuplicatesConfig{
			Enabled: e.DropDuplicates.Enabled, AllColumns: e.DropDuplicates.AllColumns,
			Subset: e.DropDuplicates.Subset, FDCheck: e.DropDuplicates.FDCheck, StrictFD: e.DropDuplicates.StrictFD,
		}
	}
	if e.DropEmptyRows != nil {
		cfg.DropEmptyRows = normalize.DropEmptyRowsConfig{
			Enabled: e.DropEmptyRows.Enabled, Subset: e.DropEmptyRows.Subset,
			EmptyValues:           e.DropEmptyRows.EmptyValues,
			TreatEmptyStringsAsNA: boolOr(e.DropEmptyRows.TreatEmptyStringsAsNA, true),
		}
	}
	return cfg
}

func toForeignKeyConfig(fk foreignKeyDoc) normalize.ForeignKeyConfig {
	cfg := normalize.ForeignKeyConfig{
		RemoteEntity: fk.RemoteEntity,
		LocalKeys:    fk.LocalKeys,
		RemoteKeys:   fk.RemoteKeys,
		ExtraColumns: fk.ExtraColumns,
		DropRemoteID: fk.DropRemoteID,
		How:          normalize.JoinKind(fk.How),
		Constraints:  normalize.DefaultForeignKeyConstraints(),
	}
	if fk.Constraints != nil {
		cfg.Constraints = normalize.ForeignKeyConstraints{
			Cardinality:            normalize.Cardinality(fk.Constraints.Cardinality),
			AllowUnmatchedLeft:     fk.Constraints.AllowUnmatchedLeft,
			AllowUnmatchedRight:    fk.Constraints.AllowUnmatchedRight,
			AllowRowDecrease:       fk.Constraints.AllowRowDecrease,
			RequireUniqueLeft:      fk.Constraints.RequireUniqueLeft,
			RequireUniqueRight:     fk.Constraints.RequireUniqueRight,
			AllowNullKeys:          boolOr(fk.Constraints.AllowNullKeys, true),
			RequireAllLeftMatched:  fk.Constraints.RequireAllLeftMatched,
			RequireAllRightMatched: fk.Constraints.RequireAllRightMatched,
			MinMatchRate:           fk.Constraints.MinMatchRate,
			MaxRowIncreaseAbs:      fk.Constraints.MaxRowIncreaseAbs,
			MaxRowIncreasePct:      fk.Constraints.MaxRowIncreasePct,
		}
	}
	return cfg
}

func toAppendItem(item appendItemDoc) normalize.AppendItem {
	var values []normalize.Row
	if len(item.Values) > 0 {
		values = make([]normalize.Row, len(item.Values))
		for i, v := range item.Values {
			row := make(normalize.Row, len(v))
			for k, val := range v {
				row[k] = val
			}
			values[i] = row
		}
	}
	return normalize.AppendItem{
		Source:     item.Source,
		Type:       item.Type,
		DataSource: item.DataSource,
		Values:     values,
		SQLQuery:   item.SQLQuery,
		Columns:    item.Columns,
		Keys:       item.Keys,
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
