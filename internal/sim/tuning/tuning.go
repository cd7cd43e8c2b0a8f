package tuning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.schema.json
var schemaJSON string

type Tuning struct {
	Seed        int64 `yaml:"seed" json:"seed"`
	RegionSize  int   `yaml:"region_size" json:"region_size"`
	FacetBorder int   `yaml:"facet_border" json:"facet_border"`
	Parallelism int   `yaml:"parallelism" json:"parallelism"`

	Graph GraphTuning `yaml:"graph" json:"graph"`
}

type GraphTuning struct {
	CellSize         int `yaml:"cell_size" json:"cell_size"`
	BucketSize       int `yaml:"bucket_size" json:"bucket_size"`
	MaxCachedRegions int `yaml:"max_cached_regions" json:"max_cached_regions"`
}

func Defaults() Tuning {
	return Tuning{
		Seed:        1337,
		RegionSize:  256,
		FacetBorder: 8,
		Parallelism: 4,
		Graph: GraphTuning{
			CellSize:         16,
			BucketSize:       32,
			MaxCachedRegions: 256,
		},
	}
}

// Load reads a tuning file on top of Defaults. An empty path returns the
// defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (Tuning, error) {
	t := Defaults()
	if err := validateSchema(raw); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.RegionSize <= 0 {
		return fmt.Errorf("region_size must be > 0")
	}
	if t.FacetBorder < 0 {
		return fmt.Errorf("facet_border must be >= 0")
	}
	if t.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be > 0")
	}
	if t.Graph.CellSize <= 0 || t.Graph.CellSize > t.RegionSize {
		return fmt.Errorf("graph.cell_size must be in (0, region_size]")
	}
	if t.Graph.BucketSize < 0 {
		return fmt.Errorf("graph.bucket_size must be >= 0")
	}
	if t.Graph.MaxCachedRegions < 0 {
		return fmt.Errorf("graph.max_cached_regions must be >= 0")
	}
	return nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("tuning.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

func validateSchema(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		// Empty file: nothing to override.
		return nil
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return s.Validate(v)
}
