package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/chatprobe/internal/indicators"
	"github.com/ternarybob/chatprobe/internal/models"
)

// File is the declarative form of a scenario file
type File struct {
	Scenarios []ScenarioSpec `toml:"scenarios" yaml:"scenarios" validate:"required,min=1,dive"`
}

// ScenarioSpec declares one scenario
type ScenarioSpec struct {
	Ordinal  int         `toml:"ordinal" yaml:"ordinal" validate:"gte=1"`
	Name     string      `toml:"name" yaml:"name" validate:"required"`
	Title    string      `toml:"title" yaml:"title"`
	Path     string      `toml:"path" yaml:"path"`
	Input    string      `toml:"input" yaml:"input"`
	Settle   string      `toml:"settle" yaml:"settle" validate:"omitempty,oneof=navigation chat aggregation"`
	Artifact string      `toml:"artifact" yaml:"artifact"`
	Groups   []GroupSpec `toml:"groups" yaml:"groups" validate:"required,min=1,dive"`
}

// GroupSpec declares one indicator group
type GroupSpec struct {
	Label      string          `toml:"label" yaml:"label" validate:"required"`
	Predicates []PredicateSpec `toml:"predicates" yaml:"predicates" validate:"required,min=1,dive"`
}

// PredicateSpec declares one predicate; Count is read by min_count only
type PredicateSpec struct {
	Type   string   `toml:"type" yaml:"type" validate:"required,oneof=contains contains_any contains_all min_count not_contains"`
	Values []string `toml:"values" yaml:"values" validate:"required,min=1"`
	Count  int      `toml:"count" yaml:"count" validate:"gte=0"`
}

// LoadFiles reads every file, validates it and returns the combined scenarios sorted by ordinal
func LoadFiles(paths ...string) ([]models.Scenario, error) {
	var all []models.Scenario
	for _, path := range paths {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, loaded...)
	}

	if err := checkUnique(all); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Ordinal < all[j].Ordinal
	})
	return all, nil
}

// LoadFile reads one TOML (.toml) or YAML (.yaml, .yml) scenario file
func LoadFile(path string) ([]models.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported scenario file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	scenarios, err := file.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid scenario file %s: %w", path, err)
	}
	return scenarios, nil
}

// Build validates the declaration and converts it to scenarios
func (f *File) Build() ([]models.Scenario, error) {
	if err := validator.New().Struct(f); err != nil {
		return nil, err
	}

	scenarios := make([]models.Scenario, 0, len(f.Scenarios))
	for _, spec := range f.Scenarios {
		scenario, err := spec.build()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func (s ScenarioSpec) build() (models.Scenario, error) {
	scenario := models.Scenario{
		Ordinal:          s.Ordinal,
		Name:             s.Name,
		Title:            s.Title,
		Path:             s.Path,
		Input:            s.Input,
		Settle:           models.SettleKind(s.Settle),
		ArtifactTemplate: s.Artifact,
	}

	// Omitted settle: a chat query waits like a chat reply, a page visit like a navigation
	if scenario.Settle == "" {
		scenario.Settle = models.SettleNavigation
		if scenario.Interacts() {
			scenario.Settle = models.SettleChat
		}
	}

	for _, groupSpec := range s.Groups {
		group := models.IndicatorGroup{Label: groupSpec.Label}
		for _, predicateSpec := range groupSpec.Predicates {
			predicate, err := indicators.Build(predicateSpec.Type, predicateSpec.Values, predicateSpec.Count)
			if err != nil {
				return models.Scenario{}, fmt.Errorf("scenario %d (%s) group %q: %w", s.Ordinal, s.Name, groupSpec.Label, err)
			}
			group.Predicates = append(group.Predicates, predicate)
		}
		scenario.Groups = append(scenario.Groups, group)
	}

	if err := scenario.Validate(); err != nil {
		return models.Scenario{}, err
	}
	return scenario, nil
}

func checkUnique(all []models.Scenario) error {
	ordinals := make(map[int]string, len(all))
	names := make(map[string]int, len(all))
	for _, scenario := range all {
		if other, exists := ordinals[scenario.Ordinal]; exists {
			return fmt.Errorf("duplicate scenario ordinal %d (%s and %s)", scenario.Ordinal, other, scenario.Name)
		}
		if other, exists := names[scenario.Name]; exists {
			return fmt.Errorf("duplicate scenario name %q (ordinals %d and %d)", scenario.Name, other, scenario.Ordinal)
		}
		ordinals[scenario.Ordinal] = scenario.Name
		names[scenario.Name] = scenario.Ordinal
	}
	return nil
}
