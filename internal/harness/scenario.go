package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the path of the serialized syntax tree to compile.
	// LoadScenario resolves it relative to the scenario file.
	Document string `yaml:"document"`

	// Options seed the generator.
	Options Options `yaml:"options,omitempty"`

	// Expect, when set, requires compilation to fail.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the compiled trace. Required unless Expect is set.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Options mirrors metadata.Options in YAML form.
type Options struct {
	ByteOrder                string `yaml:"byte_order,omitempty"`
	UUID                     string `yaml:"uuid,omitempty"`
	AllowDuplicateAttributes bool   `yaml:"allow_duplicate_attributes,omitempty"`
}

// ExpectClause specifies an expected compilation failure.
type ExpectClause struct {
	// Error must be a substring of the compiler's error message.
	Error string `yaml:"error"`
}

// Assertion validates the compiled trace or its catalog rows.
type Assertion struct {
	// Type selects the check, see the Assert* constants.
	Type string `yaml:"type"`

	// Value is the expected byte order (byte_order).
	Value string `yaml:"value,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Events is the expected declaration order (event_order).
	Events []string `yaml:"events,omitempty"`

	// Event names the event (event_declared, field_kind).
	Event string `yaml:"event,omitempty"`

	// Stream restricts event_declared to one stream id.
	Stream *int64 `yaml:"stream,omitempty"`

	// Field and Kind are checked by field_kind.
	Field string `yaml:"field,omitempty"`
	Kind  string `yaml:"kind,omitempty"`

	// Table, Where and Expect drive catalog_row. Where must select exactly
	// one row; Expect is a subset match on its columns.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertByteOrder     = "byte_order"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertEventDeclared = "event_declared"
	AssertFieldKind     = "field_kind"
	AssertCatalogRow    = "catalog_row"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario directly under dir, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Document == "" {
		return fmt.Errorf("document is required")
	}
	if _, err := os.Stat(s.Document); os.IsNotExist(err) {
		return fmt.Errorf("document not found: %s", s.Document)
	}

	if s.Expect != nil {
		if s.Expect.Error == "" {
			return fmt.Errorf("expect: error is required")
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with an expected error")
		}
		return nil
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertByteOrder:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for byte_order", index)
		}
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventDeclared:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_declared", index)
		}
	case AssertFieldKind:
		if a.Event == "" || a.Field == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: event, field and kind are required for field_kind", index)
		}
	case AssertCatalogRow:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for catalog_row", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for catalog_row", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
