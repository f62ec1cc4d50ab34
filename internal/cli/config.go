package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/google/uuid"

	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/metadata"
)

//go:embed config.cue
var configSchema string

// Config is the decoded form of a CUE config file. Command-line flags
// override its fields.
type Config struct {
	ByteOrder                string `json:"byte_order,omitempty"`
	UUID                     string `json:"uuid,omitempty"`
	AllowDuplicateAttributes bool   `json:"allow_duplicate_attributes,omitempty"`
	Catalog                  string `json:"catalog,omitempty"`
}

// ConfigError is a config file rejected by the #Config schema.
type ConfigError struct {
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadConfig reads and validates the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(path, data)
}

// ParseConfig unifies data with #Config and decodes the result. filename
// only labels error positions.
func ParseConfig(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema, cue.Filename("config.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	value = schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Message: err.Error()}
	}
	first := errs[0]
	ce := &ConfigError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// Options converts the config into generator options.
func (c *Config) Options() (metadata.Options, error) {
	var opts metadata.Options

	bo, err := ctf.ParseByteOrder(c.ByteOrder)
	if err != nil {
		return opts, err
	}
	opts.ByteOrder = bo

	if c.UUID != "" {
		u, err := uuid.Parse(c.UUID)
		if err != nil {
			return opts, fmt.Errorf("invalid uuid %q: %w", c.UUID, err)
		}
		opts.UUID = &u
	}

	opts.AllowDuplicateAttributes = c.AllowDuplicateAttributes
	return opts, nil
}
