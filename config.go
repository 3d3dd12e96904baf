package fragmentdiff

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// defaultMaxDepth bounds decode and merge recursion against a
// maliciously deep input tree (spec.md §5). The Rust original has no
// such guard; a server is trusted, but this package is written for a
// client that isn't in a position to trust its transport.
const defaultMaxDepth = 256

var configValidator = validator.New()

// Config tunes how permissive decoding is and how deep recursive
// operations may go before returning a depth-exceeded error instead of
// overflowing the Go call stack.
type Config struct {
	// MaxDepth bounds decode and merge recursion; Render takes no Config
	// and applies no depth limit of its own. Zero falls back to
	// defaultMaxDepth at validation time, not at use time, so a caller
	// inspecting a zero-value Config sees the literal zero.
	MaxDepth int `yaml:"max_depth" validate:"gte=0"`

	// StrictUnknownKeys rejects any object key decode doesn't recognize
	// at that position instead of silently ignoring it. Off by default
	// because the wire protocol has grown new reserved keys over time
	// (spec.md §4.1) and a client built against an older spec revision
	// should keep working against a newer server.
	StrictUnknownKeys bool `yaml:"strict_unknown_keys"`
}

// DefaultConfig returns the Config package-level functions use when no
// explicit Config is supplied: a 256-frame depth guard and lenient
// unknown-key handling.
func DefaultConfig() Config {
	return Config{MaxDepth: defaultMaxDepth, StrictUnknownKeys: false}
}

// Validate checks Config's field constraints and normalizes a zero
// MaxDepth to defaultMaxDepth.
func (cfg *Config) Validate() error {
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if err := configValidator.Struct(cfg); err != nil {
		return fmt.Errorf("fragmentdiff: invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML-encoded Config from path, applying
// DefaultConfig's values to any field the file leaves unset and
// validating the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("fragmentdiff: reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes into a Config, starting from
// DefaultConfig so that a file specifying only one field still gets
// sensible values for the rest.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("fragmentdiff: parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
