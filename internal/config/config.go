// Package config holds the emulator's process configuration. The
// on-disk format is HCL; a handful of HEARTH_* environment variables
// overlay the file, and explicit command-line flags overlay both.
// Configuration is an explicit value passed into the store and
// dispatcher at construction time; there is no process-wide mutable
// default.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/mitchellh/mapstructure"
	"github.com/zclconf/go-cty/cty"
)

// EnvPrefix marks environment variables that override file settings,
// e.g. HEARTH_PROJECT_ID or HEARTH_LISTEN_ADDR.
const EnvPrefix = "HEARTH_"

// Config is the root configuration.
type Config struct {
	// ProjectID and DatabaseID identify the single emulated database
	// instance. Every resource name served must carry this pair.
	ProjectID  string `hcl:"project_id" mapstructure:"project_id"`
	DatabaseID string `hcl:"database_id,optional" mapstructure:"database_id"`

	// ListenAddr is the host:port the REST surface binds to.
	ListenAddr string `hcl:"listen_addr,optional" mapstructure:"listen_addr"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional" mapstructure:"log_level"`

	// Auth configures the authentication emulator.
	Auth *Auth `hcl:"auth,block" mapstructure:"auth"`
}

// Auth configures the authentication emulator's account table.
type Auth struct {
	Enabled bool `hcl:"enabled,optional" mapstructure:"enabled"`

	// DatabasePath is the SQLite path for the account table. The
	// default keeps accounts in memory for the process lifetime.
	DatabasePath string `hcl:"database_path,optional" mapstructure:"database_path"`
}

// Default returns the zero-config settings used when no file is given.
func Default() *Config {
	return &Config{
		ProjectID:  "demo-hearth",
		DatabaseID: "(default)",
		ListenAddr: "127.0.0.1:8790",
		LogLevel:   "info",
		Auth: &Auth{
			Enabled:      true,
			DatabasePath: "file::memory:?cache=shared",
		},
	}
}

// FromFile loads configuration from an HCL file, starting from the
// defaults so omitted attributes keep their default values.
func FromFile(path string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
	}
	if cfg.Auth == nil {
		cfg.Auth = Default().Auth
	}
	return cfg, nil
}

// Write renders the configuration to an HCL file, as the serve command
// does when bootstrapping a directory without one.
func Write(cfg *Config, path string) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("project_id", cty.StringVal(cfg.ProjectID))
	body.SetAttributeValue("database_id", cty.StringVal(cfg.DatabaseID))
	body.SetAttributeValue("listen_addr", cty.StringVal(cfg.ListenAddr))
	body.SetAttributeValue("log_level", cty.StringVal(cfg.LogLevel))
	if cfg.Auth != nil {
		body.AppendNewline()
		authBody := body.AppendNewBlock("auth", nil).Body()
		authBody.SetAttributeValue("enabled", cty.BoolVal(cfg.Auth.Enabled))
		authBody.SetAttributeValue("database_path", cty.StringVal(cfg.Auth.DatabasePath))
	}
	if err := os.WriteFile(path, f.Bytes(), 0o600); err != nil {
		return fmt.Errorf("error writing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays HEARTH_* variables from environ (os.Environ form)
// onto the configuration.
func (c *Config) ApplyEnv(environ []string) error {
	overrides := make(map[string]any)
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		overrides[strings.ToLower(strings.TrimPrefix(key, EnvPrefix))] = val
	}
	if len(overrides) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overrides); err != nil {
		return fmt.Errorf("error applying environment overrides: %w", err)
	}
	return nil
}

var projectIDRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Validate checks the configuration, aggregating every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c,
		validation.Field(&c.ProjectID,
			validation.Required,
			validation.Match(projectIDRe).Error("must be lowercase letters, digits and hyphens, starting with a letter"),
		),
		validation.Field(&c.DatabaseID, validation.Required),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.LogLevel,
			validation.Required,
			validation.In("trace", "debug", "info", "warn", "error"),
		),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Auth != nil && c.Auth.Enabled {
		if err := validation.ValidateStruct(c.Auth,
			validation.Field(&c.Auth.DatabasePath, validation.Required),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("auth: %w", err))
		}
	}

	return result.ErrorOrNil()
}
