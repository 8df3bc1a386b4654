// Package config loads server configuration from YAML files or the
// environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Athena AthenaConfig `yaml:"athena"`
	Query  QueryConfig  `yaml:"query"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`
}

// AthenaConfig configures the Athena connection. OutputLocation is the S3
// destination Athena writes query results to; it is required and its absence
// is a fatal startup condition, never a per-call error.
type AthenaConfig struct {
	Region          string `yaml:"region"`
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	OutputLocation  string `yaml:"output_location"`
	Workgroup       string `yaml:"workgroup"`
	Catalog         string `yaml:"catalog"`
	ConnectionName  string `yaml:"connection_name"`
}

// QueryConfig tunes the query lifecycle.
type QueryConfig struct {
	DefaultMaxRows int           `yaml:"default_max_rows"`
	MaxRows        int           `yaml:"max_rows"`
	MinTimeoutMS   int64         `yaml:"min_timeout_ms"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxAttempts    int           `yaml:"max_attempts"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// FromEnv builds configuration from environment variables only. This is the
// stdio path: MCP clients typically configure the server as a command with
// an environment block rather than a config file.
func FromEnv() *Config {
	cfg := &Config{
		Athena: AthenaConfig{
			Region:         os.Getenv("AWS_REGION"),
			Profile:        os.Getenv("AWS_PROFILE"),
			OutputLocation: os.Getenv("ATHENA_OUTPUT_LOCATION"),
			Workgroup:      os.Getenv("ATHENA_WORKGROUP"),
			Catalog:        os.Getenv("ATHENA_CATALOG"),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "aws-athena-mcp"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Athena.ConnectionName == "" {
		cfg.Athena.ConnectionName = "athena"
	}
	if cfg.Query.DefaultMaxRows == 0 {
		cfg.Query.DefaultMaxRows = 1000
	}
	if cfg.Query.MaxRows == 0 {
		cfg.Query.MaxRows = 10000
	}
	if cfg.Query.MinTimeoutMS == 0 {
		cfg.Query.MinTimeoutMS = 1000
	}
	if cfg.Query.PollInterval == 0 {
		cfg.Query.PollInterval = time.Second
	}
	if cfg.Query.MaxAttempts == 0 {
		cfg.Query.MaxAttempts = 100
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Athena.OutputLocation == "" {
		errs = append(errs, "athena.output_location is required (or set ATHENA_OUTPUT_LOCATION)")
	} else if !strings.HasPrefix(c.Athena.OutputLocation, "s3://") {
		errs = append(errs, "athena.output_location must be an s3:// URI")
	}

	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		errs = append(errs, fmt.Sprintf("server.transport must be stdio or http, got %q", c.Server.Transport))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
