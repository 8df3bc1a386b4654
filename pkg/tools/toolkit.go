// Package tools provides the Athena MCP toolkit: run_query, get_status,
// and get_result.
package tools

import (
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lolsZz/aws-athena-mcp/pkg/query"
)

// Config holds toolkit configuration.
type Config struct {
	// DefaultMaxRows is used when a caller omits max_rows.
	DefaultMaxRows int `yaml:"default_max_rows"`

	// MaxRows is the largest max_rows a caller may request.
	MaxRows int `yaml:"max_rows"`

	// MinTimeoutMS is the smallest timeout_ms a caller may request.
	MinTimeoutMS int64 `yaml:"min_timeout_ms"`

	// ConnectionName identifies this connection in logs and listings.
	ConnectionName string `yaml:"connection_name"`
}

// applyDefaults applies default values to the configuration.
func applyDefaults(cfg Config) Config {
	if cfg.DefaultMaxRows == 0 {
		cfg.DefaultMaxRows = query.DefaultMaxRows
	}
	if cfg.MaxRows == 0 {
		cfg.MaxRows = query.MaxRowsLimit
	}
	if cfg.MinTimeoutMS == 0 {
		cfg.MinTimeoutMS = 1000
	}
	if cfg.ConnectionName == "" {
		cfg.ConnectionName = "athena"
	}
	return cfg
}

// Toolkit registers the Athena tools with an MCP server.
type Toolkit struct {
	config  Config
	backend query.Backend
	runner  *query.Runner
}

// NewToolkit creates a toolkit over the given backend.
func NewToolkit(backend query.Backend, cfg Config, opts ...query.RunnerOption) *Toolkit {
	cfg = applyDefaults(cfg)
	return &Toolkit{
		config:  cfg,
		backend: backend,
		runner:  query.NewRunner(backend, opts...),
	}
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "athena"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.config.ConnectionName
}

// Connection returns the connection name for logging.
func (t *Toolkit) Connection() string {
	return t.config.ConnectionName
}

// RegisterTools registers all Athena tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	t.registerRunQuery(s)
	t.registerGetStatus(s)
	t.registerGetResult(s)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		"run_query",
		"get_status",
		"get_result",
	}
}

// Runner returns the underlying runner for direct use.
func (t *Toolkit) Runner() *query.Runner {
	return t.runner
}

// Config returns the toolkit configuration.
func (t *Toolkit) Config() Config {
	return t.config
}

// Close releases backend resources.
func (t *Toolkit) Close() error {
	if closer, ok := t.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
