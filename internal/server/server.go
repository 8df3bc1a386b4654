// Package server provides a factory for creating the MCP server.
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lolsZz/aws-athena-mcp/pkg/client"
	"github.com/lolsZz/aws-athena-mcp/pkg/config"
	"github.com/lolsZz/aws-athena-mcp/pkg/query"
	"github.com/lolsZz/aws-athena-mcp/pkg/tools"
)

// Version is set at build time.
var Version = "dev"

// New creates an MCP server with the Athena toolkit registered.
func New(ctx context.Context, cfg *config.Config) (*mcp.Server, *tools.Toolkit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	backend, err := client.New(ctx, client.Config{
		Region:          cfg.Athena.Region,
		Profile:         cfg.Athena.Profile,
		AccessKeyID:     cfg.Athena.AccessKeyID,
		SecretAccessKey: cfg.Athena.SecretAccessKey,
		SessionToken:    cfg.Athena.SessionToken,
		OutputLocation:  cfg.Athena.OutputLocation,
		Workgroup:       cfg.Athena.Workgroup,
		Catalog:         cfg.Athena.Catalog,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating athena client: %w", err)
	}

	toolkit := tools.NewToolkit(backend, tools.Config{
		DefaultMaxRows: cfg.Query.DefaultMaxRows,
		MaxRows:        cfg.Query.MaxRows,
		MinTimeoutMS:   cfg.Query.MinTimeoutMS,
		ConnectionName: cfg.Athena.ConnectionName,
	},
		query.WithPollInterval(cfg.Query.PollInterval),
		query.WithMaxAttempts(cfg.Query.MaxAttempts),
	)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	toolkit.RegisterTools(mcpServer)

	return mcpServer, toolkit, nil
}

// NewWithConfig creates an MCP server from a configuration file.
func NewWithConfig(ctx context.Context, path string) (*mcp.Server, *tools.Toolkit, *config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, nil, err
	}

	mcpServer, toolkit, err := New(ctx, cfg)
	return mcpServer, toolkit, cfg, err
}

// NewFromEnv creates an MCP server configured from environment variables.
func NewFromEnv(ctx context.Context) (*mcp.Server, *tools.Toolkit, *config.Config, error) {
	cfg := config.FromEnv()

	mcpServer, toolkit, err := New(ctx, cfg)
	return mcpServer, toolkit, cfg, err
}
