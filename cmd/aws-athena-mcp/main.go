// Package main provides the entry point for the aws-athena-mcp server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/lolsZz/aws-athena-mcp/internal/server"
	"github.com/lolsZz/aws-athena-mcp/pkg/config"
	"github.com/lolsZz/aws-athena-mcp/pkg/health"
	"github.com/lolsZz/aws-athena-mcp/pkg/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	transport   string
	address     string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (optional; env vars used otherwise)")
	flag.StringVar(&opts.transport, "transport", "", "Transport type: stdio, http")
	flag.StringVar(&opts.address, "address", "", "Server address for HTTP transport")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func createServer(ctx context.Context, opts serverOptions) (*mcp.Server, *tools.Toolkit, *config.Config, error) {
	if opts.configPath != "" {
		return mcpserver.NewWithConfig(ctx, opts.configPath)
	}
	return mcpserver.NewFromEnv(ctx)
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("aws-athena-mcp version %s\n", mcpserver.Version)
		return nil
	}

	// MCP stdio uses stdout for the protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx := setupSignalHandler()

	mcpServer, toolkit, cfg, err := createServer(ctx, opts)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() { _ = toolkit.Close() }()

	applyFlagOverrides(cfg, opts)

	slog.Info("starting aws-athena-mcp",
		"version", mcpserver.Version,
		"transport", cfg.Server.Transport,
		"connection", cfg.Athena.ConnectionName,
		"output_location", cfg.Athena.OutputLocation)

	return startServer(ctx, mcpServer, cfg)
}

// applyFlagOverrides lets command line flags win over file/env configuration.
func applyFlagOverrides(cfg *config.Config, opts serverOptions) {
	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
}

func startServer(ctx context.Context, mcpServer *mcp.Server, cfg *config.Config) error {
	switch cfg.Server.Transport {
	case "stdio":
		return mcpServer.Run(ctx, &mcp.StdioTransport{})
	case "http":
		return serveHTTP(ctx, mcpServer, cfg.Server.Address)
	default:
		return fmt.Errorf("unknown transport: %s", cfg.Server.Transport)
	}
}

// serveHTTP serves the MCP server over the streamable HTTP transport with
// health endpoints for orchestrated deployments.
func serveHTTP(ctx context.Context, mcpServer *mcp.Server, address string) error {
	checker := health.NewChecker()

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil))
	mux.HandleFunc("/healthz", checker.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())

	httpServer := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		checker.SetReady()
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		checker.SetDraining()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
