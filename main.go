/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package main

import (
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/PivotLLM/DevTools/config"
	"github.com/PivotLLM/DevTools/dispatch"
	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/logging"
	"github.com/PivotLLM/DevTools/server"
)

// EmbeddedDocs contains the default configuration written on first run
//
//go:embed docs/config-example.json
var EmbeddedDocs embed.FS

func main() {
	// Top-level panic recovery
	defer func() {
		if rec := recover(); rec != nil {
			_, _ = fmt.Fprintf(os.Stderr, "FATAL PANIC: %v\n", rec)
			os.Exit(2)
		}
	}()

	// Parse command line flags
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		version    = flag.Bool("version", false, "Show version information")
		help       = flag.Bool("help", false, "Show help information")
		tools      = flag.Bool("tools", false, "Print the tool schemas as JSON and exit")
	)
	flag.Parse()

	// Handle version flag
	if *version {
		fmt.Printf("%s v%s\n", global.ProgramName, global.Version)
		return
	}

	// Handle help flag
	if *help {
		showHelp()
		return
	}

	// Handle tools flag
	if *tools {
		if err := printTools(os.Stdout); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to list tools: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Normal MCP server mode - pass embedded FS and optional config path
	opts := []config.Option{config.WithEmbeddedFS(EmbeddedDocs)}
	if *configPath != "" {
		opts = append(opts, config.WithConfigPath(*configPath))
	}
	cfg := config.New(opts...)

	// Load and validate configuration
	if err := cfg.Load(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger with config path
	logger, err := logging.New(cfg.LogFile())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *logging.Logger) {
		// Ensure logs are flushed before exit
		_ = logger.Sync()
		_ = logger.Close()
	}(logger)

	// Set log level from config
	logger.SetLevel(cfg.LogLevel())

	// Announce startup
	logger.Infof("%s v%s starting", global.ProgramName, global.Version)

	// Log first-run message
	if cfg.IsFirstRun() {
		logger.Infof("First run detected - created default configuration at %s", cfg.ConfigPath())
	}

	// Create and start server
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}

	// Run the server
	if err := srv.Run(); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}

// toolSchema is the --tools representation of one tool
type toolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Access      string          `json:"access"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func printTools(w io.Writer) error {
	d, err := dispatch.New(dispatch.WithLogger(logging.Discard()))
	if err != nil {
		return err
	}
	var out []toolSchema
	for _, t := range d.Tools() {
		out = append(out, toolSchema{
			Name:        t.Name,
			Description: t.Description,
			Access:      t.Access.String(),
			InputSchema: t.Schema,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func showHelp() {
	fmt.Printf(`%s v%s - MCP Server for Developer Tools

USAGE:
    %s [OPTIONS]

OPTIONS:
    --config PATH    Path to configuration file
                     (default: $%s or %s/%s)
    --tools          Print the tool schemas as JSON and exit
    --version        Show version information
    --help           Show this help message

DESCRIPTION:
    %s is a Model Context Protocol (MCP) server that provides:

    - text_editor: view, write, str_replace and undo_edit on absolute paths,
      with a bounded undo history per file
    - workflow: an append-only step log with revisions and branches
    - shell: command execution through the user's shell
    - list_windows, screen_capture: screenshots of displays and windows
    - image_processor: scaled, size-limited images for the model

CONFIGURATION:
    On first run, a default configuration is created in %s.
    Paths in the configuration are relative to base_dir.

ENVIRONMENT:
    %s    Path to configuration file (if --config not used)
    %s    Overrides editor.max_history
    %s    Overrides logging.level
`, global.ProgramName, global.Version,
		global.ProgramName,
		global.ConfigEnvVar, global.DefaultBaseDir, global.DefaultConfigFileName,
		global.ProgramName,
		global.DefaultBaseDir,
		global.ConfigEnvVar,
		global.MaxHistoryEnvVar,
		global.LogLevelEnvVar)
}
