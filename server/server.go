/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package server

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/PivotLLM/DevTools/config"
	"github.com/PivotLLM/DevTools/dispatch"
	"github.com/PivotLLM/DevTools/editor"
	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/ignore"
	"github.com/PivotLLM/DevTools/imaging"
	"github.com/PivotLLM/DevTools/logging"
	"github.com/PivotLLM/DevTools/screen"
	"github.com/PivotLLM/DevTools/shell"
	"github.com/PivotLLM/DevTools/workflow"
)

const instructions = "This server provides developer tools including text editing, shell command execution, " +
	"screen capture and image processing, and workflow management. Use text_editor to view and modify files " +
	"(every edit can be undone with undo_edit), shell to execute commands, list_windows and screen_capture to " +
	"take screenshots, image_processor to load images, and workflow to track multi-step problem solving with " +
	"branching and revision support. All file paths must be absolute."

// Server wraps the MCP server with the dispatcher
type Server struct {
	config             *config.Config
	logger             *logging.Logger
	workDir            string
	policy             *ignore.Policy
	journal            *workflow.Journal
	dispatcher         *dispatch.Dispatcher
	mcpServer          *server.MCPServer
	markNonDestructive bool
}

// New creates a new server instance
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	editorCfg := cfg.Editor()
	policy, err := ignore.Load(workDir, editorCfg.IgnoreFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}
	if !policy.Empty() {
		logger.Infof("Loaded %d ignore patterns from %s", len(policy.Patterns()), editorCfg.IgnoreFile)
	}

	store := editor.NewStore(
		editor.WithMaxHistory(editorCfg.MaxHistory),
		editor.WithPolicy(policy),
		editor.WithNormalizeLineEndings(editorCfg.NormalizeLineEndings),
		editor.WithLogger(logger.Named("editor")),
	)

	wfCfg := cfg.Workflow()
	trackerOpts := []workflow.Option{
		workflow.WithAllowBranches(wfCfg.BranchesAllowed()),
		workflow.WithMaxSteps(wfCfg.MaxSteps),
		workflow.WithLogSteps(wfCfg.StepLogging()),
		workflow.WithLogger(logger.Named("workflow")),
	}
	var journal *workflow.Journal
	if wfCfg.Journal != "" {
		journal, err = workflow.OpenJournal(wfCfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("failed to open workflow journal: %w", err)
		}
		trackerOpts = append(trackerOpts, workflow.WithRecorder(journal))
		logger.Infof("Workflow steps are journaled to %s", journal.Path())
	}
	tracker := workflow.NewTracker(trackerOpts...)
	logger.Infof("Workflow session %s", tracker.SessionID())

	shellCfg := cfg.Shell()
	runner := shell.New(
		shell.WithExecutable(shellCfg.Executable, shellCfg.Args...),
		shell.WithTimeout(shellCfg.Timeout()),
		shell.WithRateLimit(shellCfg.RateLimit.MaxRequests, shellCfg.RateLimit.Period()),
		shell.WithPolicy(policy),
		shell.WithLogger(logger.Named("shell")),
	)

	images := imaging.New(imaging.WithLogger(logger.Named("imaging")))
	capturer := screen.New(screen.WithImageProcessor(images), screen.WithLogger(logger.Named("screen")))

	dispatcher, err := dispatch.New(
		dispatch.WithEditor(store),
		dispatch.WithTracker(tracker),
		dispatch.WithShell(runner),
		dispatch.WithScreen(capturer),
		dispatch.WithImageProcessor(images),
		dispatch.WithLogger(logger),
	)
	if err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	return newServer(cfg, logger, workDir, policy, journal, dispatcher), nil
}

// newServer builds the MCP server around an existing dispatcher
func newServer(cfg *config.Config, logger *logging.Logger, workDir string, policy *ignore.Policy,
	journal *workflow.Journal, dispatcher *dispatch.Dispatcher) *Server {

	mcpServer := server.NewMCPServer(
		global.ProgramName,
		global.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	srv := &Server{
		config:             cfg,
		logger:             logger,
		workDir:            workDir,
		policy:             policy,
		journal:            journal,
		dispatcher:         dispatcher,
		mcpServer:          mcpServer,
		markNonDestructive: cfg.MarkNonDestructive(),
	}

	srv.registerTools()
	srv.registerResources()
	srv.registerPrompts()
	return srv
}

// Close releases the workflow journal
func (s *Server) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// Run starts the MCP server with graceful shutdown
func (s *Server) Run() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Warnf("Failed to close workflow journal: %v", err)
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		// ServeStdio returns when stdin is closed (EOF) or on error
		errChan <- server.ServeStdio(s.mcpServer)
	}()

	s.logger.Infof("MCP server started with %d tools", len(s.dispatcher.Tools()))

	// Wait for shutdown signal, stdin close, or error
	select {
	case <-sigChan:
		s.logger.Info("Shutdown signal received")
		if err := s.logger.Sync(); err != nil {
			s.logger.Warnf("Failed to flush logs on shutdown: %v", err)
		}
		return nil

	case err := <-errChan:
		if err != nil {
			s.logger.Errorf("Server error: %v", err)
			return fmt.Errorf("server error: %w", err)
		}
		// nil error means stdin was closed (EOF) - normal exit
		s.logger.Info("Connection closed")
		return nil
	}
}
