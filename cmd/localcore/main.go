// Package main provides the CLI entry point for the local execution core: a
// single long-running process that maintains a relay connection, runs the
// ReAct executor and delegation engine against it, and persists the agent
// and prompt stores to disk.
//
// Grounded on cmd/nexus/main.go's cobra root-command-plus-signal-notify
// shutdown idiom, scaled down from nexus's many subcommands to the single
// "serve" behavior this process has.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bluestarburst/cf-ai-local-tools/internal/config"
	"github.com/bluestarburst/cf-ai-local-tools/internal/llm/providers"
	"github.com/bluestarburst/cf-ai-local-tools/internal/logging"
	"github.com/bluestarburst/cf-ai-local-tools/internal/relay"
	"github.com/bluestarburst/cf-ai-local-tools/internal/store"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configDirFlag string

	rootCmd := &cobra.Command{
		Use:     "localcore",
		Short:   "local-core — the ReAct execution core for a relay-connected agent runtime",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configDirFlag)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"override the OS user-config directory the agent and prompt stores persist under")
	rootCmd.AddCommand(buildVersionCmd())
	return rootCmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the local-core build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "local-core %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}

// runServe wires every component and blocks until a shutdown signal or an
// unrecoverable initialization error. configDirFlag, when non-empty,
// overrides whatever ConfigDir was picked up from the environment.
func runServe(ctx context.Context, configDirFlag string) error {
	cfg := config.Load()
	if configDirFlag != "" {
		cfg.ConfigDir = configDirFlag
	}
	logger := logging.Setup(cfg.RustLog)

	logger.Info("starting local-core", "version", version, "commit", commit, "relayURL", cfg.WorkerWSURL)

	var storeOpts []store.AgentStoreOption
	var promptOpts []store.PromptStoreOption
	if cfg.ConfigDir != "" {
		storeOpts = append(storeOpts, store.WithAgentStoreBasePath(cfg.ConfigDir))
		promptOpts = append(promptOpts, store.WithPromptStoreBasePath(cfg.ConfigDir))
	}
	storeOpts = append(storeOpts, store.WithAgentStoreLogger(logger))
	promptOpts = append(promptOpts, store.WithPromptStoreLogger(logger))

	agents, err := store.NewAgentStore(storeOpts...)
	if err != nil {
		return fmt.Errorf("open agent store: %w", err)
	}
	prompts, err := store.NewPromptStore(promptOpts...)
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("register builtin tools: %w", err)
	}
	if err := registry.Register(tools.DelegateToAgentDefinition(), tools.NewDelegateToAgentExecutor()); err != nil {
		return fmt.Errorf("register delegation tool: %w", err)
	}

	adapter := providers.NewAnthropicAdapter(providers.AnthropicConfig{
		APIToken: cfg.CFAPIToken,
		BaseURL:  cfg.WorkerHTTPURL,
	})

	session := relay.NewSession(cfg.WorkerWSURL, agents, prompts, registry, adapter, logger)

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("local-core ready, connecting to relay")
	if err := session.Run(runCtx); err != nil && runCtx.Err() == nil {
		return fmt.Errorf("relay session ended unexpectedly: %w", err)
	}
	logger.Info("local-core shutting down")
	return nil
}
