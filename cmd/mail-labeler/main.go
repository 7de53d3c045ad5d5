package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-mail-labeler/internal/di"
	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configFile string
	provider   string
	verbose    bool
	jsonLog    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "mail-labeler",
	Short:         "Label Gmail messages with an LLM and relationship heuristics",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to config file (default: search standard locations)")
	flags.StringVar(&provider, "provider", "", "Override the LLM provider (openai, gemini, bedrock, none)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&jsonLog, "json-log", false, "Output logs in JSON format")
	flags.BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options returns container options for a command
func options(console, offline bool) di.Options {
	return di.Options{
		ConfigFile:     configFile,
		Provider:       provider,
		ConsoleLogging: console,
		Verbose:        verbose,
		JSONLog:        jsonLog,
		Offline:        offline,
	}
}

// invoke builds the container, runs fn with injected dependencies and then
// releases the LLM client and the result ledger
func invoke(opts di.Options, fn interface{}) error {
	container, err := di.BuildContainer(opts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	runErr := container.Invoke(fn)

	_ = container.Invoke(func(logger *zap.Logger, llm *factory.LLMFactory, cache *factory.CacheFactory) {
		if err := llm.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
		cache.Close()
		_ = logger.Sync()
	})

	return dig.RootCause(runErr)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
