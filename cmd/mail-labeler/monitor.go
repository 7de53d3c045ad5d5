package main

import (
	"fmt"

	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/mikey/llm-mail-labeler/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the mailbox and label new messages as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(options(verbose || jsonLog, false), runMonitor)
	},
}

func runMonitor(logger *zap.Logger, f *factory.RunnerFactory) error {
	runners, err := f.CreateMonitorRunners()
	if err != nil {
		return err
	}

	var started []ports.Runner
	for _, r := range runners {
		if err := r.Start(); err != nil {
			stopAll(logger, started)
			return fmt.Errorf("failed to start: %w", err)
		}
		started = append(started, r)
	}

	ctx, cancel := signalContext()
	defer cancel()
	<-ctx.Done()
	logger.Info("Shutting down...")

	stopAll(logger, started)
	logger.Info("Shutdown complete")
	return nil
}

func stopAll(logger *zap.Logger, runners []ports.Runner) {
	for i := len(runners) - 1; i >= 0; i-- {
		if err := runners[i].Stop(); err != nil {
			logger.Error("Failed to stop runner", zap.Error(err))
		}
	}
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
