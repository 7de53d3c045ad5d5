package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mikey/llm-mail-labeler/internal/adapters/runner"
	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/spf13/cobra"
)

var withHistory bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [FILE.eml]",
	Short: "Classify a raw message file without applying labels (stdin when no file)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		id := "stdin"
		if len(args) == 1 {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer file.Close()
			in = file
			id = filepath.Base(args[0])
		}

		email, err := runner.ParseEML(in, id)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		return invoke(options(true, !withHistory), func(f *factory.RunnerFactory) error {
			return f.CreateCliRunner(os.Stdout, verbose, jsonOutput).AnalyzeEmail(ctx, email)
		})
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&withHistory, "history", false, "Look up sender history in Gmail")
	rootCmd.AddCommand(analyzeCmd)
}
