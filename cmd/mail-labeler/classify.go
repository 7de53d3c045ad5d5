package main

import (
	"os"

	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify MESSAGE_ID [MESSAGE_ID...]",
	Short: "Classify and label Gmail messages by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		return invoke(options(true, false), func(f *factory.RunnerFactory) error {
			return f.CreateCliRunner(os.Stdout, verbose, jsonOutput).ClassifyMessages(ctx, args)
		})
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
