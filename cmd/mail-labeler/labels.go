package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mikey/llm-mail-labeler/internal/adapters/gmail"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Resolve the label taxonomy against Gmail and print provider ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(options(true, false), func(f *factory.RunnerFactory) error {
			return f.CreateCliRunner(os.Stdout, verbose, jsonOutput).PrintLabels()
		})
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail access and store the OAuth token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(configFile)
		if err != nil {
			return err
		}
		gmailCfg, err := cfg.GetGmail()
		if err != nil {
			return err
		}

		oauthCfg, err := gmail.LoadOAuthConfig(gmailCfg.CredentialsPath)
		if err != nil {
			return err
		}

		fmt.Printf("Open this URL in a browser and paste the authorization code:\n\n%s\n\nCode: ", gmail.AuthCodeURL(oauthCfg))
		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()
		if err := gmail.ExchangeCode(ctx, oauthCfg, strings.TrimSpace(code), gmailCfg.TokenPath); err != nil {
			return err
		}
		fmt.Printf("Token saved to %s\n", gmailCfg.TokenPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(authCmd)
}
