package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested for reading messages and managing labels
var Scopes = []string{
	gm.GmailModifyScope,
	gm.GmailLabelsScope,
}

// LoadOAuthConfig reads an OAuth client credentials file downloaded from Google Cloud
func LoadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials from %s: %w", credentialsPath, err)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

// LoadToken reads a token previously written by SaveToken
func LoadToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &token, nil
}

// SaveToken writes a token readable only by the current user
func SaveToken(tokenPath string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0o600)
}

// AuthCodeURL returns the consent page URL for an offline token
func AuthCodeURL(config *oauth2.Config) string {
	return config.AuthCodeURL("mail-labeler", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for a token and stores it
func ExchangeCode(ctx context.Context, config *oauth2.Config, code, tokenPath string) error {
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return SaveToken(tokenPath, token)
}

// NewService returns an authenticated Gmail API service. A refreshed token
// is written back to tokenPath.
func NewService(ctx context.Context, credentialsPath, tokenPath string, logger *zap.Logger) (*gm.Service, error) {
	config, err := LoadOAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}

	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load token from %s (run the auth command first): %w", tokenPath, err)
	}

	ts := config.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if fresh.AccessToken != token.AccessToken {
		if err := SaveToken(tokenPath, fresh); err != nil {
			logger.Warn("Could not save refreshed token", zap.String("path", tokenPath), zap.Error(err))
		}
	}

	return gm.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
}
