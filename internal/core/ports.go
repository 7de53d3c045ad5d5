package core

import (
	"context"
)

// LLMClient defines the interface for text completion against a language model
type LLMClient interface {
	// Complete sends a prompt and returns the raw model output
	Complete(ctx context.Context, prompt string) (string, error)
}

// HistoryLookup finds prior correspondence for an address
type HistoryLookup interface {
	// EmailsFrom returns messages received from the address
	EmailsFrom(ctx context.Context, address string) ([]Email, error)

	// EmailsTo returns messages sent to the address
	EmailsTo(ctx context.Context, address string) ([]Email, error)
}

// Mailbox defines the mailbox operations the orchestrator depends on
type Mailbox interface {
	// GetEmail fetches a single message by id
	GetEmail(ctx context.Context, messageID string) (*Email, error)

	// ApplyLabel adds a label to a message
	ApplyLabel(ctx context.Context, messageID, labelID string) error

	// CurrentCursor returns the mailbox's latest history id
	CurrentCursor(ctx context.Context) (uint64, error)

	// Changes lists messages added after cursor and the cursor to resume from
	Changes(ctx context.Context, cursor uint64) ([]string, uint64, error)
}

// ResultRepository defines the interface for recording processed messages
type ResultRepository interface {
	// Get retrieves the entry for a message
	Get(ctx context.Context, messageID string) (*ResultEntry, error)

	// Set stores an entry
	Set(ctx context.Context, entry *ResultEntry) error

	// Delete removes an entry
	Delete(ctx context.Context, messageID string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
