package factory

import (
	"context"
	"sync"

	"github.com/mikey/llm-mail-labeler/internal/adapters/gmail"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"go.uber.org/zap"
)

// MailboxFactory creates the Gmail mailbox once and shares it between the
// orchestrator, the history lookup and label resolution
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	once    sync.Once
	mailbox *gmail.Mailbox
	err     error
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailbox authenticates against Gmail on first use
func (f *MailboxFactory) CreateMailbox() (*gmail.Mailbox, error) {
	f.once.Do(func() {
		gmailCfg, err := f.cfg.GetGmail()
		if err != nil {
			f.err = err
			return
		}

		svc, err := gmail.NewService(context.Background(), gmailCfg.CredentialsPath, gmailCfg.TokenPath, f.logger)
		if err != nil {
			f.err = err
			return
		}

		f.mailbox = gmail.NewMailbox(svc, gmailCfg, f.logger)
		f.logger.Info("Connected to Gmail", zap.String("user_id", gmailCfg.UserID))
	})
	return f.mailbox, f.err
}
