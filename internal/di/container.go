package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/mikey/llm-mail-labeler/internal/logging"
	"github.com/mikey/llm-mail-labeler/internal/skiplist"
	"github.com/mikey/llm-mail-labeler/internal/utils"
)

// Options controls how the container is assembled for a command
type Options struct {
	ConfigFile string

	// Provider overrides llm.provider when set
	Provider string

	// ConsoleLogging selects the CLI logger instead of the configured one
	ConsoleLogging bool
	Verbose        bool
	JSONLog        bool

	// Offline builds the pipeline without a mailbox. History lookups are
	// skipped and unresolved labels keep their semantic keys.
	Offline bool
}

// BuildContainer creates and configures a dependency injection container
func BuildContainer(opts Options) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() Options { return opts },
		provideConfig,
		provideLogger,

		// Factories
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewMailboxFactory,
		factory.NewTaxonomyFactory,
		factory.NewRunnerFactory,

		provideLLMClient,
		provideMailbox,
		provideHistoryLookup,
		provideTaxonomy,
		provideResultRepository,
		provideServiceSettings,
		provideSkipList,
		provideDecisionEngine,
		utils.NewTextProcessor,
		core.NewRelationshipAnalyzer,
		core.NewClassificationService,
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}

	return container, nil
}

func provideConfig(opts Options) (*config.Config, error) {
	cfg, err := config.New(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Provider != "" {
		cfg.GetViper().Set("llm.provider", opts.Provider)
	}
	return cfg, nil
}

func provideLogger(opts Options, cfg *config.Config) (*zap.Logger, error) {
	if opts.ConsoleLogging {
		return logging.InitConsoleLogger(opts.Verbose, opts.JSONLog)
	}
	return logging.InitLogger(cfg)
}

func provideLLMClient(f *factory.LLMFactory) (core.LLMClient, error) {
	return f.CreateLLMClient()
}

func provideMailbox(opts Options, f *factory.MailboxFactory) (core.Mailbox, error) {
	if opts.Offline {
		return nil, nil
	}
	return f.CreateMailbox()
}

func provideHistoryLookup(opts Options, f *factory.MailboxFactory) (core.HistoryLookup, error) {
	if opts.Offline {
		return nil, nil
	}
	return f.CreateMailbox()
}

func provideTaxonomy(opts Options, tf *factory.TaxonomyFactory, mf *factory.MailboxFactory) (*core.Taxonomy, error) {
	if opts.Offline {
		return tf.CreateTaxonomy(context.Background(), nil)
	}
	mailbox, err := mf.CreateMailbox()
	if err != nil {
		return nil, err
	}
	return tf.CreateTaxonomy(context.Background(), mailbox)
}

func provideResultRepository(f *factory.CacheFactory) (core.ResultRepository, error) {
	return f.CreateResultRepository()
}

func provideServiceSettings(cfg *config.Config, f *factory.CacheFactory) (core.ServiceSettings, error) {
	orchestrator, err := cfg.GetOrchestrator()
	if err != nil {
		return core.ServiceSettings{}, err
	}
	ttl, err := f.GetResultTTL()
	if err != nil {
		return core.ServiceSettings{}, err
	}
	return core.ServiceSettings{
		BatchDelay:   orchestrator.BatchDelay,
		PollInterval: orchestrator.PollInterval,
		ResultTTL:    ttl,
	}, nil
}

func provideSkipList(cfg *config.Config, logger *zap.Logger) *skiplist.Checker {
	domains := cfg.GetClassifier().SkipDomains
	if len(domains) > 0 {
		logger.Info("Loaded skip list", zap.Strings("domains", domains))
	}
	return skiplist.NewChecker(domains, logger)
}

func provideDecisionEngine(
	llmClient core.LLMClient,
	taxonomy *core.Taxonomy,
	cfg *config.Config,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *core.LabelDecisionEngine {
	classifier := cfg.GetClassifier()
	return core.NewLabelDecisionEngine(
		llmClient,
		taxonomy,
		classifier.UserEmail,
		classifier.MaxBodyChars,
		textProcessor,
		logger,
	)
}
