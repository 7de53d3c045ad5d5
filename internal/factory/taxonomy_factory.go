package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// LabelResolver looks up or creates provider label ids by display name
type LabelResolver interface {
	ResolveLabels(ctx context.Context, labels config.LabelsConfig) (map[core.LabelKey]string, error)
}

// TaxonomyFactory builds the label taxonomy from configuration
type TaxonomyFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTaxonomyFactory creates a new taxonomy factory
func NewTaxonomyFactory(cfg *config.Config, logger *zap.Logger) *TaxonomyFactory {
	return &TaxonomyFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTaxonomy returns the configured taxonomy. Labels without an id are
// resolved through resolver; with a nil resolver they keep their semantic key.
func (f *TaxonomyFactory) CreateTaxonomy(ctx context.Context, resolver LabelResolver) (*core.Taxonomy, error) {
	labels := f.cfg.GetLabels()

	ids := labels.IDs
	if unresolved := labels.Unresolved(); len(unresolved) > 0 && resolver != nil {
		resolved, err := resolver.ResolveLabels(ctx, labels)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve labels: %w", err)
		}
		ids = resolved
		f.logger.Info("Resolved label ids", zap.Int("resolved", len(unresolved)))
	}

	return core.NewTaxonomy(ids, labels.Names), nil
}
