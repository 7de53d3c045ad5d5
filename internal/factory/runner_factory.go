package factory

import (
	"io"

	"github.com/mikey/llm-mail-labeler/internal/adapters/runner"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/ports"
	"go.uber.org/zap"
)

// RunnerFactory creates the runners behind each command
type RunnerFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ClassificationService
	engine  *core.LabelDecisionEngine
}

// NewRunnerFactory creates a new runner factory
func NewRunnerFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.ClassificationService,
	engine *core.LabelDecisionEngine,
) *RunnerFactory {
	return &RunnerFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		engine:  engine,
	}
}

// CreateMonitorRunners returns the monitor loop plus the metrics server when
// an address is configured. A configured start history id seeds the cursor.
func (f *RunnerFactory) CreateMonitorRunners() ([]ports.Runner, error) {
	orchestrator, err := f.cfg.GetOrchestrator()
	if err != nil {
		return nil, err
	}
	if orchestrator.StartHistoryID > 0 {
		f.service.SetCursor(orchestrator.StartHistoryID)
	}

	runners := []ports.Runner{runner.NewMonitorRunner(f.service, f.logger)}
	if addr := f.cfg.MetricsAddress(); addr != "" {
		runners = append(runners, runner.NewMetricsServer(addr, f.logger))
	}
	return runners, nil
}

// CreateCliRunner returns a runner printing to out
func (f *RunnerFactory) CreateCliRunner(out io.Writer, verbose, jsonOutput bool) *runner.CliRunner {
	return runner.NewCliRunner(f.service, f.engine, out, f.logger, verbose, jsonOutput)
}
