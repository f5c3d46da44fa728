package cli

import (
	"context"
	"fmt"
	"io"

	"hrassist/internal/ai"
	"hrassist/internal/assistant"
	"hrassist/internal/common"
	"hrassist/internal/config"
	"hrassist/internal/errors"
	"hrassist/internal/observability"
	"hrassist/internal/store"
)

// app holds the long-lived dependencies of one command invocation.
type app struct {
	cfg      *config.Config
	logger   *errors.Logger
	db       *store.Store // nil when storage is disabled
	policies *store.PolicyRepository
	metrics  *observability.Metrics

	services *ai.Services
}

// newApp opens the document store when enabled and builds the policy repository.
func newApp(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.Storage.Enabled {
		db, err := store.Open(ctx, store.Config{Path: cfg.Storage.Path, BusyTimeout: cfg.Storage.BusyTimeout}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		a.db = db
		a.policies = store.NewPolicyRepository(db, cfg.Leave.PolicyCacheTTL, logger)
	} else {
		logger.Warn("Document store disabled, using built-in leave policies")
		a.policies = store.NewPolicyRepository(nil, cfg.Leave.PolicyCacheTTL, logger)
	}
	return a, nil
}

// aiServices creates the AI services on first use so they report to the metrics set
// by the time they are needed.
func (a *app) aiServices() (*ai.Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	services, err := ai.NewServices(a.cfg, a.logger, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI services: %w", err)
	}
	a.services = services
	return services, nil
}

func (a *app) leaveAssistant() (*assistant.LeaveAssistant, error) {
	opts := []assistant.LeaveOption{assistant.WithLeaveMetrics(a.metrics)}
	if a.db != nil {
		opts = append(opts, assistant.WithRecorder(a.db))
	}

	services, err := a.aiServices()
	if err != nil {
		return nil, err
	}
	if services.Enabled() {
		opts = append(opts, assistant.WithSummarizer(services))
	}
	return assistant.NewLeaveAssistant(a.policies, a.logger, opts...), nil
}

func (a *app) recruitAssistant() (*assistant.RecruitAssistant, error) {
	services, err := a.aiServices()
	if err != nil {
		return nil, err
	}
	var docs assistant.DocumentStore
	if a.db != nil {
		docs = a.db
	}
	return assistant.NewRecruitAssistant(services, docs, a.metrics, a.logger, a.cfg.Matching.Concurrency), nil
}

// requireStore fails commands that only make sense with a database.
func (a *app) requireStore() (*store.Store, error) {
	if a.db == nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreUnavailable,
			"this command needs the document store; enable storage in the configuration", nil)
	}
	return a.db, nil
}

func (a *app) runner(out io.Writer) common.Runner {
	return common.Runner{Logger: a.logger, MaxFileSize: a.cfg.App.MaxFileSize, Out: out}
}

// outputConfig resolves the --format flag against the configured formats.
func (a *app) outputConfig(output outputFlags) (common.CommandConfig, error) {
	format, err := common.ResolveOutputFormat(output.format, a.cfg.App.DefaultFormat, a.cfg.App.SupportedFormats)
	if err != nil {
		return common.CommandConfig{}, err
	}
	return common.CommandConfig{OutputFile: output.file, OutputFormat: format}, nil
}

func (a *app) close() {
	if err := a.services.Close(); err != nil {
		a.logger.LogError(err, "Failed to close AI services")
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.LogError(err, "Failed to close document store")
		}
	}
}
