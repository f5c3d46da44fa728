package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hrassist/internal/config"
	"hrassist/internal/observability"
	"hrassist/internal/server"
	"hrassist/internal/store"
)

const (
	maxJSONRequestSize = 1 << 20
	multipartOverhead  = 64 << 10
	telemetryFlushWait = 5 * time.Second
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server exposing the leave and recruitment assistants.

Available endpoints:
- POST /leave/apply, GET /leave/policies, PUT /leave/policies/{type}
- GET /leave/history/{employee_id}
- POST /resume/upload (multipart), POST /resume/match, POST /resume/match-all
- GET /resume/jobs/{name}/matches, GET /resume/stats, GET /resume/debug
- GET /health, GET /stats

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	f := cmd.Flags()
	f.StringP("port", "p", "", "Port to listen on (default from config)")
	f.String("host", "", "Host to bind to (default from config)")
	f.String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	f.String("cert-file", "", "Server certificate file (PEM, overrides config)")
	f.String("key-file", "", "Server private key file (PEM, overrides config)")
	f.String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	f.StringSlice("api-keys", nil, "API keys required in X-API-Key (overrides config)")
	f.String("policy-file", "", "YAML leave policy file imported at startup (overrides config)")
	f.Bool("watch-policy", false, "Re-import the policy file when it changes")

	bindFlag(v, "server.port", f.Lookup("port"))
	bindFlag(v, "server.host", f.Lookup("host"))
	bindFlag(v, "server.tls.mode", f.Lookup("tls-mode"))
	bindFlag(v, "server.tls.certFile", f.Lookup("cert-file"))
	bindFlag(v, "server.tls.keyFile", f.Lookup("key-file"))
	bindFlag(v, "server.tls.caFile", f.Lookup("ca-file"))
	bindFlag(v, "server.apiKeys", f.Lookup("api-keys"))
	bindFlag(v, "leave.policyFile", f.Lookup("policy-file"))
	bindFlag(v, "leave.watchPolicy", f.Lookup("watch-policy"))
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := getApp(ctx)
	if err != nil {
		return err
	}
	cfg := a.cfg

	obs, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushWait)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			a.logger.LogError(err, "Failed to shut down observability")
		}
	}()
	a.metrics = obs.GetMetrics()

	stopPolicies, err := startPolicyFile(ctx, a)
	if err != nil {
		return err
	}
	defer stopPolicies()

	leaveAssistant, err := a.leaveAssistant()
	if err != nil {
		return err
	}
	recruitAssistant, err := a.recruitAssistant()
	if err != nil {
		return err
	}
	services, err := a.aiServices()
	if err != nil {
		return err
	}

	deps := server.Dependencies{
		Leave:         leaveAssistant,
		Policies:      a.policies,
		Recruit:       recruitAssistant,
		Models:        services,
		Observability: obs,
	}
	if a.db != nil {
		deps.Records = a.db
	}

	srv := server.NewServer(server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: maxJSONRequestSize,
		MaxUploadSize:  cfg.App.MaxFileSize + multipartOverhead,
		RateLimit:      &cfg.Server.RateLimit,
	}, deps, a.logger)

	if cfg.Vault.Enabled && cfg.Vault.Watch.Enabled && cfg.Vault.Secrets.APIKeys != "" {
		client, err := config.NewVaultClient(ctx, cfg.Vault, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize vault client: %w", err)
		}
		srv.SecretWatcher = server.NewSecretWatcher(client, cfg.Vault.Secrets.APIKeys,
			cfg.Vault.Watch.PollInterval, srv.SetAPIKeys, a.logger)
	}

	return srv.Start(ctx)
}

// startPolicyFile imports the configured policy file, watching it when asked. The
// returned function stops the watcher.
func startPolicyFile(ctx context.Context, a *app) (func(), error) {
	noop := func() {}
	path := a.cfg.Leave.PolicyFile
	if path == "" {
		return noop, nil
	}
	if !a.policies.Available() {
		a.logger.Warn("Policy file ignored because the document store is disabled", "file", path)
		return noop, nil
	}

	if !a.cfg.Leave.WatchPolicy {
		n, err := store.ImportPolicyFile(ctx, a.policies, path)
		if err != nil {
			return noop, err
		}
		a.logger.Info("Leave policies imported", "file", path, "leave_types", n)
		return noop, nil
	}

	reloader, err := store.NewPolicyReloader(a.policies, path, a.cfg.Leave.WatchDebounce, a.logger)
	if err != nil {
		return noop, err
	}
	if err := reloader.Start(ctx); err != nil {
		return noop, err
	}
	return func() {
		if err := reloader.Stop(); err != nil {
			a.logger.LogError(err, "Failed to stop policy file watcher")
		}
	}, nil
}
