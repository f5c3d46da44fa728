package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hrassist/internal/config"
	"hrassist/internal/errors"
	"hrassist/internal/formatters"
)

type appKeyType struct{}

var appKey = appKeyType{}

// skipSetup marks commands that run without configuration, store or AI.
const skipSetup = "skip-setup"

// cliState is shared by the commands of one command tree.
type cliState struct {
	v          *viper.Viper
	configFile string
	app        *app
}

// Execute runs the command line against the process-wide viper instance.
func Execute(ctx context.Context) error {
	root, state := newRootCommand(viper.GetViper())
	defer state.close()
	return root.ExecuteContext(ctx)
}

func newRootCommand(v *viper.Viper) (*cobra.Command, *cliState) {
	state := &cliState{v: v}

	root := &cobra.Command{
		Use:   "hrassist",
		Short: "HR assistant for leave requests and resume screening",
		Long: `hrassist evaluates employee leave requests against company policy and
screens candidates by matching resumes to job descriptions.

Leave decisions are rule based; an AI model only writes the summary. Resumes and
job descriptions are extracted with AI and matched deterministically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return state.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&state.configFile, "config", "", "Config file (default: config.yaml in /etc/hrassist, $HOME/.hrassist or .)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	bindFlag(v, "app.logLevel", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newLeaveCmd(), newResumeCmd(), newServeCmd(v), newVersionCmd())
	return root, state
}

// setup loads configuration, applies Vault secrets and builds the app for cmd.
func (s *cliState) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := config.Load(s.v, s.configFile)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load configuration", err)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Debug("Starting hrassist",
		"version", Version,
		"command", cmd.CommandPath(),
		"ai_provider", cfg.AI.Provider,
		"ai_enabled", cfg.AIEnabled(),
		"storage_enabled", cfg.Storage.Enabled)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	s.app = a
	cmd.SetContext(context.WithValue(ctx, appKey, a))
	return nil
}

func (s *cliState) close() {
	if s.app != nil {
		s.app.close()
		s.app = nil
	}
}

// getApp returns the app attached by the root command's setup.
func getApp(ctx context.Context) (*app, error) {
	if a, ok := ctx.Value(appKey).(*app); ok {
		return a, nil
	}
	return nil, fmt.Errorf("application not initialized")
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// outputFlags are the --output and --format flags of commands printing a result.
type outputFlags struct {
	file   string
	format string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&o.format, "format", "", "Output format: json, text, or markdown (default from config)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatters.NewFormatterRegistry().GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}
