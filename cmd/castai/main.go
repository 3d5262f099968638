package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/config"
	"github.com/castai/pulumi-castai/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// cli carries the state shared by all subcommands
type cli struct {
	v          *viper.Viper
	configFile string
	opts       *config.Options
	logger     *zap.Logger
	out        io.Writer
}

func newCLI() *cli {
	return &cli{
		v:      config.NewViper(),
		opts:   config.NewDefaultOptions(),
		logger: zap.NewNop(),
		out:    os.Stdout,
	}
}

func newRootCommand() *cobra.Command {
	return newCLI().rootCommand()
}

func (c *cli) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "castai-iac",
		Short: "CAST AI infrastructure as code",
		Long: `castai-iac runs infrastructure programs that connect Kubernetes clusters
to CAST AI and manage autoscaling, node templates, rebalancing and
organization settings. Stack state is kept in a local sqlite database.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	addFlags(cmd, c.opts)
	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "Path to a YAML config file")

	cmd.AddCommand(
		c.upCommand(),
		c.previewCommand(),
		c.destroyCommand(),
		c.outputsCommand(),
		c.resourcesCommand(),
		c.tokensCommand(),
		c.programsCommand(),
		c.schemaCommand(),
		c.agentCommand(),
		c.versionCommand(),
	)
	return cmd
}

// addFlags adds the persistent flags shared by all subcommands
func addFlags(cmd *cobra.Command, opts *config.Options) {
	fs := cmd.PersistentFlags()

	// CAST AI API flags
	fs.StringVar(&opts.APIToken, "api-token", opts.APIToken, "CAST AI API token (env CASTAI_API_TOKEN)")
	fs.StringVar(&opts.APIURL, "api-url", opts.APIURL, "CAST AI API URL (env CASTAI_API_URL)")
	fs.BoolVar(&opts.TokenFromSecret, "token-from-secret", opts.TokenFromSecret, "Read the API token from a Kubernetes secret")
	fs.StringVar(&opts.SecretName, "secret-name", opts.SecretName, "Name of the Kubernetes secret holding CAST AI credentials")
	fs.StringVar(&opts.SecretNamespace, "secret-namespace", opts.SecretNamespace, "Namespace of the CAST AI credentials secret")
	fs.IntVar(&opts.RateLimit, "rate-limit", opts.RateLimit, "Maximum CAST AI API requests per minute")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Timeout of a single API request")

	// Kubernetes flags
	fs.StringVar(&opts.Kubeconfig, "kubeconfig", opts.Kubeconfig, "Path to kubeconfig file (uses in-cluster config if not specified)")

	// Stack flags
	fs.StringVar(&opts.Stack, "stack", opts.Stack, "Stack name (env CASTAI_STACK)")
	fs.StringVar(&opts.Project, "project", opts.Project, "Project name")
	fs.StringVar(&opts.StateFile, "state", opts.StateFile, "Path of the sqlite stack state database")
	fs.BoolVar(&opts.Mock, "mock", opts.Mock, "Run against the in-process mock provider")

	// Logging flags
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (json, console)")
	fs.BoolVar(&opts.DevelopmentMode, "development", opts.DevelopmentMode, "Enable development mode logging")
	fs.StringVar(&opts.MetricsDump, "metrics-dump", opts.MetricsDump, "Write metrics in Prometheus text format to this file on exit")

	// Sentry flags
	fs.StringVar(&opts.SentryDSN, "sentry-dsn", opts.SentryDSN, "Sentry DSN for error tracking (env SENTRY_DSN)")
	fs.StringVar(&opts.SentryEnvironment, "sentry-environment", opts.SentryEnvironment, "Sentry environment")
	fs.Float64Var(&opts.SentryTracesSampleRate, "sentry-traces-sample-rate", opts.SentryTracesSampleRate, "Sentry traces sample rate (0.0 to 1.0)")
	fs.Float64Var(&opts.SentryErrorSampleRate, "sentry-error-sample-rate", opts.SentryErrorSampleRate, "Sentry error sample rate (0.0 to 1.0)")
}

// setup resolves flags, env and config file into c.opts and builds the logger
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(c.v, cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	opts, err := config.Load(c.v, c.configFile)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	c.opts = opts

	logger, err := newLogger(opts)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	c.logger = logger

	if err := metrics.RegisterMetrics(); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	return nil
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	defer func() { _ = c.logger.Sync() }()
	if c.opts.MetricsDump == "" {
		return nil
	}
	f, err := os.Create(c.opts.MetricsDump)
	if err != nil {
		return fmt.Errorf("failed to create metrics dump: %w", err)
	}
	defer f.Close()
	if err := metrics.Dump(f); err != nil {
		return fmt.Errorf("failed to write metrics dump: %w", err)
	}
	return nil
}

// newLogger builds the command logger. Messages go to stderr so command
// output on stdout stays machine readable.
func newLogger(opts *config.Options) (*zap.Logger, error) {
	logger, err := logging.NewLogger(opts.DevelopmentMode, opts.LogFormat, zapcore.DebugLevel)
	if err != nil {
		return nil, err
	}
	return configureLogLevel(logger, opts.LogLevel), nil
}

// configureLogLevel raises the minimum level of logger. Unknown levels
// fall back to info.
func configureLogLevel(logger *zap.Logger, level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}
	return logger.WithOptions(zap.IncreaseLevel(lvl))
}

// buildKubeConfig creates a Kubernetes client configuration
func buildKubeConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
		}
		return cfg, nil
	}

	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
	}
	return cfg, nil
}

func getKubeconfigPath(kubeconfig string) string {
	if kubeconfig == "" {
		return "in-cluster"
	}
	return kubeconfig
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
