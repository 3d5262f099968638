package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tracing"
)

// Options holds the configuration of the castai-iac command
type Options struct {
	// APIToken is the CAST AI API token (CASTAI_API_TOKEN)
	APIToken string `mapstructure:"api-token"`

	// APIURL is the CAST AI API endpoint (CASTAI_API_URL)
	APIURL string `mapstructure:"api-url"`

	// SecretName is the Kubernetes secret the token is read from when
	// TokenFromSecret is set
	SecretName string `mapstructure:"secret-name"`

	// SecretNamespace is the namespace of SecretName
	SecretNamespace string `mapstructure:"secret-namespace"`

	// TokenFromSecret reads APIToken and APIURL from the Kubernetes secret
	TokenFromSecret bool `mapstructure:"token-from-secret"`

	// Kubeconfig is the path to the kubeconfig file.
	// If empty, uses in-cluster configuration
	Kubeconfig string `mapstructure:"kubeconfig"`

	// RateLimit is the maximum number of API requests per minute
	RateLimit int `mapstructure:"rate-limit"`

	// Timeout is the HTTP timeout of a single API request
	Timeout time.Duration `mapstructure:"timeout"`

	// StateFile is the sqlite database holding stack state
	StateFile string `mapstructure:"state"`

	// Stack is the stack name (CASTAI_STACK)
	Stack string `mapstructure:"stack"`

	// Project is the project name
	Project string `mapstructure:"project"`

	// Mock runs programs against the in-process mock provider
	Mock bool `mapstructure:"mock"`

	// LogLevel is the log verbosity level (debug, info, warn, error)
	LogLevel string `mapstructure:"log-level"`

	// LogFormat is the log format (json, console)
	LogFormat string `mapstructure:"log-format"`

	// DevelopmentMode enables development mode with more verbose logging
	DevelopmentMode bool `mapstructure:"development"`

	// MetricsDump is a file the metrics registry is written to at exit
	MetricsDump string `mapstructure:"metrics-dump"`

	// Sentry configuration

	// SentryDSN is the Sentry Data Source Name (can also be set via SENTRY_DSN env var)
	SentryDSN string `mapstructure:"sentry-dsn"`

	// SentryEnvironment is the deployment environment (e.g., "production", "staging")
	SentryEnvironment string `mapstructure:"sentry-environment"`

	// SentryTracesSampleRate is the sample rate for performance traces (0.0 to 1.0)
	SentryTracesSampleRate float64 `mapstructure:"sentry-traces-sample-rate"`

	// SentryErrorSampleRate is the sample rate for error events (0.0 to 1.0)
	SentryErrorSampleRate float64 `mapstructure:"sentry-error-sample-rate"`

	// Agent configures `agent install`
	Agent AgentOptions `mapstructure:"agent"`
}

// AgentOptions configures the helm installation of the CAST AI agent
type AgentOptions struct {
	// Namespace the charts are installed into
	Namespace string `mapstructure:"namespace"`

	// ClusterID is the CAST AI id of the cluster the agent reports for
	ClusterID string `mapstructure:"cluster-id"`

	// Provider is the cloud of the cluster (eks, gke, aks)
	Provider string `mapstructure:"provider"`

	// ChartVersion pins every chart to one version. Empty means latest
	ChartVersion string `mapstructure:"chart-version"`

	// ReadOnly installs only castai-agent in read-only mode
	ReadOnly bool `mapstructure:"read-only"`

	// ValuesFiles are YAML files merged into the chart values
	ValuesFiles []string `mapstructure:"values"`

	// Wait blocks until the castai-agent deployment is available
	Wait bool `mapstructure:"wait"`

	// WaitTimeout bounds Wait
	WaitTimeout time.Duration `mapstructure:"wait-timeout"`
}

// NewDefaultOptions returns Options with default values
func NewDefaultOptions() *Options {
	return &Options{
		APIURL:                 client.DefaultAPIEndpoint,
		SecretName:             client.DefaultSecretName,
		SecretNamespace:        client.DefaultSecretNamespace,
		RateLimit:              client.DefaultRateLimit,
		Timeout:                client.DefaultTimeout,
		StateFile:              "./castai-state.db",
		Stack:                  "dev",
		Project:                "castai",
		LogLevel:               "info",
		LogFormat:              "json",
		SentryTracesSampleRate: 0.1, // 10% of transactions
		SentryErrorSampleRate:  1.0, // 100% of errors
		Agent: AgentOptions{
			Namespace:   "castai-agent",
			WaitTimeout: 5 * time.Minute,
		},
	}
}

// Validate validates the options and returns an error if any option is invalid.
// The API token is not required here because the mock provider and the
// read-only commands run without one.
func (o *Options) Validate() error {
	u, err := url.Parse(o.APIURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid API URL '%s'", o.APIURL)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("API URL must use HTTPS, got: %s", o.APIURL)
	}

	if o.TokenFromSecret {
		if o.SecretName == "" {
			return fmt.Errorf("secret name cannot be empty when the token is read from a secret")
		}
		if o.SecretNamespace == "" {
			return fmt.Errorf("secret namespace cannot be empty when the token is read from a secret")
		}
	}

	if o.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be greater than zero")
	}

	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than zero")
	}

	if o.Stack == "" {
		return fmt.Errorf("stack cannot be empty")
	}

	if o.Project == "" {
		return fmt.Errorf("project cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[o.LogLevel] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", o.LogLevel)
	}

	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[o.LogFormat] {
		return fmt.Errorf("invalid log format '%s', must be one of: json, console", o.LogFormat)
	}

	if o.SentryTracesSampleRate < 0 || o.SentryTracesSampleRate > 1 {
		return fmt.Errorf("sentry traces sample rate must be between 0 and 1")
	}
	if o.SentryErrorSampleRate < 0 || o.SentryErrorSampleRate > 1 {
		return fmt.Errorf("sentry error sample rate must be between 0 and 1")
	}

	if o.Agent.WaitTimeout < 0 {
		return fmt.Errorf("agent wait timeout cannot be negative")
	}

	return nil
}

// Complete fills in any fields not set that are required to have valid data
func (o *Options) Complete() error {
	defaults := NewDefaultOptions()

	o.APIURL = strings.TrimRight(strings.TrimSpace(o.APIURL), "/")
	if o.APIURL == "" {
		o.APIURL = defaults.APIURL
	}
	if o.SecretName == "" {
		o.SecretName = defaults.SecretName
	}
	if o.SecretNamespace == "" {
		o.SecretNamespace = defaults.SecretNamespace
	}
	if o.RateLimit == 0 {
		o.RateLimit = defaults.RateLimit
	}
	if o.Timeout == 0 {
		o.Timeout = defaults.Timeout
	}
	if o.StateFile == "" {
		o.StateFile = defaults.StateFile
	}
	if o.Stack == "" {
		o.Stack = defaults.Stack
	}
	if o.Project == "" {
		o.Project = defaults.Project
	}
	if o.LogLevel == "" {
		o.LogLevel = defaults.LogLevel
	}
	if o.LogFormat == "" {
		o.LogFormat = defaults.LogFormat
	}
	if o.Agent.Namespace == "" {
		o.Agent.Namespace = defaults.Agent.Namespace
	}
	if o.Agent.WaitTimeout == 0 {
		o.Agent.WaitTimeout = defaults.Agent.WaitTimeout
	}

	return nil
}

// ProviderConfig is the configuration handed to the resource provider
func (o *Options) ProviderConfig() resource.Config {
	return resource.Config{APIToken: o.APIToken, APIURL: o.APIURL}.WithDefaults()
}

// ClientOptions returns the API client options. transport may be nil.
func (o *Options) ClientOptions(logger *zap.Logger, transport *tracing.HTTPTransport) *client.ClientOptions {
	opts := &client.ClientOptions{
		SecretName:      o.SecretName,
		SecretNamespace: o.SecretNamespace,
		Timeout:         o.Timeout,
		RateLimit:       o.RateLimit,
		Logger:          logger,
	}
	if transport != nil {
		opts.HTTPTransport = transport
	}
	return opts
}

// TracingConfig returns the Sentry configuration
func (o *Options) TracingConfig(release string) *tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.DSN = o.SentryDSN
	if o.SentryEnvironment != "" {
		cfg.Environment = o.SentryEnvironment
	}
	cfg.Release = release
	cfg.TracesSampleRate = o.SentryTracesSampleRate
	cfg.ErrorSampleRate = o.SentryErrorSampleRate
	cfg.Debug = o.DevelopmentMode
	return cfg
}
