package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/castai/pulumi-castai/pkg/castai/client"
)

func TestNewDefaultOptions(t *testing.T) {
	opts := NewDefaultOptions()

	assert.NotNil(t, opts)
	assert.Equal(t, "https://api.cast.ai", opts.APIURL)
	assert.Equal(t, "castai-credentials", opts.SecretName)
	assert.Equal(t, "castai-agent", opts.SecretNamespace)
	assert.Equal(t, 300, opts.RateLimit)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, "dev", opts.Stack)
	assert.Equal(t, "castai", opts.Project)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, "json", opts.LogFormat)
	assert.False(t, opts.DevelopmentMode)
	assert.Equal(t, "castai-agent", opts.Agent.Namespace)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		errMsg string
	}{
		{
			name:   "plain http url",
			mutate: func(o *Options) { o.APIURL = "http://api.cast.ai" },
			errMsg: "must use HTTPS",
		},
		{
			name:   "url without host",
			mutate: func(o *Options) { o.APIURL = "not a url" },
			errMsg: "invalid API URL",
		},
		{
			name: "secret name required with token from secret",
			mutate: func(o *Options) {
				o.TokenFromSecret = true
				o.SecretName = ""
			},
			errMsg: "secret name cannot be empty",
		},
		{
			name:   "zero rate limit",
			mutate: func(o *Options) { o.RateLimit = 0 },
			errMsg: "rate limit must be greater than zero",
		},
		{
			name:   "zero timeout",
			mutate: func(o *Options) { o.Timeout = 0 },
			errMsg: "timeout must be greater than zero",
		},
		{
			name:   "empty stack",
			mutate: func(o *Options) { o.Stack = "" },
			errMsg: "stack cannot be empty",
		},
		{
			name:   "invalid log level",
			mutate: func(o *Options) { o.LogLevel = "trace" },
			errMsg: "invalid log level 'trace'",
		},
		{
			name:   "invalid log format",
			mutate: func(o *Options) { o.LogFormat = "xml" },
			errMsg: "invalid log format 'xml'",
		},
		{
			name:   "sample rate above one",
			mutate: func(o *Options) { o.SentryTracesSampleRate = 1.5 },
			errMsg: "traces sample rate",
		},
		{
			name:   "negative agent wait timeout",
			mutate: func(o *Options) { o.Agent.WaitTimeout = -time.Second },
			errMsg: "agent wait timeout cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewDefaultOptions()
			tt.mutate(opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOptions_Complete(t *testing.T) {
	opts := &Options{APIURL: " https://api.dev.cast.ai/ "}
	require.NoError(t, opts.Complete())

	assert.Equal(t, "https://api.dev.cast.ai", opts.APIURL)
	assert.Equal(t, "castai-credentials", opts.SecretName)
	assert.Equal(t, 300, opts.RateLimit)
	assert.Equal(t, "dev", opts.Stack)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, 5*time.Minute, opts.Agent.WaitTimeout)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Derived(t *testing.T) {
	opts := NewDefaultOptions()
	opts.APIToken = "secret"
	opts.SentryDSN = "https://key@sentry.example.com/1"
	opts.SentryEnvironment = "staging"

	cfg := opts.ProviderConfig()
	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, "https://api.cast.ai", cfg.APIURL)

	clientOpts := opts.ClientOptions(nil, nil)
	assert.Nil(t, clientOpts.HTTPTransport)
	assert.Equal(t, 300, clientOpts.RateLimit)
	assert.Equal(t, 30*time.Second, clientOpts.Timeout)

	tc := opts.TracingConfig("v1.2.3")
	assert.Equal(t, opts.SentryDSN, tc.DSN)
	assert.Equal(t, "staging", tc.Environment)
	assert.Equal(t, "v1.2.3", tc.Release)
	assert.Equal(t, 0.1, tc.TracesSampleRate)
}

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load(NewViper(), "")
	require.NoError(t, err)

	defaults := NewDefaultOptions()
	assert.Equal(t, defaults.APIURL, opts.APIURL)
	assert.Equal(t, defaults.Timeout, opts.Timeout)
	assert.Equal(t, defaults.RateLimit, opts.RateLimit)
	assert.Equal(t, defaults.Stack, opts.Stack)
	assert.Equal(t, defaults.SentryTracesSampleRate, opts.SentryTracesSampleRate)
	assert.Equal(t, defaults.Agent.Namespace, opts.Agent.Namespace)
	assert.Equal(t, defaults.Agent.WaitTimeout, opts.Agent.WaitTimeout)
	assert.Empty(t, opts.Agent.ValuesFiles)
	assert.Empty(t, opts.APIToken)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "castai.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
stack: from-file
project: infra
timeout: 45s
log-level: debug
agent:
  provider: eks
  read-only: true
  values:
    - a.yaml
    - b.yaml
`), 0o600))

	t.Setenv(EnvStack, "from-env")
	t.Setenv(EnvAPIToken, "env-token")

	v := NewViper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("project", "castai", "")
	fs.String("agent-cluster-id", "", "")
	require.NoError(t, BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--agent-cluster-id=c-1"}))

	opts, err := Load(v, file)
	require.NoError(t, err)

	assert.Equal(t, "from-env", opts.Stack, "env wins over file")
	assert.Equal(t, "env-token", opts.APIToken)
	assert.Equal(t, "infra", opts.Project, "file wins over an unchanged flag default")
	assert.Equal(t, 45*time.Second, opts.Timeout)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "eks", opts.Agent.Provider)
	assert.True(t, opts.Agent.ReadOnly)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, opts.Agent.ValuesFiles)
	assert.Equal(t, "c-1", opts.Agent.ClusterID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadTokenFromSecret(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "castai-credentials", Namespace: "castai-agent"},
		Data: map[string][]byte{
			"apiToken": []byte("from-secret"),
			"apiUrl":   []byte("https://api.eu.cast.ai/"),
		},
	}

	tests := []struct {
		name      string
		opts      func() *Options
		objects   bool
		wantToken string
		wantURL   string
		wantErr   bool
	}{
		{
			name: "disabled",
			opts: func() *Options {
				return NewDefaultOptions()
			},
			objects:   true,
			wantToken: "",
			wantURL:   "https://api.cast.ai",
		},
		{
			name: "reads token and url",
			opts: func() *Options {
				o := NewDefaultOptions()
				o.TokenFromSecret = true
				return o
			},
			objects:   true,
			wantToken: "from-secret",
			wantURL:   "https://api.eu.cast.ai",
		},
		{
			name: "explicit token wins",
			opts: func() *Options {
				o := NewDefaultOptions()
				o.TokenFromSecret = true
				o.APIToken = "explicit"
				return o
			},
			objects:   true,
			wantToken: "explicit",
			wantURL:   "https://api.cast.ai",
		},
		{
			name: "missing secret",
			opts: func() *Options {
				o := NewDefaultOptions()
				o.TokenFromSecret = true
				return o
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewSimpleClientset()
			if tt.objects {
				clientset = fake.NewSimpleClientset(secret.DeepCopy())
			}
			opts := tt.opts()
			err := opts.LoadTokenFromSecret(context.Background(), clientset)
			if tt.wantErr {
				var secretErr *client.SecretError
				require.ErrorAs(t, err, &secretErr)
				assert.Equal(t, "castai-credentials", secretErr.SecretName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, opts.APIToken)
			assert.Equal(t, tt.wantURL, opts.APIURL)
		})
	}
}
