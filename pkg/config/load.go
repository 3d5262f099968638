package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/castai/pulumi-castai/pkg/castai/client"
)

// Environment variables bound on top of the config file
const (
	EnvAPIToken  = "CASTAI_API_TOKEN"
	EnvAPIURL    = "CASTAI_API_URL"
	EnvStack     = "CASTAI_STACK"
	EnvSentryDSN = "SENTRY_DSN"
)

var envBindings = map[string]string{
	"api-token":  EnvAPIToken,
	"api-url":    EnvAPIURL,
	"stack":      EnvStack,
	"sentry-dsn": EnvSentryDSN,
}

// NewViper returns a viper instance holding the defaults and env bindings.
// Flags are bound with BindFlags.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	var defaults map[string]any
	// Options only holds decodable fields so this cannot fail.
	_ = mapstructure.Decode(NewDefaultOptions(), &defaults)
	setDefaults(v, "", defaults)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func setDefaults(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		if nested, ok := value.(map[string]any); ok {
			setDefaults(v, prefix+key+".", nested)
			continue
		}
		v.SetDefault(prefix+key, value)
	}
}

// BindFlags binds every flag of fs whose name is an option key. Flags under
// the agent command use the "agent-" prefix.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" {
			return
		}
		key := f.Name
		if strings.HasPrefix(key, "agent-") {
			key = "agent." + strings.TrimPrefix(key, "agent-")
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// Load reads configFile when set and decodes flags, env and file values
// into completed Options.
func Load(v *viper.Viper, configFile string) (*Options, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	opts := &Options{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToSliceHook,
		),
		WeaklyTypedInput: true,
		Result:           opts,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	return opts, nil
}

// stringToSliceHook splits comma separated env values into string slices
func stringToSliceHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return []string{}, nil
	}
	return strings.Split(s, ","), nil
}

// LoadTokenFromSecret fills APIToken and APIURL from the credentials secret
// when TokenFromSecret is set and no token was given explicitly.
func (o *Options) LoadTokenFromSecret(ctx context.Context, clientset kubernetes.Interface) error {
	if !o.TokenFromSecret || o.APIToken != "" {
		return nil
	}
	secret, err := clientset.CoreV1().Secrets(o.SecretNamespace).Get(ctx, o.SecretName, metav1.GetOptions{})
	if err != nil {
		return client.NewSecretError(o.SecretName, o.SecretNamespace, "failed to get secret", err)
	}
	token := secret.Data[client.SecretTokenKey]
	if len(token) == 0 {
		return client.NewSecretError(o.SecretName, o.SecretNamespace,
			fmt.Sprintf("secret key '%s' is missing or empty", client.SecretTokenKey), nil)
	}
	o.APIToken = string(token)
	if u := secret.Data[client.SecretURLKey]; len(u) > 0 {
		o.APIURL = strings.TrimRight(string(u), "/")
	}
	return nil
}
