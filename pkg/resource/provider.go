package resource

import (
	"context"
	"os"
	"strings"

	"github.com/castai/pulumi-castai/pkg/tokens"
)

// Environment variables read by ConfigFromEnv
const (
	EnvAPIToken = "CASTAI_API_TOKEN"
	EnvAPIURL   = "CASTAI_API_URL"

	DefaultAPIURL = "https://api.cast.ai"
)

// Config is the provider configuration
type Config struct {
	APIToken string `json:"apiToken" mapstructure:"apiToken"`
	APIURL   string `json:"apiUrl" mapstructure:"apiUrl"`
}

// ConfigFromEnv reads the provider configuration from the environment
func ConfigFromEnv() Config {
	cfg := Config{
		APIToken: os.Getenv(EnvAPIToken),
		APIURL:   os.Getenv(EnvAPIURL),
	}
	return cfg.WithDefaults()
}

// WithDefaults fills the API URL when unset
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.APIURL) == "" {
		c.APIURL = DefaultAPIURL
	}
	return c
}

// Validate requires an API token
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return &ValidationError{
			Token:  tokens.ProviderToken,
			Name:   "default",
			Fields: []FieldError{{Field: "apiToken", Tag: "required"}},
		}
	}
	return nil
}

// Provider performs resource operations for CAST AI tokens
type Provider interface {
	Configure(ctx context.Context, cfg Config) error
	Create(ctx context.Context, token, name string, inputs PropertyMap) (string, PropertyMap, error)
	Read(ctx context.Context, token, id string, state PropertyMap) (PropertyMap, error)
	Update(ctx context.Context, token, id string, olds, news PropertyMap) (PropertyMap, error)
	Delete(ctx context.Context, token, id string, state PropertyMap) error
	Invoke(ctx context.Context, token string, args PropertyMap) (PropertyMap, error)
}
