package resource

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func TestIsUnimplemented(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "sentinel", err: ErrUnimplemented, expected: true},
		{name: "wrapped sentinel", err: fmt.Errorf("create: %w", ErrUnimplemented), expected: true},
		{name: "unimplemented error", err: Unimplemented(tokens.GetEksUserArn, errors.New("404")), expected: true},
		{name: "api 501", err: client.NewAPIError(501, "Not Implemented", ""), expected: true},
		{name: "wrapped api 501", err: fmt.Errorf("call: %w", client.NewAPIError(501, "x", "")), expected: true},
		{name: "api 500", err: client.NewAPIError(500, "boom", ""), expected: false},
		{name: "api 404", err: client.NewAPIError(404, "missing", ""), expected: false},
		{name: "plain", err: errors.New("other"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUnimplemented(tt.err))
		})
	}
}

func TestUnimplementedError(t *testing.T) {
	cause := client.NewAPIError(404, "Not Found", "")
	err := Unimplemented(tokens.EksUserArn, cause)

	assert.Contains(t, err.Error(), tokens.EksUserArn)
	assert.True(t, errors.Is(err, ErrUnimplemented))
	assert.True(t, client.IsNotFound(err))
}

func TestConfig(t *testing.T) {
	t.Setenv(EnvAPIToken, "secret")
	t.Setenv(EnvAPIURL, "")

	cfg := ConfigFromEnv()
	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.NoError(t, cfg.Validate())

	err := Config{}.Validate()
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("apiToken"))
	assert.Equal(t, tokens.ProviderToken, verr.Token)
}
