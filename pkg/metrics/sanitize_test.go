package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedOutput  string
		expectedChanged bool
	}{
		{
			name:            "resource token kept",
			input:           "castai:aws:EksCluster",
			expectedOutput:  "castai:aws:EksCluster",
			expectedChanged: false,
		},
		{
			name:            "valid with hyphen and dot",
			input:           "castai-agent.v1",
			expectedOutput:  "castai-agent.v1",
			expectedChanged: false,
		},
		{
			name:            "empty string",
			input:           "",
			expectedOutput:  "unknown",
			expectedChanged: true,
		},
		{
			name:            "spaces replaced with underscore",
			input:           "request failed",
			expectedOutput:  "request_failed",
			expectedChanged: true,
		},
		{
			name:            "slashes replaced",
			input:           "v1/kubernetes/clusters",
			expectedOutput:  "v1_kubernetes_clusters",
			expectedChanged: true,
		},
		{
			name:            "truncated at max length",
			input:           strings.Repeat("a", 150),
			expectedOutput:  strings.Repeat("a", MaxLabelLength),
			expectedChanged: true,
		},
		{
			name:            "exactly max length",
			input:           strings.Repeat("a", MaxLabelLength),
			expectedOutput:  strings.Repeat("a", MaxLabelLength),
			expectedChanged: false,
		},
		{
			name:            "unicode replaced",
			input:           "cluster™",
			expectedOutput:  "cluster_",
			expectedChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, changed := SanitizeLabel(tt.input)
			assert.Equal(t, tt.expectedOutput, output)
			assert.Equal(t, tt.expectedChanged, changed)
		})
	}
}

func TestSanitizeLabelWithLog(t *testing.T) {
	logger := zap.NewNop()

	assert.Equal(t, "valid-label", SanitizeLabelWithLog("valid-label", "release", logger))
	assert.Equal(t, "invalid_label", SanitizeLabelWithLog("invalid@label", "release", logger))
	assert.Equal(t, "unknown", SanitizeLabelWithLog("", "release", logger))
}

func TestSanitizationReason(t *testing.T) {
	assert.Contains(t, sanitizationReason(strings.Repeat("a", 150)), "exceeded_max_length")
	assert.Contains(t, sanitizationReason("a b"), "invalid_characters")
	assert.Contains(t, sanitizationReason(""), "empty_value")
	assert.Equal(t, "unknown", sanitizationReason("fine"))
}
