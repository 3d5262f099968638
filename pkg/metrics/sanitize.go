package metrics

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// MaxLabelLength is the maximum length for a Prometheus label value
const MaxLabelLength = 128

// labelSanitizeRegex matches characters that are NOT allowed in label values.
// Resource tokens (castai:aws:EksCluster) keep their colons.
var labelSanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\.:]`)

// SanitizeLabel returns a label value safe for the metrics above and whether
// it differs from the input. Invalid characters become underscores, values
// are truncated to MaxLabelLength and empty values become "unknown".
func SanitizeLabel(value string) (string, bool) {
	if value == "" {
		return "unknown", true
	}

	sanitized := labelSanitizeRegex.ReplaceAllString(value, "_")
	if len(sanitized) > MaxLabelLength {
		sanitized = sanitized[:MaxLabelLength]
	}

	return sanitized, sanitized != value
}

// SanitizeLabelWithLog sanitizes a label value and logs a warning if it changed
func SanitizeLabelWithLog(value string, labelName string, logger *zap.Logger) string {
	sanitized, changed := SanitizeLabel(value)
	if changed {
		logger.Warn("Sanitized metric label value",
			zap.String("label", labelName),
			zap.String("original", value),
			zap.String("sanitized", sanitized),
			zap.String("reason", sanitizationReason(value)),
		)
	}
	return sanitized
}

func sanitizationReason(original string) string {
	var reasons []string
	if original == "" {
		reasons = append(reasons, "empty_value")
	}
	if len(original) > MaxLabelLength {
		reasons = append(reasons, "exceeded_max_length")
	}
	if labelSanitizeRegex.MatchString(original) {
		reasons = append(reasons, "invalid_characters")
	}
	if len(reasons) == 0 {
		return "unknown"
	}
	return strings.Join(reasons, ",")
}
