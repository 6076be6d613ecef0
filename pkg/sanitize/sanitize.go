package sanitize

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Credential-bearing fragments that can surface in error text.
var (
	authHeaderPattern = regexp.MustCompile(`(?i)\b(basic|bearer)\s+[A-Za-z0-9._~+/=-]+`)
	keyValuePattern   = regexp.MustCompile(`(?i)\b(password|passwd|pwd|token|jwt|secret)(["']?\s*[:=]\s*["']?)[^\s"',}]+`)
)

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"token", "jwt", "bearer",
	"secret", "authorization",
}

// Message redacts credentials from free-form log text.
func Message(message string) string {
	message = authHeaderPattern.ReplaceAllString(message, "${1} "+redacted)
	message = keyValuePattern.ReplaceAllString(message, "${1}${2}"+redacted)
	return message
}

// Map returns a copy of data with values under sensitive keys replaced.
func Map(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	out := make(map[string]any, len(data))
	for k, v := range data {
		if isSensitiveKey(k) {
			out[k] = redacted
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
