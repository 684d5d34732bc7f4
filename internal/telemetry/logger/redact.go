package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// MaxPayloadLen is the longest payload attribute written verbatim.
const MaxPayloadLen = 64

// payloadKeys name attributes that carry client data.
var payloadKeys = map[string]struct{}{
	"value":   {},
	"args":    {},
	"line":    {},
	"payload": {},
	"reply":   {},
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// sanitizeAttr redacts credentials and truncates client payloads.
func sanitizeAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if IsPayloadKey(a.Key) {
			return slog.String(a.Key, Truncate(s))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = sanitizeAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Truncate shortens s to MaxPayloadLen bytes, noting how much was cut.
func Truncate(s string) string {
	if len(s) <= MaxPayloadLen {
		return s
	}
	return fmt.Sprintf("%s...(+%d bytes)", s[:MaxPayloadLen], len(s)-MaxPayloadLen)
}

// IsPayloadKey reports whether key names an attribute holding client data.
func IsPayloadKey(key string) bool {
	_, ok := payloadKeys[strings.ToLower(key)]
	return ok
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
