package logger

import (
	"log/slog"
	"strings"
)

// redactedValue replaces credential-bearing attribute values.
const redactedValue = "[REDACTED]"

// sensitiveKeys are attribute names whose values never reach the log.
// AUTH arguments, requirepass and ACL password material all travel
// under one of these.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"secret",
	"requirepass",
	"token",
	"credential",
}

func redactSensitive(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}
