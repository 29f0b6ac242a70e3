package config

import (
	"encoding/json"
	"log/slog"
)

// Secret wraps a sensitive configuration value (API keys, DB passwords)
// so it never renders in logs, error messages, or JSON encodings.
type Secret string

const redacted = "***REDACTED***"

func (s Secret) String() string { return redacted }

// LogValue implements slog.LogValuer so slog never prints the value.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// Reveal returns the underlying value. Call sites must not log or
// re-marshal the result.
func (s Secret) Reveal() string { return string(s) }

func (s Secret) Empty() bool { return s == "" }
