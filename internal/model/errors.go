package model

import "fmt"

// ValidationError marks a record-level contract violation. It is fatal for
// the whole record; the record is excluded from output and the error is
// surfaced to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: field %s %s", e.Field, e.Reason)
}

// ConfigError marks a configuration leaf left undefined across all tiers.
// Resolution downgrades it to a warning and falls back to the system
// default; the type exists so the fallback can be reported precisely.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config field %s unresolved at every tier", e.Field)
}
