package config

import (
	"fmt"
	"regexp"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors []ValidationError
}

func (r *ValidationResult) HasErrors() bool { return len(r.Errors) > 0 }

func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	msg := "invalid configuration:"
	for _, e := range r.Errors {
		msg += "\n  - " + e.Error()
	}
	return msg
}

// Validate checks the config for internal consistency. It never touches
// the network; DSN reachability is a concern for the caller opening the
// connection, not this validator.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	add := func(field, msg string) {
		result.Errors = append(result.Errors, ValidationError{Field: field, Message: msg})
	}

	if c.Database.DSN == "" {
		if c.Database.Host == "" {
			add("database.host", "must be set when database.dsn is not provided")
		}
		if c.Database.User == "" {
			add("database.user", "must be set when database.dsn is not provided")
		}
		if c.Database.Database == "" {
			add("database.database", "must be set when database.dsn is not provided")
		}
	}

	switch c.Database.TLSMode {
	case "", "off", "skip-verify", "true", "verify-full":
	default:
		add("database.tls_mode", fmt.Sprintf("unrecognized TLS mode %q", c.Database.TLSMode))
	}

	if c.Options.ConstraintRegex != "" {
		if _, err := regexp.Compile(c.Options.ConstraintRegex); err != nil {
			add("options.constraint", fmt.Sprintf("invalid regex: %v", err))
		}
	}
	if c.Options.ExcludeRegex != "" {
		if _, err := regexp.Compile(c.Options.ExcludeRegex); err != nil {
			add("options.exclude", fmt.Sprintf("invalid regex: %v", err))
		}
	}

	return result
}
