// Package config provides configuration management for the ArbStream scanner.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var marketNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("markettype", validateMarketType)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateMarketType rejects market names that are not lower snake case
func validateMarketType(fl validator.FieldLevel) bool {
	return marketNamePattern.MatchString(fl.Field().String())
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Scanner.ScanTimeoutSeconds < cfg.Scanner.SourceTimeoutSeconds {
		return fmt.Errorf("scan_timeout_seconds cannot be shorter than source_timeout_seconds")
	}

	if cfg.Scanner.Bankroll > cfg.Scanner.BankrollCeiling {
		return fmt.Errorf("bankroll cannot exceed bankroll_ceiling")
	}

	enabled := 0
	names := make(map[string]bool, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if names[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		names[src.Name] = true
		if !src.Enabled {
			continue
		}
		enabled++
		if src.Type == "odds_api" && src.APIKey == "" {
			return fmt.Errorf("source %q requires an api_key", src.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	labels := make(map[string]string)
	for _, m := range cfg.Markets {
		seen := make(map[string]bool, len(m.Labels))
		for _, label := range m.Labels {
			if seen[label] {
				return fmt.Errorf("market type %q lists label %q twice", m.Name, label)
			}
			seen[label] = true
			if owner, ok := labels[label]; ok && owner != m.Name {
				return fmt.Errorf("label %q belongs to both %q and %q", label, owner, m.Name)
			}
			labels[label] = m.Name
		}
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructNamespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "markettype":
			fmt.Fprintf(&b, "- Field '%s' must be a lower snake case market name\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
