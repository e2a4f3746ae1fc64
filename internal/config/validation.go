// Package config provides configuration management for the accumulator engine.
package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var formStringPattern = regexp.MustCompile(`^[WLD]+$`)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("form", validateFormString)

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
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// ValidateStruct validates an arbitrary tagged struct, used by the HTTP layer
// for request payloads.
func (cv *CustomValidator) ValidateStruct(s interface{}) error {
	err := cv.validator.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
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

// validateFormString validates a recent-form string like "WWLDW"
func validateFormString(fl validator.FieldLevel) bool {
	return formStringPattern.MatchString(fl.Field().String())
}

// validateCrossField enforces relationships between configuration fields
func validateCrossField(cfg *Config) error {
	if cfg.Builder.MinSelections > cfg.Builder.MaxSelections {
		return fmt.Errorf("builder.min_selections (%d) must not exceed builder.max_selections (%d)",
			cfg.Builder.MinSelections, cfg.Builder.MaxSelections)
	}
	if cfg.Builder.OddsRangeLow > cfg.Builder.OddsRangeHigh {
		return fmt.Errorf("builder.odds_range_low (%d) must not exceed builder.odds_range_high (%d)",
			cfg.Builder.OddsRangeLow, cfg.Builder.OddsRangeHigh)
	}
	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %v", messages)
}
