package main

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks flag combinations before any work starts.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError reports the first failing field with its flag name.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	for _, e := range validationErrs {
		flagName := flagNames[e.Field()]
		switch e.Tag() {
		case "required":
			return fmt.Errorf("-%s is required", flagName)
		case "endswith":
			return fmt.Errorf("-%s must end with %s", flagName, e.Param())
		default:
			return fmt.Errorf("-%s: validation failed (%s)", flagName, e.Tag())
		}
	}
	return err
}

var flagNames = map[string]string{
	"SkeletonFile": "skeleton",
	"ConfigFile":   "config",
	"OutputJSON":   "json",
	"DBPath":       "db",
	"OutputHTML":   "html",
	"OutputPNG":    "png",
	"MetricsFile":  "metrics",
}
