// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strings"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/review"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateReviewSettings(&settings.Review); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := settings.Dataset.Layout().Validate(); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateJournalSettings(&settings.Journal); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateTelemetrySettings(&settings.Telemetry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateReviewSettings(settings *ReviewSettings) error {
	var errs []string

	grid := review.Grid{Rows: settings.Rows, Columns: settings.Columns}
	if err := grid.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if _, err := dataset.ParseCategory(settings.Category); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("review settings errors: %v", errs)
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if settings.Listen == "" {
		return fmt.Errorf("webserver listen address must be set")
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("invalid webserver listen address %q: %w", settings.Listen, err)
	}
	return nil
}

func validateJournalSettings(settings *JournalSettings) error {
	if !settings.Enabled {
		return nil
	}
	switch strings.ToLower(settings.Driver) {
	case "sqlite":
		if settings.Path == "" {
			return fmt.Errorf("journal path must be set for the sqlite driver")
		}
	case "mysql":
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			return fmt.Errorf("journal mysql host and database must be set")
		}
	default:
		return fmt.Errorf("unknown journal driver %q, expected sqlite or mysql", settings.Driver)
	}
	return nil
}

func validateTelemetrySettings(settings *TelemetrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("telemetry dsn must be set when telemetry is enabled")
	}
	return nil
}
