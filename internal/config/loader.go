package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the
// coordination service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	AssistantEmail   string
	DefaultTimezone  string
	ResponseDeadline time.Duration
	ReminderDelay    time.Duration
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting every missing or invalid entry at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:coordinator.db?_foreign_keys=on",
		DefaultTimezone:  "America/New_York",
		ResponseDeadline: 48 * time.Hour,
		ReminderDelay:    24 * time.Hour,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("COORDINATOR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "COORDINATOR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("COORDINATOR_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if email := strings.TrimSpace(os.Getenv("COORDINATOR_ASSISTANT_EMAIL")); email == "" {
		missing = append(missing, "COORDINATOR_ASSISTANT_EMAIL")
	} else {
		cfg.AssistantEmail = email
	}

	if tz := strings.TrimSpace(os.Getenv("COORDINATOR_DEFAULT_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "COORDINATOR_DEFAULT_TIMEZONE")
		} else {
			cfg.DefaultTimezone = tz
		}
	}

	if deadlineValue := strings.TrimSpace(os.Getenv("COORDINATOR_RESPONSE_DEADLINE")); deadlineValue != "" {
		deadline, err := time.ParseDuration(deadlineValue)
		if err != nil || deadline <= 0 {
			invalid = append(invalid, "COORDINATOR_RESPONSE_DEADLINE")
		} else {
			cfg.ResponseDeadline = deadline
		}
	}

	if delayValue := strings.TrimSpace(os.Getenv("COORDINATOR_REMINDER_DELAY")); delayValue != "" {
		delay, err := time.ParseDuration(delayValue)
		if err != nil || delay <= 0 {
			invalid = append(invalid, "COORDINATOR_REMINDER_DELAY")
		} else {
			cfg.ReminderDelay = delay
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
