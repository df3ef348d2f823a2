// Package config loads EmoSic runtime configuration from environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/go-emosic/internal/classifier"
	"github.com/justestif/go-emosic/internal/sheets"
)

var (
	// ErrMissingConfiguration is returned when required settings are absent.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrInvalidConfiguration is returned when a setting cannot be parsed.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultClassifierURL points at a hosted DistilRoBERTa emotion model.
	DefaultClassifierURL = "https://api-inference.huggingface.co/models/bhadresh-savani/distilroberta-base-emotion"

	defaultClassifierTimeout = 30 * time.Second
)

// Config holds all runtime configuration.
type Config struct {
	Addr           string
	LogLevel       string
	LogDevelopment bool
	CatalogPath    string // empty uses the embedded catalog
	DatabaseURL    string // empty keeps sessions in memory

	Classifier classifier.Config
	Feedback   sheets.Config

	// invalid lists keys whose values could not be parsed.
	invalid []string
}

// Load reads configuration from environment variables. Credentials may be
// given field by field (GCP_SA_*) or as a key file (EMOSIC_GCP_CREDENTIALS_FILE);
// individual fields override the file.
func Load() (*Config, error) {
	var invalid []string
	cfg := &Config{
		Addr:           envStr("EMOSIC_ADDR", DefaultAddr),
		LogLevel:       envStr("EMOSIC_LOG_LEVEL", "info"),
		LogDevelopment: envBool("EMOSIC_LOG_DEV", false, &invalid),
		CatalogPath:    os.Getenv("EMOSIC_CATALOG_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Classifier: classifier.Config{
			URL:     envStr("EMOSIC_CLASSIFIER_URL", DefaultClassifierURL),
			Token:   os.Getenv("EMOSIC_CLASSIFIER_TOKEN"),
			Timeout: envDuration("EMOSIC_CLASSIFIER_TIMEOUT", defaultClassifierTimeout, &invalid),
		},
		Feedback: sheets.Config{
			SpreadsheetName: envStr("EMOSIC_SHEET_NAME", sheets.DefaultSpreadsheetName),
			SpreadsheetID:   os.Getenv("EMOSIC_SHEET_ID"),
		},
		invalid: invalid,
	}

	if path := os.Getenv("EMOSIC_GCP_CREDENTIALS_FILE"); path != "" {
		sa, err := readServiceAccount(path)
		if err != nil {
			return nil, err
		}
		cfg.Feedback.Credentials = sa
	}
	overlayServiceAccount(&cfg.Feedback.Credentials)

	return cfg, nil
}

// Validate checks every required setting. Missing keys are reported together
// under ErrMissingConfiguration and unparsable ones under ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var missing []string

	if strings.TrimSpace(c.Addr) == "" {
		missing = append(missing, "EMOSIC_ADDR")
	}
	if strings.TrimSpace(c.Classifier.URL) == "" {
		missing = append(missing, "EMOSIC_CLASSIFIER_URL")
	}
	if c.Classifier.Timeout <= 0 {
		missing = append(missing, "EMOSIC_CLASSIFIER_TIMEOUT")
	}

	// A service account is optional, but a partial one is a mistake.
	if sa := c.Feedback.Credentials; !sa.IsZero() {
		required := []struct {
			key, value string
		}{
			{"GCP_SA_TYPE", sa.Type},
			{"GCP_SA_PROJECT_ID", sa.ProjectID},
			{"GCP_SA_PRIVATE_KEY_ID", sa.PrivateKeyID},
			{"GCP_SA_PRIVATE_KEY", sa.PrivateKey},
			{"GCP_SA_CLIENT_EMAIL", sa.ClientEmail},
			{"GCP_SA_CLIENT_ID", sa.ClientID},
			{"GCP_SA_TOKEN_URI", sa.TokenURI},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				missing = append(missing, r.key)
			}
		}
	}

	if c.Feedback.SpreadsheetName == "" && c.Feedback.SpreadsheetID == "" {
		missing = append(missing, "EMOSIC_SHEET_NAME")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", ")))
	}
	if len(c.invalid) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(c.invalid, ", ")))
	}
	return errors.Join(errs...)
}

// FeedbackEnabled reports whether feedback credentials are configured.
func (c *Config) FeedbackEnabled() bool {
	return !c.Feedback.Credentials.IsZero()
}

func readServiceAccount(path string) (sheets.ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sheets.ServiceAccount{}, fmt.Errorf("reading credentials file: %w", err)
	}

	var sa sheets.ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return sheets.ServiceAccount{}, fmt.Errorf("parsing credentials file: %w", err)
	}
	return sa, nil
}

func overlayServiceAccount(sa *sheets.ServiceAccount) {
	fields := []struct {
		key string
		dst *string
	}{
		{"GCP_SA_TYPE", &sa.Type},
		{"GCP_SA_PROJECT_ID", &sa.ProjectID},
		{"GCP_SA_PRIVATE_KEY_ID", &sa.PrivateKeyID},
		{"GCP_SA_PRIVATE_KEY", &sa.PrivateKey},
		{"GCP_SA_CLIENT_EMAIL", &sa.ClientEmail},
		{"GCP_SA_CLIENT_ID", &sa.ClientID},
		{"GCP_SA_AUTH_URI", &sa.AuthURI},
		{"GCP_SA_TOKEN_URI", &sa.TokenURI},
		{"GCP_SA_AUTH_PROVIDER_X509_CERT_URL", &sa.AuthProviderX509CertURL},
		{"GCP_SA_CLIENT_X509_CERT_URL", &sa.ClientX509CertURL},
		{"GCP_SA_UNIVERSE_DOMAIN", &sa.UniverseDomain},
	}
	for _, f := range fields {
		if v := os.Getenv(f.key); v != "" {
			*f.dst = v
		}
	}

	// Secrets stores often flatten the PEM key onto one line.
	sa.PrivateKey = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool parses key as a boolean. A malformed value is recorded in invalid
// and the fallback is returned.
func envBool(key string, fallback bool, invalid *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*invalid = append(*invalid, fmt.Sprintf("%s=%q", key, v))
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration, invalid *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*invalid = append(*invalid, fmt.Sprintf("%s=%q", key, v))
		return fallback
	}
	return d
}
