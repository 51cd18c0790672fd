package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"research2crossref/internal/record"
)

var doiPrefixPattern = regexp.MustCompile(`^10\.\d{4,9}$`)

// Validate ensures the configuration is usable. Deposit credentials are
// checked separately by ValidateDeposit because read-only commands and dry
// runs never contact Crossref.
func (c *Config) Validate() error {
	if err := c.validateCRIS(); err != nil {
		return err
	}
	if err := c.validateCrossref(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateDeposit ensures everything needed to register DOIs is present.
func (c *Config) ValidateDeposit() error {
	if strings.TrimSpace(c.Crossref.Username) == "" {
		return fmt.Errorf("crossref.username is required to deposit. Set CROSSREF_UID or edit %s", configHint())
	}
	if strings.TrimSpace(c.Crossref.Password) == "" {
		return fmt.Errorf("crossref.password is required to deposit. Set CROSSREF_PW or edit %s", configHint())
	}
	return validateURL("crossref.deposit_url", c.Crossref.DepositURL)
}

func (c *Config) validateCRIS() error {
	if strings.TrimSpace(c.CRIS.APIURL) == "" {
		return fmt.Errorf("cris.api_url is required. Set CRIS_API_EP or edit %s (create with 'r2c config init')", configHint())
	}
	if err := validateURL("cris.api_url", c.CRIS.APIURL); err != nil {
		return err
	}
	if err := validateURL("cris.base_url", c.CRIS.BaseURL); err != nil {
		return err
	}
	if c.CRIS.CreatedSince != "" {
		if _, ok := c.CreatedSince(); !ok {
			return fmt.Errorf("cris.created_since %q must be YYYY-MM-DD or RFC3339", c.CRIS.CreatedSince)
		}
	}
	return nil
}

func (c *Config) validateCrossref() error {
	if strings.TrimSpace(c.Crossref.DOIPrefix) == "" {
		return errors.New("crossref.doi_prefix is required (set DOI_PREFIX)")
	}
	if !doiPrefixPattern.MatchString(c.Crossref.DOIPrefix) {
		return fmt.Errorf("crossref.doi_prefix %q must look like 10.NNNN", c.Crossref.DOIPrefix)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RequestTimeout <= 0 {
		return errors.New("workflow.request_timeout must be positive")
	}
	if c.Workflow.BatchDelay < 0 {
		return errors.New("workflow.batch_delay must be >= 0")
	}
	if _, err := record.ParseType(c.Workflow.PublicationType); err != nil {
		return fmt.Errorf("workflow.publication_type: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func validateURL(field, raw string) error {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}

func configHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}
