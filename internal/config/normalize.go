package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCrossref()
	if err := c.normalizeCRIS(); err != nil {
		return err
	}
	c.normalizeIdentity()
	if err := c.normalizeWorkflow(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCrossref() {
	c.Crossref.DepositURL = envFallback(c.Crossref.DepositURL, "CROSSREF_API_EP")
	if c.Crossref.DepositURL == "" {
		c.Crossref.DepositURL = defaultDepositURL
	}
	c.Crossref.Username = envFallback(c.Crossref.Username, "CROSSREF_UID")
	c.Crossref.Password = envFallback(c.Crossref.Password, "CROSSREF_PW")
	c.Crossref.DOIPrefix = strings.TrimSuffix(envFallback(c.Crossref.DOIPrefix, "DOI_PREFIX"), "/")
	if c.Crossref.RequestsPerSecond <= 0 {
		c.Crossref.RequestsPerSecond = defaultRequestsPerSecond
	}
}

func (c *Config) normalizeCRIS() error {
	c.CRIS.APIURL = envFallback(c.CRIS.APIURL, "CRIS_API_EP")
	c.CRIS.BaseURL = envFallback(c.CRIS.BaseURL, "CRIS_BASE_URL")
	if c.CRIS.BaseURL == "" {
		c.CRIS.BaseURL = defaultCRISBaseURL
	}
	c.CRIS.APIToken = envFallback(c.CRIS.APIToken, "CRIS_API_TOKEN")
	c.CRIS.PublicationTypeID = envFallback(c.CRIS.PublicationTypeID, "PUBTYPE_ID")
	if c.CRIS.PublicationTypeID == "" {
		c.CRIS.PublicationTypeID = defaultPublicationTypeID
	}
	if value, ok := os.LookupEnv("MAXRECORDS"); ok && c.CRIS.MaxRecords == 0 {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MAXRECORDS: %w", err)
		}
		c.CRIS.MaxRecords = n
	}
	if c.CRIS.MaxRecords <= 0 {
		c.CRIS.MaxRecords = defaultMaxRecords
	}
	c.CRIS.CreatedSince = strings.TrimSpace(c.CRIS.CreatedSince)
	c.CRIS.DOIIdentifierTypeID = strings.TrimSpace(c.CRIS.DOIIdentifierTypeID)
	if c.CRIS.DOIIdentifierTypeID == "" {
		c.CRIS.DOIIdentifierTypeID = defaultDOIIdentifierTypeID
	}
	c.CRIS.UpdatedBy = strings.TrimSpace(c.CRIS.UpdatedBy)
	if c.CRIS.UpdatedBy == "" {
		c.CRIS.UpdatedBy = defaultUpdatedBy
	}
	return nil
}

func (c *Config) normalizeIdentity() {
	c.Depositor.Name = valueOr(c.Depositor.Name, defaultDepositorName)
	c.Depositor.Email = valueOr(c.Depositor.Email, defaultDepositorEmail)
	c.Institution.Name = valueOr(c.Institution.Name, defaultInstitutionName)
	c.Institution.Place = valueOr(c.Institution.Place, defaultInstitutionPlace)
	c.Institution.RORID = valueOr(c.Institution.RORID, defaultInstitutionROR)
	c.Institution.OrgTypeMarker = valueOr(c.Institution.OrgTypeMarker, defaultOrgTypeMarker)
	c.Institution.ThesisSeriesID = valueOr(c.Institution.ThesisSeriesID, defaultThesisSeriesID)
}

func (c *Config) normalizeWorkflow() error {
	if value, ok := os.LookupEnv("CREATE_DOI"); ok {
		enabled, err := parseToggle(value)
		if err != nil {
			return fmt.Errorf("CREATE_DOI: %w", err)
		}
		c.Workflow.CreateDOI = enabled
	}
	if c.Workflow.RequestTimeout == 0 {
		c.Workflow.RequestTimeout = defaultRequestTimeout
	}
	if c.Workflow.WatermarkMarginHours < 0 {
		c.Workflow.WatermarkMarginHours = defaultWatermarkMargin
	}
	c.Workflow.PublicationType = strings.ToLower(strings.TrimSpace(c.Workflow.PublicationType))
	if c.Workflow.PublicationType == "" {
		c.Workflow.PublicationType = defaultPublicationType
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// ParseToggle accepts the yes/no spellings operators use on the command line.
func ParseToggle(value string) (bool, error) {
	return parseToggle(value)
}

func parseToggle(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "ja", "j", "on":
		return true, nil
	case "0", "false", "no", "n", "nej", "off":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized toggle value %q", value)
	}
}
