package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"research2crossref/internal/record"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the on-disk locations used by a run.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Crossref contains deposit endpoint and credential settings.
type Crossref struct {
	DepositURL        string  `toml:"deposit_url"`
	Username          string  `toml:"username"`
	Password          string  `toml:"password"`
	DOIPrefix         string  `toml:"doi_prefix"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CRIS contains the research information system endpoints and query defaults.
type CRIS struct {
	APIURL              string `toml:"api_url"`
	BaseURL             string `toml:"base_url"`
	APIToken            string `toml:"api_token"`
	PublicationTypeID   string `toml:"publication_type_id"`
	MaxRecords          int    `toml:"max_records"`
	CreatedSince        string `toml:"created_since"`
	DOIIdentifierTypeID string `toml:"doi_identifier_type_id"`
	UpdatedBy           string `toml:"updated_by"`
}

// Depositor identifies who submits deposits to Crossref.
type Depositor struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// Institution holds the fixed home institution identity.
type Institution struct {
	Name           string `toml:"name"`
	Place          string `toml:"place"`
	RORID          string `toml:"ror_id"`
	OrgTypeMarker  string `toml:"org_type_marker"`
	ThesisSeriesID string `toml:"thesis_series_id"`
}

// Workflow contains run-level toggles and timing.
type Workflow struct {
	CreateDOI            bool   `toml:"create_doi"`
	UpdateCRIS           bool   `toml:"update_cris"`
	RequestTimeout       int    `toml:"request_timeout"`
	BatchDelay           int    `toml:"batch_delay"`
	WatermarkMarginHours int    `toml:"watermark_margin_hours"`
	PublicationType      string `toml:"publication_type"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for r2c.
//
// Configuration sections by subsystem:
//   - Paths: state, generated documents and logs
//   - Crossref: deposit endpoint, credentials and DOI prefix
//   - CRIS: query/update endpoints and batch query defaults
//   - Depositor: depositor identity written into every document head
//   - Institution: home institution constants used during normalization
//   - Workflow: create/update toggles, timeouts and batch pacing
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Crossref    Crossref    `toml:"crossref"`
	CRIS        CRIS        `toml:"cris"`
	Depositor   Depositor   `toml:"depositor"`
	Institution Institution `toml:"institution"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("r2c.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath is the append-only submission ledger.
func (c *Config) LedgerPath() string { return filepath.Join(c.Paths.StateDir, "ledger.tsv") }

// WatermarkPath is the file holding the incremental batch cursor.
func (c *Config) WatermarkPath() string { return filepath.Join(c.Paths.StateDir, "watermark") }

// JournalPath is the SQLite run journal.
func (c *Config) JournalPath() string { return filepath.Join(c.Paths.StateDir, "journal.db") }

// LockPath is the lock file serializing runs.
func (c *Config) LockPath() string { return filepath.Join(c.Paths.StateDir, "r2c.lock") }

// LogPath is the append-only log file.
func (c *Config) LogPath() string { return filepath.Join(c.Paths.LogDir, "r2c.log") }

// RequestTimeout returns the timeout applied to every external call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Workflow.RequestTimeout) * time.Second
}

// BatchDelay returns the courtesy pause applied after a batch that deposited.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Workflow.BatchDelay) * time.Second
}

// WatermarkMargin returns how far behind the batch start the watermark is set.
func (c *Config) WatermarkMargin() time.Duration {
	return time.Duration(c.Workflow.WatermarkMarginHours) * time.Hour
}

// DefaultPublicationType returns the Crossref type used for batch runs.
func (c *Config) DefaultPublicationType() record.PublicationType {
	t, err := record.ParseType(c.Workflow.PublicationType)
	if err != nil {
		return record.TypeDissertation
	}
	return t
}

// CreatedSince parses the initial lower bound used when no watermark exists.
func (c *Config) CreatedSince() (time.Time, bool) {
	value := strings.TrimSpace(c.CRIS.CreatedSince)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	// Credentials end up in this file.
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
