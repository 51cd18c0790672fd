package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"research2crossref/internal/config"
	"research2crossref/internal/record"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CRIS_API_EP", "https://cris.example.org/api/publication/")
	t.Setenv("DOI_PREFIX", "10.63959")
}

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CROSSREF_UID", "depositor")
	t.Setenv("CROSSREF_PW", "secret")
	t.Setenv("MAXRECORDS", "7")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "r2c", "state")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LedgerPath() != filepath.Join(wantState, "ledger.tsv") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if cfg.CRIS.APIURL != "https://cris.example.org/api/publication/" {
		t.Fatalf("expected CRIS api url from env, got %q", cfg.CRIS.APIURL)
	}
	if cfg.Crossref.DOIPrefix != "10.63959" {
		t.Fatalf("expected DOI prefix from env, got %q", cfg.Crossref.DOIPrefix)
	}
	if cfg.Crossref.Username != "depositor" || cfg.Crossref.Password != "secret" {
		t.Fatalf("expected credentials from env, got %q/%q", cfg.Crossref.Username, cfg.Crossref.Password)
	}
	if cfg.Crossref.DepositURL != "https://doi.crossref.org/servlet/deposit" {
		t.Fatalf("unexpected deposit url: %q", cfg.Crossref.DepositURL)
	}
	if cfg.CRIS.MaxRecords != 7 {
		t.Fatalf("expected MAXRECORDS to apply, got %d", cfg.CRIS.MaxRecords)
	}
	if cfg.CRIS.PublicationTypeID != "645ba094-942d-400a-84cc-ec47ee01ec48" {
		t.Fatalf("unexpected publication type id: %q", cfg.CRIS.PublicationTypeID)
	}
	if !cfg.Workflow.CreateDOI || !cfg.Workflow.UpdateCRIS {
		t.Fatal("expected create_doi and update_cris enabled by default")
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if cfg.BatchDelay() != 10*time.Second {
		t.Fatalf("unexpected batch delay: %s", cfg.BatchDelay())
	}
	if cfg.WatermarkMargin() != 24*time.Hour {
		t.Fatalf("unexpected watermark margin: %s", cfg.WatermarkMargin())
	}
	if cfg.DefaultPublicationType() != record.TypeDissertation {
		t.Fatalf("unexpected default publication type: %q", cfg.DefaultPublicationType())
	}
	if cfg.Institution.RORID != "https://ror.org/040wg7k59" {
		t.Fatalf("unexpected institution ror: %q", cfg.Institution.RORID)
	}
	if err := cfg.ValidateDeposit(); err != nil {
		t.Fatalf("ValidateDeposit returned error: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "r2c.toml")

	type payload struct {
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Crossref struct {
			DOIPrefix string `toml:"doi_prefix"`
		} `toml:"crossref"`
		CRIS struct {
			APIURL     string `toml:"api_url"`
			MaxRecords int    `toml:"max_records"`
		} `toml:"cris"`
		Workflow struct {
			CreateDOI       bool   `toml:"create_doi"`
			PublicationType string `toml:"publication_type"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Crossref.DOIPrefix = "10.5555/"
	custom.CRIS.APIURL = "https://cris.example.org/api/"
	custom.CRIS.MaxRecords = 3
	custom.Workflow.CreateDOI = false
	custom.Workflow.PublicationType = "Report"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Crossref.DOIPrefix != "10.5555" {
		t.Fatalf("expected trailing slash trimmed from prefix, got %q", cfg.Crossref.DOIPrefix)
	}
	if cfg.CRIS.MaxRecords != 3 {
		t.Fatalf("unexpected max records: %d", cfg.CRIS.MaxRecords)
	}
	if cfg.Workflow.CreateDOI {
		t.Fatal("expected create_doi false from file")
	}
	if cfg.DefaultPublicationType() != record.TypeReport {
		t.Fatalf("unexpected publication type: %q", cfg.DefaultPublicationType())
	}
	if err := cfg.ValidateDeposit(); err == nil {
		t.Fatal("expected deposit validation to fail without credentials")
	}
}

func TestCreateDOIEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CREATE_DOI", "false")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Workflow.CreateDOI {
		t.Fatal("expected CREATE_DOI=false to disable deposits")
	}

	t.Setenv("CREATE_DOI", "maybe")
	if _, _, _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "CREATE_DOI") {
		t.Fatalf("expected CREATE_DOI parse error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.CRIS.APIURL = "https://cris.example.org/api/"
		cfg.CRIS.BaseURL = "https://cris.example.org/publication/"
		cfg.Crossref.DOIPrefix = "10.1234"
		return cfg
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected base config to validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing api url", func(c *config.Config) { c.CRIS.APIURL = "" }, "cris.api_url"},
		{"relative api url", func(c *config.Config) { c.CRIS.APIURL = "cris/api" }, "cris.api_url"},
		{"ftp base url", func(c *config.Config) { c.CRIS.BaseURL = "ftp://cris.example.org/" }, "cris.base_url"},
		{"missing prefix", func(c *config.Config) { c.Crossref.DOIPrefix = "" }, "crossref.doi_prefix"},
		{"malformed prefix", func(c *config.Config) { c.Crossref.DOIPrefix = "11.1234" }, "crossref.doi_prefix"},
		{"zero timeout", func(c *config.Config) { c.Workflow.RequestTimeout = 0 }, "workflow.request_timeout"},
		{"negative delay", func(c *config.Config) { c.Workflow.BatchDelay = -1 }, "workflow.batch_delay"},
		{"unknown type", func(c *config.Config) { c.Workflow.PublicationType = "journal" }, "workflow.publication_type"},
		{"bad created since", func(c *config.Config) { c.CRIS.CreatedSince = "June" }, "cris.created_since"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreatedSinceParsesDates(t *testing.T) {
	cfg := config.Default()
	ts, ok := cfg.CreatedSince()
	if !ok {
		t.Fatal("expected default created_since to parse")
	}
	if !ts.Equal(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created_since: %s", ts)
	}
	cfg.CRIS.CreatedSince = ""
	if _, ok := cfg.CreatedSince(); ok {
		t.Fatal("expected blank created_since to report absent")
	}
}

func TestParseToggle(t *testing.T) {
	for _, value := range []string{"y", "YES", "ja", "true", "1"} {
		if got, err := config.ParseToggle(value); err != nil || !got {
			t.Fatalf("ParseToggle(%q) = %v, %v", value, got, err)
		}
	}
	for _, value := range []string{"n", "nej", "false", "0"} {
		if got, err := config.ParseToggle(value); err != nil || got {
			t.Fatalf("ParseToggle(%q) = %v, %v", value, got, err)
		}
	}
	if _, err := config.ParseToggle("perhaps"); err == nil {
		t.Fatal("expected error for unknown toggle")
	}
}

func TestCreateSampleWritesEmbeddedConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(data) != config.SampleConfig() {
		t.Fatal("expected sample file to match embedded config")
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if decoded.Institution.ThesisSeriesID == "" {
		t.Fatal("expected sample to carry thesis series id")
	}
}
