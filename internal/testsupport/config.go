package testsupport

import (
	"path/filepath"
	"testing"

	"research2crossref/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Endpoints point nowhere; tests inject fakes or httptest servers.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.OutputDir = filepath.Join(base, "deposits")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Crossref.DepositURL = "http://127.0.0.1:0/deposit"
	cfgVal.Crossref.Username = "user"
	cfgVal.Crossref.Password = "secret"
	cfgVal.Crossref.DOIPrefix = "10.63959"
	cfgVal.CRIS.APIURL = "http://127.0.0.1:0/publications/"
	cfgVal.CRIS.BaseURL = "https://research.example.org/publication/"
	cfgVal.CRIS.PublicationTypeID = "645ba094-942d-400a-84cc-ec47ee01ec48"
	cfgVal.CRIS.MaxRecords = 50
	cfgVal.Workflow.BatchDelay = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCRISURL points the CRIS client at url, typically an httptest server.
func WithCRISURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CRIS.APIURL = url
	}
}

// WithDepositURL points the deposit client at url.
func WithDepositURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Crossref.DepositURL = url
	}
}

// WithCredentials overrides the deposit credentials.
func WithCredentials(username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Crossref.Username = username
		b.cfg.Crossref.Password = password
	}
}

// WithToggles sets the run-level create_doi and update_cris defaults.
func WithToggles(createDOI, updateCRIS bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.CreateDOI = createDOI
		b.cfg.Workflow.UpdateCRIS = updateCRIS
	}
}

// WithBatchDelay sets the courtesy delay in seconds.
func WithBatchDelay(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.BatchDelay = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
