package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeCRIS serves search, fetch and update requests for a fixed set of
// publications keyed by id.
type fakeCRIS struct {
	mu         sync.Mutex
	pubs       map[string]map[string]any
	order      []string
	updates    map[string]map[string]any
	failSearch bool
}

func newFakeCRIS() *fakeCRIS {
	return &fakeCRIS{
		pubs:    make(map[string]map[string]any),
		updates: make(map[string]map[string]any),
	}
}

func (f *fakeCRIS) add(id, isbn string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, id)
	f.pubs[id] = map[string]any{
		"Id":              id,
		"Title":           "Thesis " + id,
		"Abstract":        "Abstract of " + id,
		"Year":            2024,
		"IdentifierIsbn":  []string{isbn},
		"DispDate":        "2024-05-17T10:00:00",
		"Language":        map[string]any{"Iso": "en"},
		"PublicationType": map[string]any{"Id": "x", "NameEng": "Doctoral thesis"},
		"Persons": []map[string]any{
			{"PersonData": map[string]any{"FirstName": "Ada", "LastName": "Lovelace"}},
		},
		"Identifiers": []any{},
		"Unmodeled":   map[string]any{"kept": true},
	}
}

func (f *fakeCRIS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/publications/")
	switch {
	case r.Method == http.MethodGet && id == "" && f.failSearch:
		http.Error(w, "search unavailable", http.StatusServiceUnavailable)
	case r.Method == http.MethodGet && id == "":
		query := r.URL.Query().Get("query")
		var list []map[string]any
		for _, key := range f.order {
			if strings.HasPrefix(query, "Id:") && query != fmt.Sprintf("Id:%q", key) {
				continue
			}
			list = append(list, f.pubs[key])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"TotalCount": len(list), "Publications": list})
	case r.Method == http.MethodGet:
		pub, ok := f.pubs[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(pub)
	case r.Method == http.MethodPut:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updates[id] = body
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "unexpected request", http.StatusMethodNotAllowed)
	}
}

func (f *fakeCRIS) updated(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.updates[id]
	return ok
}

// fakeDeposit accepts multipart uploads and records the file names.
type fakeDeposit struct {
	mu     sync.Mutex
	status int
	files  []string
}

func (d *fakeDeposit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != 0 {
		w.WriteHeader(d.status)
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.FormValue("login_id") != "user" || r.FormValue("operation") != "doQueryUpload" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	file, header, err := r.FormFile("fname")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)
	d.files = append(d.files, header.Filename)
	_, _ = w.Write([]byte("SUCCESS"))
}

func (d *fakeDeposit) uploads() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
	outputDir  string
	cris       *fakeCRIS
	deposit    *fakeDeposit
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		stateDir:   filepath.Join(base, "state"),
		outputDir:  filepath.Join(base, "deposits"),
		cris:       newFakeCRIS(),
		deposit:    &fakeDeposit{},
	}
	crisServer := httptest.NewServer(env.cris)
	t.Cleanup(crisServer.Close)
	depositServer := httptest.NewServer(env.deposit)
	t.Cleanup(depositServer.Close)

	content := fmt.Sprintf(`[paths]
state_dir = %q
output_dir = %q
log_dir = %q

[crossref]
deposit_url = %q
username = "user"
password = "secret"
doi_prefix = "10.63959"
requests_per_second = 100

[cris]
api_url = %q
base_url = "https://research.example.org/publication/"
created_since = "2024-01-01"

[workflow]
batch_delay = 0
`, env.stateDir, env.outputDir, filepath.Join(base, "logs"), depositServer.URL+"/deposit", crisServer.URL+"/publications/")
	if err := os.WriteFile(env.configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
