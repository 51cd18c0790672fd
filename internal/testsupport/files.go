package testsupport

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"research2crossref/internal/record"
)

// Thesis returns a publication that normalizes and builds cleanly as a
// dissertation registered under its ISBN.
func Thesis(id, isbn string) record.Publication {
	return record.Publication{
		ID:       id,
		Title:    "Thesis " + id,
		Abstract: "<p>Abstract of " + id + "</p>",
		Year:     "2024",
		Language: "en",
		SubType:  "Doctoral thesis",
		ISBN:     isbn,
		DispDate: "2024-05-17T10:00:00",
		Contributors: []record.Contributor{
			{GivenName: "Ada", FamilyName: "Lovelace", Role: record.RoleAuthor},
		},
	}
}

// ReadDir lists the file names under dir in lexical order. A missing
// directory is empty.
func ReadDir(t testing.TB, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// WriteFile creates path with content, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
