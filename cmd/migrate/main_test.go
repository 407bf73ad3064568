package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantOK      bool
		wantVersion int
		wantName    string
	}{
		{"0001_create_categories.sql", true, 1, "create_categories"},
		{"0042_seed_defaults.sql", true, 42, "seed_defaults"},
		{"001_short_version.sql", false, 0, ""},
		{"0001_no_extension", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"notes.txt", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = %d, %q; want %d, %q",
					tt.filename, version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}

func TestExpandPlaceholders(t *testing.T) {
	sql := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.categories` (id STRING)"

	got := expandPlaceholders(sql, "my-project", "ledger")
	want := "CREATE TABLE `my-project.ledger.categories` (id STRING)"
	if got != want {
		t.Errorf("expandPlaceholders = %q, want %q", got, want)
	}
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0002_create_payment_methods.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.payment_methods` (id STRING)",
		"0001_create_categories.sql":      "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.categories` (id STRING)",
		"README.md":                       "not a migration",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	migrations, err := readMigrations(dir, "my-project", "ledger")
	if err != nil {
		t.Fatalf("readMigrations error: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("Expected 2 migrations, got %d", len(migrations))
	}
	// Sorted by version regardless of directory order.
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("Expected versions [1 2], got [%d %d]", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
		t.Error("Expected distinct non-empty checksums")
	}
	if want := "`my-project.ledger.categories`"; !strings.Contains(migrations[0].SQL, want) {
		t.Errorf("Expected expanded SQL to contain %s, got %s", want, migrations[0].SQL)
	}
}
