package graphstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"fragment", "https://purl.org/ontodm#Dataset", "Dataset"},
		{"path segment", "http://example.org/WorldBankDataset", "WorldBankDataset"},
		{"fragment wins over path", "http://example.org/onto#hasFeature", "hasFeature"},
		{"plain label", "Dataset", "Dataset"},
		{"whitespace", "  Feature ", "Feature"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanLabel(tt.input); got != tt.want {
				t.Errorf("CleanLabel(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// recordingStore captures every query the loader runs. Queries whose text
// contains failOn return an error.
type recordingStore struct {
	queries []string
	params  []map[string]any
	failOn  string
}

func (r *recordingStore) Run(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	r.queries = append(r.queries, query)
	r.params = append(r.params, params)
	if r.failOn != "" && params != nil {
		for _, v := range params {
			if s, ok := v.(string); ok && strings.Contains(s, r.failOn) {
				return nil, fmt.Errorf("%w: bad row", ErrQuery)
			}
		}
	}
	return nil, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupTables(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "world_bank_nodes.csv"),
		"id,label\n"+
			"http://example.org/ds,WorldBankDataset\n"+
			"http://example.org/gdp,GDP\n"+
			"https://purl.org/ontodm#Dataset,Dataset\n")
	writeFile(t, filepath.Join(dir, "world_bank_rels.csv"),
		"source,type,target\n"+
			"http://example.org/ds,type,https://purl.org/ontodm#Dataset\n"+
			"http://example.org/ds,https://purl.org/ontodm#hasFeature,http://example.org/gdp\n")
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := setupTables(t)
	store := &recordingStore{}

	stats, err := LoadDir(context.Background(), store, dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if stats.Nodes != 3 {
		t.Errorf("nodes: got %d, want 3", stats.Nodes)
	}
	// The type row becomes a node label, not a relationship.
	if stats.Relationships != 1 {
		t.Errorf("relationships: got %d, want 1", stats.Relationships)
	}
	if stats.Skipped != 0 {
		t.Errorf("skipped: got %d, want 0", stats.Skipped)
	}

	if store.queries[0] != "MATCH (n) DETACH DELETE n" {
		t.Errorf("store should be wiped first, got %q", store.queries[0])
	}

	var sawDatasetLabel, sawRel bool
	for _, q := range store.queries {
		if strings.Contains(q, "CREATE (n:`Dataset`") {
			sawDatasetLabel = true
		}
		if strings.Contains(q, "[r:`hasFeature`]") {
			sawRel = true
		}
	}
	if !sawDatasetLabel {
		t.Error("node label should come from the type relationship")
	}
	if !sawRel {
		t.Error("relationship type should be the cleaned URI fragment")
	}
}

func TestLoadDirSkipsFailedRows(t *testing.T) {
	dir := setupTables(t)
	store := &recordingStore{failOn: "gdp"}

	stats, err := LoadDir(context.Background(), store, dir)
	if err != nil {
		t.Fatalf("a failed row must not abort the load: %v", err)
	}
	if stats.Skipped == 0 {
		t.Error("failed rows should be counted as skipped")
	}
	if stats.Nodes != 2 {
		t.Errorf("nodes: got %d, want 2", stats.Nodes)
	}
}

func TestLoadDirNoTables(t *testing.T) {
	if _, err := LoadDir(context.Background(), &recordingStore{}, t.TempDir()); err == nil {
		t.Fatal("a directory without tables should error")
	}
}
