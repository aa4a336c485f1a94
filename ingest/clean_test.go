package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "emoji stripped",
			input: "Great dataset \U0001F680\U0001F4CA for research",
			want:  "Great dataset for research",
		},
		{
			name:  "markdown rule removed",
			input: "Overview\n-----\nDetails here",
			want:  "Overview Details here",
		},
		{
			name:  "whitespace normalized",
			input: "too   many\n\n  spaces",
			want:  "too many spaces",
		},
		{
			name:  "punctuation kept",
			input: "Values in range [0, 100]; precision: 0.5%",
			want:  "Values in range [0, 100]; precision: 0.5%",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanDescription(tt.input); got != tt.want {
				t.Errorf("CleanDescription(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestURISuffix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"GDP per capita", "GDP_per_capitaField"},
		{"year", "yearField"},
		{"rate (%)", "rate____Field"},
	}
	for _, tt := range tests {
		if got := URISuffix(tt.input); got != tt.want {
			t.Errorf("URISuffix(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	datacard := `{
		"name": "World Bank 🌍",
		"description": "Economic    indicators",
		"recordSet": [{"field": [
			{"name": "gdp", "dataType": ["sc:Float"]},
			{"name": "country", "description": "Country name", "dataType": ["sc:SomethingElse"]}
		]}]
	}`
	var raw RawMetadata
	if err := json.Unmarshal([]byte(datacard), &raw); err != nil {
		t.Fatal(err)
	}

	got := Clean(raw)

	if got.DatasetName != "World Bank" {
		t.Errorf("dataset name: got %q", got.DatasetName)
	}
	if got.DatasetDescription != "Economic indicators" {
		t.Errorf("dataset description: got %q", got.DatasetDescription)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("fields: got %d, want 2", len(got.Fields))
	}

	gdp := got.Fields[0]
	if gdp.DataType != "xsd:float" {
		t.Errorf("gdp datatype: got %q, want xsd:float", gdp.DataType)
	}
	if gdp.Description != "gdp" {
		t.Errorf("missing field description should fall back to name, got %q", gdp.Description)
	}
	if gdp.SourceColumn != "gdp" {
		t.Errorf("missing source column should fall back to name, got %q", gdp.SourceColumn)
	}
	if gdp.URISuffix != "gdpField" {
		t.Errorf("uri suffix: got %q", gdp.URISuffix)
	}

	if got.Fields[1].DataType != "xsd:string" {
		t.Errorf("unknown datatype should default to xsd:string, got %q", got.Fields[1].DataType)
	}
}

func TestCleanDir(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	datacard := `{
		"name": "Spotify Songs",
		"description": "200k   songs",
		"recordSet": [{"field": [{"name": "tempo", "dataType": ["sc:Float"]}]}]
	}`
	if err := os.WriteFile(filepath.Join(inDir, "spotify.json"), []byte(datacard), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := CleanDir(inDir, outDir)
	if err != nil {
		t.Fatalf("CleanDir: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleaned: got %d, want 1", n)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "spotify.json"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var meta CleanedMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if meta.DatasetName != "Spotify Songs" {
		t.Errorf("dataset name: got %q", meta.DatasetName)
	}
	if meta.DatasetDescription != "200k songs" {
		t.Errorf("description not normalized: got %q", meta.DatasetDescription)
	}
}
