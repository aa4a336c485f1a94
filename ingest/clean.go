// Package ingest builds the knowledge graph input: it cleans raw dataset
// metadata, extracts RDF triples from it with a language model, and flattens
// Turtle files into node and relationship tables for graph loading.
package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// datatypeMap translates schema.org datatypes to their XSD equivalents.
// Anything unrecognized becomes xsd:string.
var datatypeMap = map[string]string{
	"sc:Text":    "xsd:string",
	"sc:Integer": "xsd:integer",
	"sc:Float":   "xsd:float",
	"sc:Boolean": "xsd:boolean",
}

// RawMetadata is the shape of a scraped datacard file.
type RawMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RecordSet   []struct {
		Field []struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			DataType    []string `json:"dataType"`
			Source      struct {
				Extract struct {
					Column string `json:"column"`
				} `json:"extract"`
			} `json:"source"`
		} `json:"field"`
	} `json:"recordSet"`
}

// CleanedField is one dataset column after cleaning.
type CleanedField struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DataType     string `json:"dataType"`
	SourceColumn string `json:"source_column"`
	URISuffix    string `json:"uri_suffix"`
}

// CleanedMetadata is the cleaned form handed to triple extraction.
type CleanedMetadata struct {
	DatasetName        string         `json:"dataset_name"`
	DatasetDescription string         `json:"dataset_description"`
	Fields             []CleanedField `json:"fields"`
}

var (
	emojiPattern    = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2700}-\x{27BF}\x{1F900}-\x{1F9FF}]+`)
	ruleLinePattern = regexp.MustCompile(`(?m)^-{2,}$`)
	mdRulePattern   = regexp.MustCompile(`-{3,}`)
	specialPattern  = regexp.MustCompile(`[^\w\s.,;:()\[\]%-]`)
	spacesPattern   = regexp.MustCompile(`\s+`)
	uriSafePattern  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

func removeEmojis(s string) string {
	return strings.TrimSpace(emojiPattern.ReplaceAllString(s, ""))
}

// CleanDescription strips emojis, markdown horizontal rules, and stray
// symbols from free-text descriptions and normalizes the whitespace.
func CleanDescription(desc string) string {
	desc = emojiPattern.ReplaceAllString(desc, "")
	desc = ruleLinePattern.ReplaceAllString(desc, "")
	desc = mdRulePattern.ReplaceAllString(desc, " ")
	desc = specialPattern.ReplaceAllString(desc, "")
	desc = spacesPattern.ReplaceAllString(desc, " ")
	return strings.TrimSpace(desc)
}

// URISuffix derives a URI-safe identifier for a field name.
func URISuffix(name string) string {
	return uriSafePattern.ReplaceAllString(name, "_") + "Field"
}

// Clean normalizes one raw datacard into the cleaned form.
func Clean(raw RawMetadata) CleanedMetadata {
	cleaned := CleanedMetadata{
		DatasetName:        removeEmojis(strings.TrimSpace(raw.Name)),
		DatasetDescription: CleanDescription(strings.TrimSpace(raw.Description)),
		Fields:             []CleanedField{},
	}

	for _, rs := range raw.RecordSet {
		for _, f := range rs.Field {
			name := strings.TrimSpace(f.Name)
			desc := strings.TrimSpace(f.Description)
			if desc == "" {
				desc = name
			}

			rawType := "sc:Text"
			if len(f.DataType) > 0 {
				rawType = f.DataType[0]
			}
			datatype, ok := datatypeMap[rawType]
			if !ok {
				datatype = "xsd:string"
			}

			sourceColumn := f.Source.Extract.Column
			if sourceColumn == "" {
				sourceColumn = name
			}

			cleaned.Fields = append(cleaned.Fields, CleanedField{
				Name:         name,
				Description:  CleanDescription(desc),
				DataType:     datatype,
				SourceColumn: sourceColumn,
				URISuffix:    URISuffix(name),
			})
		}
	}
	return cleaned
}

// CleanDir cleans every .json datacard in inDir and writes the cleaned
// files under the same names in outDir.
func CleanDir(inDir, outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", inDir, err)
	}

	cleaned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(inDir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return cleaned, fmt.Errorf("reading %s: %w", path, err)
		}
		var raw RawMetadata
		if err := json.Unmarshal(data, &raw); err != nil {
			slog.Warn("clean: skipping unparseable datacard", "file", path, "error", err)
			continue
		}

		out, err := json.MarshalIndent(Clean(raw), "", "  ")
		if err != nil {
			return cleaned, fmt.Errorf("encoding %s: %w", entry.Name(), err)
		}
		outPath := filepath.Join(outDir, entry.Name())
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return cleaned, fmt.Errorf("writing %s: %w", outPath, err)
		}
		cleaned++
		slog.Info("clean: datacard cleaned", "file", entry.Name())
	}
	return cleaned, nil
}
