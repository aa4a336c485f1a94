package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ywangkg/ontorag/llm"
)

// Extractor turns cleaned dataset metadata into RDF triples with a chat
// model prompted on the OntoDM ontology.
type Extractor struct {
	chat llm.Provider
}

// NewExtractor creates a triple extractor over a chat provider.
func NewExtractor(chat llm.Provider) *Extractor {
	return &Extractor{chat: chat}
}

const triplePromptHeader = `You are an expert ontology population assistant. Your task is to generate RDF triples in Turtle format using the OntoDM ontology (https://purl.org/ontodm#) and Dublin Core Terms (https://purl.org/dc/terms/), given any unstructured dataset metadata.

---

### Ontology URI:
https://purl.org/ontodm#

### Use these OntoDM classes:
- ontodm:Dataset
- ontodm:Feature
- ontodm:TaskSpecification
- ontodm:ApplicationDomain
- ontodm:Purpose
- ontodm:Modality
- ontodm:predictive_model_representation
- ontodm:clustering_representation
- ontodm:data_example_specification
- ontodm:distance
- ontodm:generalization_quality
- ontodm:pattern_representation
- ontodm:database

### Use these properties:
- ontodm:hasName
- ontodm:hasDescription
- ontodm:hasDataType
- ontodm:is_specified_input_of
- ontodm:is_specified_output_of
- dcterms:license
- ontodm:has_number
- ontodm:has_features_number
- ontodm:has_data_items_number
- ontodm:has_quality
- ontodm:has_agent
- ontodm:has_part

---

### Instructions:
- Parse and interpret the raw metadata below.
- Do not assume any fixed structure. Extract concepts even from free-text.
- Map fields, tasks, modalities, purposes, and licenses as best as possible.
- Output only RDF triples in valid Turtle (.ttl) syntax.
- Skip unknown or unmappable fields.

---
### Example:
Input Metadata:
{
  "title": "Cancer Severity Predictor",
  "description": "This model predicts the severity of cancer based on patient features. It includes 5 features and was trained on 10,000 examples.",
  "licenses": [{"name": "CC0"}]
}

Output RDF Triples:
@prefix ontodm: <https://purl.org/ontodm#> .
@prefix dcterms: <http://purl.org/dc/terms/> .
@prefix ex: <http://example.org/> .

ex:Cancer_Severity_Predictor a ontodm:predictive_model_representation ;
    ontodm:hasName "Cancer Severity Predictor" ;
    ontodm:hasDescription "This model predicts the severity of cancer..." ;
    ontodm:has_number "1"^^xsd:integer ;
    ontodm:has_features_number "5"^^xsd:integer ;
    ontodm:has_data_items_number "10000"^^xsd:integer ;
    dcterms:license <https://creativecommons.org/publicdomain/zero/1.0/> .


### Input Metadata:
`

// buildTriplePrompt renders the extraction prompt around the metadata JSON.
func buildTriplePrompt(metadataJSON string) string {
	return triplePromptHeader + metadataJSON + "\n\n---\n\n### Output RDF Triples:\n"
}

// Extract generates Turtle triples for one cleaned metadata record.
func (e *Extractor) Extract(ctx context.Context, meta CleanedMetadata) (string, error) {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: buildTriplePrompt(string(raw))},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("triple extraction: %w", err)
	}

	return stripTurtleFences(resp.Content), nil
}

// stripTurtleFences removes code fences and a leading "turtle" language tag
// the model often wraps its output in.
func stripTurtleFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.Trim(s, "`"))
	}
	if strings.HasPrefix(strings.ToLower(s), "turtle") {
		s = strings.TrimSpace(s[len("turtle"):])
	}
	return s
}

// ExtractDir runs triple extraction over every cleaned .json file in inDir,
// writing a .ttl file per dataset into outDir. Files the model fails on are
// skipped, the rest still go through.
func (e *Extractor) ExtractDir(ctx context.Context, inDir, outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", inDir, err)
	}

	written := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(inDir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return written, fmt.Errorf("reading %s: %w", path, err)
		}
		var meta CleanedMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			slog.Warn("extract: skipping unparseable metadata", "file", path, "error", err)
			continue
		}

		turtle, err := e.Extract(ctx, meta)
		if err != nil {
			slog.Warn("extract: extraction failed", "file", path, "error", err)
			continue
		}

		name := meta.DatasetName
		if name == "" {
			name = strings.TrimSuffix(entry.Name(), ".json")
		}
		name = strings.NewReplacer(" ", "_", "/", "_").Replace(name)

		outPath := filepath.Join(outDir, name+".ttl")
		if err := os.WriteFile(outPath, []byte(turtle), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", outPath, err)
		}
		written++
		slog.Info("extract: triples written", "dataset", name, "file", outPath)
	}
	return written, nil
}
