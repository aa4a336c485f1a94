package ontorag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ywangkg/ontorag/graphstore"
	"github.com/ywangkg/ontorag/llm"
)

// Config holds all configuration for the OntoRAG pipeline.
type Config struct {
	// Graph configures the Neo4j entity store (used when Dialect is "cypher").
	Graph graphstore.Config `json:"graph" yaml:"graph"`

	// SPARQL configures the SPARQL endpoint (used when Dialect is "sparql").
	SPARQL graphstore.SPARQLConfig `json:"sparql" yaml:"sparql"`

	// LLM providers
	Chat      llm.Config `json:"chat" yaml:"chat"`
	Embedding llm.Config `json:"embedding" yaml:"embedding"`

	// IndexDir is the directory holding the four index artifacts.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// Dialect selects the query language: "cypher" (default) or "sparql".
	Dialect string `json:"dialect" yaml:"dialect"`

	// TopK is how many passages each question retrieves.
	TopK int `json:"top_k" yaml:"top_k"`

	// Synthesis
	MaxAttempts     int `json:"max_attempts" yaml:"max_attempts"`
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// DefaultConfig returns a Config with sensible defaults: a local Neo4j,
// Gemini for query generation, and a local Ollama for embeddings.
func DefaultConfig() Config {
	return Config{
		Graph: graphstore.Config{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		SPARQL: graphstore.SPARQLConfig{
			Endpoint: "http://localhost:7200/repositories/ontorag",
		},
		Chat: llm.Config{
			Provider: "gemini",
			Model:    "gemini-1.5-flash",
		},
		Embedding: llm.Config{
			Provider: "ollama",
			Model:    "all-minilm",
			BaseURL:  "http://localhost:11434",
		},
		IndexDir:        "data",
		Dialect:         "cypher",
		TopK:            5,
		MaxAttempts:     3,
		MaxOutputTokens: 1024,
	}
}

// LoadConfig reads a YAML or JSON config file over the defaults. Fields
// absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}
