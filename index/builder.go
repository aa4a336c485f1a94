package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ywangkg/ontorag/graphstore"
	"github.com/ywangkg/ontorag/llm"
)

// embedBatchSize is how many passages go to the embedding model per request.
const embedBatchSize = 32

// Builder computes passage embeddings and writes the four index artifacts.
type Builder struct {
	embedder llm.Provider
}

// NewBuilder creates an index builder using the given embedding provider.
func NewBuilder(embedder llm.Provider) *Builder {
	return &Builder{embedder: embedder}
}

// Build enriches the snapshot into passages, embeds them, and writes all
// four artifacts into dir. Artifacts from a previous build are overwritten;
// a failure mid-build can leave a mixed generation on disk, so a failed
// build must be re-run before the directory is used for retrieval.
func (b *Builder) Build(ctx context.Context, dir string, nodes []graphstore.Node, rels []graphstore.Relation) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	passages := BuildPassages(nodes, rels)
	slog.Info("build: passages enriched", "count", len(passages))
	if len(passages) == 0 {
		return fmt.Errorf("no passages to index")
	}

	embedStart := time.Now()
	vectors := make([][]float32, 0, len(passages))
	for i := 0; i < len(passages); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			texts[j-i] = passages[j].Text
		}

		batch, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch %d-%d: %w", i, end, err)
		}
		if len(batch) != len(texts) {
			return fmt.Errorf("embedding batch %d-%d: got %d vectors for %d texts", i, end, len(batch), len(texts))
		}
		for _, vec := range batch {
			normalize(vec)
			vectors = append(vectors, vec)
		}
		slog.Info("build: embeddings computed", "done", end, "total", len(passages))
	}
	slog.Info("build: embedding complete",
		"passages", len(passages), "elapsed", time.Since(embedStart).Round(time.Millisecond))

	if err := writeVecIndex(ctx, filepath.Join(dir, IndexFile), vectors); err != nil {
		return err
	}

	texts := make([]string, len(passages))
	metadata := make([]Metadata, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
		metadata[i] = p.Meta
	}
	if err := writeJSON(filepath.Join(dir, PassagesFile), texts); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, MetadataFile), metadata); err != nil {
		return err
	}
	if rels == nil {
		rels = []graphstore.Relation{}
	}
	if err := writeJSON(filepath.Join(dir, RelationshipsFile), rels); err != nil {
		return err
	}

	slog.Info("build: artifacts written", "dir", dir,
		"passages", len(passages), "relationships", len(rels))
	return nil
}

// writeVecIndex creates a fresh sqlite-vec database where vector rowid i is
// passage position i. This positional keying is what aligns the index with
// the passage and metadata lists.
func writeVecIndex(ctx context.Context, path string, vectors [][]float32) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing old index: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	defer db.Close()

	dim := len(vectors[0])
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE VIRTUAL TABLE vec_passages USING vec0(
			passage_id INTEGER PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		)
	`, dim))
	if err != nil {
		return fmt.Errorf("creating vec table: %w", err)
	}

	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), dim)
		}
		_, err := db.ExecContext(ctx,
			"INSERT INTO vec_passages (passage_id, embedding) VALUES (?, ?)",
			i, serializeFloat32(vec))
		if err != nil {
			return fmt.Errorf("inserting vector %d: %w", i, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
