package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ywangkg/ontorag/llm"
)

// RetrievedDoc is one passage returned from a similarity search.
type RetrievedDoc struct {
	Content string
	Score   float64
	Meta    Metadata
}

// Retriever embeds a question and finds the closest passages in the index.
type Retriever struct {
	idx      *Index
	embedder llm.Provider
}

// NewRetriever creates a retriever over a loaded index.
func NewRetriever(idx *Index, embedder llm.Provider) *Retriever {
	return &Retriever{idx: idx, embedder: embedder}
}

// Retrieve returns the k passages most similar to the question, best first.
// Fewer than k documents come back when the index is smaller than k.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]RetrievedDoc, error) {
	if k <= 0 {
		return nil, nil
	}

	vecs, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding question: got %d vectors, want 1", len(vecs))
	}
	query := vecs[0]
	normalize(query)

	hits, err := r.idx.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	docs := make([]RetrievedDoc, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(r.idx.Passages) {
			slog.Warn("retrieve: hit outside passage list", "position", h.Position)
			continue
		}
		doc := RetrievedDoc{
			Content: r.idx.Passages[h.Position],
			Score:   h.Score,
		}
		if h.Position < len(r.idx.Metadata) {
			doc.Meta = r.idx.Metadata[h.Position]
		}
		docs = append(docs, doc)
	}

	slog.Debug("retrieve: done", "question_len", len(question), "k", k, "hits", len(docs))
	return docs, nil
}
