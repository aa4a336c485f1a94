// Package index builds and queries the vector index over entity passages.
//
// A build produces four co-located artifacts in one directory: the sqlite-vec
// index (passages.index), the passage list (passages.json), the metadata list
// (metadata.json), and the relationship table (relationships.json). The three
// lists are positionally aligned with the index: vector row i belongs to
// passage i and metadata record i. All four must come from the same build
// pass; there is no atomic commit across them.
package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ywangkg/ontorag/graphstore"
)

func init() {
	sqlite_vec.Auto()
}

// Artifact file names within an index directory.
const (
	IndexFile         = "passages.index"
	PassagesFile      = "passages.json"
	MetadataFile      = "metadata.json"
	RelationshipsFile = "relationships.json"
)

// ErrMissingArtifact is returned when an index directory lacks one of the
// four build artifacts. Retrieval is unavailable until a full rebuild.
var ErrMissingArtifact = errors.New("index: missing artifact")

// Index is a loaded, read-only vector index with its parallel passage and
// metadata arrays and the relationship table.
type Index struct {
	db        *sql.DB
	Passages  []string
	Metadata  []Metadata
	Relations []graphstore.Relation
}

// hit is one raw nearest-neighbor result: passage position plus similarity.
type hit struct {
	Position int
	Score    float64
}

// Load opens the four artifacts in dir. Any missing artifact fails with
// ErrMissingArtifact naming the path, so session startup can report the
// precondition violation and exit before entering the loop.
func Load(dir string) (*Index, error) {
	for _, name := range []string{IndexFile, PassagesFile, MetadataFile, RelationshipsFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
	}

	idx := &Index{}
	if err := readJSON(filepath.Join(dir, PassagesFile), &idx.Passages); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, MetadataFile), &idx.Metadata); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, RelationshipsFile), &idx.Relations); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	var vectors int
	if err := db.QueryRow("SELECT count(*) FROM vec_passages").Scan(&vectors); err != nil {
		db.Close()
		return nil, fmt.Errorf("reading index size: %w", err)
	}
	if vectors != len(idx.Passages) || vectors != len(idx.Metadata) {
		db.Close()
		return nil, fmt.Errorf("index artifacts misaligned: %d vectors, %d passages, %d metadata records",
			vectors, len(idx.Passages), len(idx.Metadata))
	}

	idx.db = db
	return idx, nil
}

// Search runs a KNN query against the index and returns positions ordered by
// descending similarity. The query vector must come from the same embedding
// model and normalization used at build time.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]hit, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT passage_id, distance
		FROM vec_passages
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []hit
	for rows.Next() {
		var position int
		var distance float64
		if err := rows.Scan(&position, &distance); err != nil {
			return nil, err
		}
		// Cosine distance to similarity; vectors are unit length so this
		// equals the inner product.
		hits = append(hits, hit{Position: position, Score: 1.0 - distance})
	}
	return hits, rows.Err()
}

// Size returns the number of indexed passages.
func (idx *Index) Size() int {
	return len(idx.Passages)
}

// Close releases the underlying index database.
func (idx *Index) Close() error {
	if idx.db == nil {
		return nil
	}
	return idx.db.Close()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// normalize scales v to unit length in place. Zero vectors are left as-is.
func normalize(v []float32) {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
