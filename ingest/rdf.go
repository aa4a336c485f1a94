package ingest

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"

	"github.com/ywangkg/ontorag/graphstore"
)

// ConvertTurtle flattens one Turtle file into a node table and a
// relationship table. Every subject becomes a node; IRI objects become
// nodes too and contribute an edge. Literal objects are dropped, the
// loader picks names and descriptions up from the graph later.
func ConvertTurtle(turtlePath, nodesCSV, relsCSV string) error {
	f, err := os.Open(turtlePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", turtlePath, err)
	}
	defer f.Close()

	triples, err := rdf.NewTripleDecoder(f, rdf.Turtle).DecodeAll()
	if err != nil {
		return fmt.Errorf("parsing %s: %w", turtlePath, err)
	}

	seen := map[string]bool{}
	nodes := [][]string{{"id", "label"}}
	rels := [][]string{{"source", "type", "target"}}

	addNode := func(iri string) {
		if seen[iri] {
			return
		}
		seen[iri] = true
		nodes = append(nodes, []string{iri, graphstore.CleanLabel(iri)})
	}

	for _, t := range triples {
		subj := t.Subj.String()
		addNode(subj)

		if t.Obj.Type() != rdf.TermIRI {
			continue
		}
		obj := t.Obj.String()
		addNode(obj)
		rels = append(rels, []string{subj, graphstore.CleanLabel(t.Pred.String()), obj})
	}

	if err := writeCSV(nodesCSV, nodes); err != nil {
		return err
	}
	return writeCSV(relsCSV, rels)
}

// ConvertDir converts every .ttl file in inDir into <name>_nodes.csv and
// <name>_rels.csv pairs in outDir, the layout the graph loader expects.
func ConvertDir(inDir, outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(inDir, "*.ttl"))
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", inDir, err)
	}

	converted := 0
	for _, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), ".ttl")
		nodesCSV := filepath.Join(outDir, base+"_nodes.csv")
		relsCSV := filepath.Join(outDir, base+"_rels.csv")

		if err := ConvertTurtle(path, nodesCSV, relsCSV); err != nil {
			slog.Warn("convert: turtle file failed", "file", path, "error", err)
			continue
		}
		converted++
		slog.Info("convert: tables written", "file", path, "nodes", nodesCSV, "rels", relsCSV)
	}
	return converted, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
