package graphstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// nodeRow is one row of a *_nodes table: entity URI plus its raw label text.
type nodeRow struct {
	ID    string
	Label string
}

// relRow is one row of a *_rels table.
type relRow struct {
	Source string
	Type   string
	Target string
}

// LoadStats reports the outcome of a bulk load.
type LoadStats struct {
	Nodes         int
	Relationships int
	Skipped       int
}

var relTypeSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// LoadDir bulk-loads all node/relationship tables found in dir into the
// entity store. It accepts CSV and XLSX tables named *_nodes.* and *_rels.*,
// wipes the store, then creates nodes and relationships row by row. A failed
// row is logged and skipped; the load always runs to completion.
func LoadDir(ctx context.Context, q Querier, dir string) (*LoadStats, error) {
	nodes, err := readNodeTables(dir)
	if err != nil {
		return nil, err
	}
	rels, err := readRelTables(dir)
	if err != nil {
		return nil, err
	}
	slog.Info("loader: tables read", "dir", dir, "nodes", len(nodes), "rels", len(rels))

	if _, err := q.Run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return nil, fmt.Errorf("clearing store: %w", err)
	}

	stats := &LoadStats{}
	for _, node := range nodes {
		label := labelFromTypeRels(node.ID, rels)
		query := fmt.Sprintf(
			"CREATE (n:`%s` {uri: $uri, label: $label, name: $name})", label)
		_, err := q.Run(ctx, query, map[string]any{
			"uri":   node.ID,
			"label": node.Label,
			"name":  CleanLabel(node.Label),
		})
		if err != nil {
			slog.Warn("loader: node create failed", "uri", node.ID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Nodes++
	}

	for _, rel := range rels {
		// type rows were consumed as node labels above.
		if rel.Type == "type" {
			continue
		}
		relType := relTypeSanitizer.ReplaceAllString(CleanLabel(rel.Type), "_")
		query := fmt.Sprintf(`
			MATCH (source {uri: $source_uri})
			MATCH (target {uri: $target_uri})
			CREATE (source)-[r:`+"`%s`"+`]->(target)
			SET r.original_type = $original_type
		`, relType)
		_, err := q.Run(ctx, query, map[string]any{
			"source_uri":    rel.Source,
			"target_uri":    rel.Target,
			"original_type": rel.Type,
		})
		if err != nil {
			slog.Warn("loader: relationship create failed",
				"source", rel.Source, "target", rel.Target, "error", err)
			stats.Skipped++
			continue
		}
		stats.Relationships++
	}

	slog.Info("loader: load complete",
		"nodes", stats.Nodes, "relationships", stats.Relationships, "skipped", stats.Skipped)
	return stats, nil
}

// CleanLabel extracts a readable label from a URI (fragment, or last path
// segment) or returns a non-URI value unchanged.
func CleanLabel(uriOrLabel string) string {
	s := strings.TrimSpace(uriOrLabel)
	if !strings.HasPrefix(s, "http") {
		return s
	}
	if i := strings.LastIndex(s, "#"); i >= 0 {
		return s[i+1:]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// labelFromTypeRels derives the store label for a node from its outgoing
// `type` relationships, defaulting to Entity.
func labelFromTypeRels(nodeURI string, rels []relRow) string {
	for _, rel := range rels {
		if rel.Source == nodeURI && rel.Type == "type" {
			return CleanLabel(rel.Target)
		}
	}
	return "Entity"
}

func readNodeTables(dir string) ([]nodeRow, error) {
	records, err := readTables(dir, "*_nodes")
	if err != nil {
		return nil, err
	}
	nodes := make([]nodeRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		nodes = append(nodes, nodeRow{ID: rec[0], Label: rec[1]})
	}
	return nodes, nil
}

func readRelTables(dir string) ([]relRow, error) {
	records, err := readTables(dir, "*_rels")
	if err != nil {
		return nil, err
	}
	rels := make([]relRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		rels = append(rels, relRow{Source: rec[0], Type: rec[1], Target: rec[2]})
	}
	return rels, nil
}

// readTables concatenates the data rows (header stripped) of every matching
// CSV and XLSX table in dir.
func readTables(dir, stem string) ([][]string, error) {
	var all [][]string
	for _, ext := range []string{".csv", ".xlsx"} {
		paths, err := filepath.Glob(filepath.Join(dir, stem+ext))
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			var records [][]string
			if ext == ".csv" {
				records, err = readCSV(path)
			} else {
				records, err = readXLSX(path)
			}
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			if len(records) > 1 {
				all = append(all, records[1:]...)
			}
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no %s tables found in %s", stem, dir)
	}
	return all, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetRows(f.GetSheetName(0))
}
