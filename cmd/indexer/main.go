// Command indexer builds the vector index artifacts from the current
// contents of the graph store.
//
// Usage:
//
//	go run ./cmd/indexer --out ./data
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	ontorag "github.com/ywangkg/ontorag"
	"github.com/ywangkg/ontorag/graphstore"
	"github.com/ywangkg/ontorag/index"
	"github.com/ywangkg/ontorag/llm"
)

func main() {
	godotenv.Load()

	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		outDir     = flag.String("out", "", "Output directory for index artifacts (overrides config)")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := ontorag.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = ontorag.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}
	if *outDir != "" {
		cfg.IndexDir = *outDir
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.Graph.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}

	ctx := context.Background()

	store, err := graphstore.Connect(ctx, cfg.Graph)
	if err != nil {
		slog.Error("connecting to store", "error", err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	nodes, rels, err := graphstore.Snapshot(ctx, store)
	if err != nil {
		slog.Error("snapshotting store", "error", err)
		os.Exit(1)
	}

	embedder, err := llm.NewProvider(cfg.Embedding)
	if err != nil {
		slog.Error("creating embedding provider", "error", err)
		os.Exit(1)
	}

	if err := index.NewBuilder(embedder).Build(ctx, cfg.IndexDir, nodes, rels); err != nil {
		slog.Error("building index", "error", err)
		os.Exit(1)
	}
	slog.Info("index build complete", "dir", cfg.IndexDir)
}
