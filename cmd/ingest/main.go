// Command ingest runs the offline knowledge graph construction jobs.
//
// Usage:
//
//	go run ./cmd/ingest --mode clean   --in raw_datacards --out clean_data
//	go run ./cmd/ingest --mode extract --in clean_data    --out ttl_output
//	go run ./cmd/ingest --mode convert --in ttl_output    --out csv_output
//	go run ./cmd/ingest --mode load    --in csv_output
//
// Each mode is one stage: clean datacard JSON, extract Turtle triples with
// the chat model, flatten Turtle into node/relationship tables, and load
// the tables into the graph store (wiping it first).
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	ontorag "github.com/ywangkg/ontorag"
	"github.com/ywangkg/ontorag/graphstore"
	"github.com/ywangkg/ontorag/ingest"
	"github.com/ywangkg/ontorag/llm"
)

func main() {
	godotenv.Load()

	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		mode       = flag.String("mode", "", "Stage to run: clean, extract, convert, load")
		inDir      = flag.String("in", "", "Input directory")
		outDir     = flag.String("out", "", "Output directory (not used by load)")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if *inDir == "" {
		log.Fatal("--in is required")
	}
	switch *mode {
	case "clean", "extract", "convert":
		if *outDir == "" {
			log.Fatalf("--out is required for mode %s", *mode)
		}
	case "load":
	default:
		log.Fatalf("unknown --mode: %q (use: clean, extract, convert, load)", *mode)
	}

	cfg := ontorag.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = ontorag.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Chat.Provider == "gemini" && cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = v
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

	switch *mode {
	case "clean":
		n, err := ingest.CleanDir(*inDir, *outDir)
		exitOn(err)
		slog.Info("clean complete", "files", n)

	case "extract":
		chat, err := llm.NewProvider(cfg.Chat)
		exitOn(err)
		n, err := ingest.NewExtractor(chat).ExtractDir(ctx, *inDir, *outDir)
		exitOn(err)
		slog.Info("extraction complete", "files", n)

	case "convert":
		n, err := ingest.ConvertDir(*inDir, *outDir)
		exitOn(err)
		slog.Info("conversion complete", "files", n)

	case "load":
		store, err := graphstore.Connect(ctx, cfg.Graph)
		exitOn(err)
		defer store.Close(ctx)

		stats, err := graphstore.LoadDir(ctx, store, *inDir)
		exitOn(err)
		slog.Info("load complete",
			"nodes", stats.Nodes, "relationships", stats.Relationships, "skipped", stats.Skipped)
	}
}

func exitOn(err error) {
	if err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}
