// Command ontorag runs the interactive knowledge graph query session.
//
// Usage:
//
//	go run ./cmd/ontorag \
//	  --index ./data \
//	  --dialect cypher
//
// Connection settings come from the config file, overridden by NEO4J_URI,
// NEO4J_USER, NEO4J_PASSWORD, SPARQL_ENDPOINT, and GEMINI_API_KEY.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	ontorag "github.com/ywangkg/ontorag"
)

func main() {
	godotenv.Load()

	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		indexDir   = flag.String("index", "", "Index artifact directory (overrides config)")
		dialect    = flag.String("dialect", "", "Query dialect: cypher or sparql (overrides config)")
		topK       = flag.Int("k", 0, "Passages retrieved per question (overrides config)")
		logLevel   = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := ontorag.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = ontorag.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	if *indexDir != "" {
		cfg.IndexDir = *indexDir
	}
	if *dialect != "" {
		cfg.Dialect = *dialect
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}
	applyEnv(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session, err := ontorag.NewSession(ctx, cfg)
	if err != nil {
		slog.Error("starting session", "error", err)
		os.Exit(1)
	}
	defer session.Close(context.Background())

	if err := session.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("session failed", "error", err)
		os.Exit(1)
	}
}

// applyEnv overlays connection settings from the environment.
func applyEnv(cfg *ontorag.Config) {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.Graph.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("SPARQL_ENDPOINT"); v != "" {
		cfg.SPARQL.Endpoint = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Chat.Provider == "gemini" && cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = v
	}
}
