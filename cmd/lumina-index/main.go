// lumina-index uploads a directory of photos into a Lumina index and,
// optionally, opens an interactive search prompt over them.
//
// Usage:
//
//	lumina-index -dir photos -glob '*.JPG' -batch 50 -interactive
//
// Env vars (a .env file is loaded first):
//
//	VECTORSTORE_DRIVER   - redis (default) or milvus
//	VECTORSTORE_ADDR     - store address (default: localhost:6379)
//	VECTORSTORE_USERNAME - milvus user
//	VECTORSTORE_PASSWORD - store password
//	EMBEDDING_PROVIDER   - cohere (default) or openai
//	EMBEDDING_API_KEY    - provider key; falls back to COHERE_API_KEY or OPENAI_API_KEY
//	EMBEDDING_BASE_URL   - OpenAI-compatible base URL
//	EMBEDDING_MODEL      - model name
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lumina-search/lumina/pkg/lumina"
)

func main() {
	_ = godotenv.Load()
	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		cancel()
		log.Fatal(err)
	}
}

type config struct {
	dir         string
	glob        string
	batchSize   int
	namespace   string
	dimension   int
	topK        int
	interactive bool
	skipUpload  bool
	verbose     bool
}

func parseFlags() config {
	cfg := config{}
	flag.StringVar(&cfg.dir, "dir", "photos", "directory to scan for images")
	flag.StringVar(&cfg.glob, "glob", "*.JPG", "file name pattern inside -dir")
	flag.IntVar(&cfg.batchSize, "batch", 50, "images per upload batch")
	flag.StringVar(&cfg.namespace, "namespace", "images", "namespace to write and search")
	flag.IntVar(&cfg.dimension, "dim", 1536, "vector dimension of the index")
	flag.IntVar(&cfg.topK, "top-k", 5, "results per interactive query")
	flag.BoolVar(&cfg.interactive, "interactive", false, "prompt for search queries after indexing")
	flag.BoolVar(&cfg.skipUpload, "skip-upload", false, "only run the search prompt")
	flag.BoolVar(&cfg.verbose, "v", false, "log every client operation")
	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg config, in io.Reader, out io.Writer) error {
	client, err := lumina.New(ctx, clientOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	if !cfg.skipUpload {
		paths, err := findImages(cfg.dir, cfg.glob)
		if err != nil {
			return err
		}
		if _, err := indexImages(ctx, client, paths, cfg.batchSize, out); err != nil {
			return err
		}
	}

	if cfg.interactive {
		return searchLoop(ctx, client, cfg.topK, in, out)
	}
	return nil
}

func clientOptions(cfg config) []lumina.Option {
	opts := []lumina.Option{
		lumina.WithNamespace(cfg.namespace),
		lumina.WithDimension(cfg.dimension),
		lumina.WithBatch(cfg.batchSize, 0),
	}

	addr := envOr("VECTORSTORE_ADDR", "localhost:6379")
	switch envOr("VECTORSTORE_DRIVER", "redis") {
	case "milvus":
		opts = append(opts, lumina.WithMilvus(addr, os.Getenv("VECTORSTORE_USERNAME"), os.Getenv("VECTORSTORE_PASSWORD")))
	default:
		opts = append(opts, lumina.WithRedis(addr, os.Getenv("VECTORSTORE_PASSWORD")))
	}

	switch envOr("EMBEDDING_PROVIDER", "cohere") {
	case "openai":
		opts = append(opts, lumina.WithOpenAI(
			envOr("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
			os.Getenv("EMBEDDING_BASE_URL"), os.Getenv("EMBEDDING_MODEL")))
	default:
		opts = append(opts, lumina.WithCohere(
			envOr("EMBEDDING_API_KEY", os.Getenv("COHERE_API_KEY")), os.Getenv("EMBEDDING_MODEL")))
	}

	if cfg.verbose {
		opts = append(opts, lumina.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	return opts
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
