package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lumina-search/lumina/pkg/lumina"
)

const exitCommand = "exit"

// searcher is the slice of the client the prompt uses.
type searcher interface {
	Search(ctx context.Context, query string, topK int) ([]lumina.Hit, error)
	Stats(ctx context.Context) (lumina.Stats, error)
}

// searchLoop reads queries line by line until "exit" or end of input and prints the hits.
func searchLoop(ctx context.Context, s searcher, topK int, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "what are you looking for? ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == exitCommand {
			return nil
		}
		if query == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		st, err := s.Stats(ctx)
		if err != nil {
			fmt.Fprintf(out, "Stats unavailable: %v\n", err)
		} else {
			fmt.Fprintf(out, "Database contains %d vectors\n", st.TotalVectors)
		}

		hits, err := s.Search(ctx, query, topK)
		if err != nil {
			fmt.Fprintf(out, "Search failed: %v\n", err)
			continue
		}
		printHits(out, hits)
	}
}

func printHits(out io.Writer, hits []lumina.Hit) {
	fmt.Fprintf(out, "\n✓ Found %d results:\n\n", len(hits))
	if len(hits) == 0 {
		fmt.Fprintln(out, "  No results found. Try a broader query like 'person' or 'portrait'.")
		return
	}
	for i, h := range hits {
		fmt.Fprintf(out, "  %d. %s\n", i+1, h.Filename)
		fmt.Fprintf(out, "     Similarity: %.1f%% | Score: %.4f\n\n", h.SimilarityPercent, h.Score)
	}
}
