package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/lumina-search/lumina/pkg/lumina"
)

// uploader is the slice of the client the indexer uses.
type uploader interface {
	UploadImages(ctx context.Context, imgs []lumina.Image) ([]lumina.UploadResult, error)
}

// findImages lists files in dir matching pattern, sorted by name.
func findImages(dir, pattern string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// indexImages uploads paths in batches and prints progress. Unreadable files and
// failed batches are reported and skipped. It returns the number of stored images.
func indexImages(ctx context.Context, up uploader, paths []string, batchSize int, out io.Writer) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	total := len(paths)
	batches := (total + batchSize - 1) / batchSize
	fmt.Fprintf(out, "Found %d photos\n", total)
	if total == 0 {
		return 0, nil
	}
	fmt.Fprintf(out, "Processing %d images in %d batches of %d...\n", total, batches, batchSize)

	stored := 0
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		batch := paths[b*batchSize : min((b+1)*batchSize, total)]
		imgs := make([]lumina.Image, 0, len(batch))
		for _, p := range batch {
			img, err := lumina.ImageFromFile(p)
			if err != nil {
				fmt.Fprintf(out, "  Error loading %s: %v\n", filepath.Base(p), err)
				continue
			}
			imgs = append(imgs, img)
		}
		if len(imgs) == 0 {
			continue
		}

		fmt.Fprintf(out, "Batch %d/%d: Embedding %d images... ", b+1, batches, len(imgs))
		results, err := up.UploadImages(ctx, imgs)
		if err != nil {
			fmt.Fprintf(out, "✗ Error: %v\n", err)
			continue
		}

		var failed []lumina.UploadResult
		for _, r := range results {
			if r.Err != nil {
				failed = append(failed, r)
				continue
			}
			stored++
		}
		fmt.Fprintf(out, "✓ (%d/%d complete)\n", stored, total)
		for _, f := range failed {
			fmt.Fprintf(out, "  Failed %s: %v\n", f.Filename, f.Err)
		}
	}

	fmt.Fprintf(out, "✓ Stored %d of %d photos\n", stored, total)
	return stored, nil
}
