package lumina

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	dombatch "github.com/lumina-search/lumina/internal/domain/batch"
	imageuc "github.com/lumina-search/lumina/internal/usecase/image"
)

// ImageFromFile reads an image from disk. The content type comes from the file
// extension, or from the leading bytes when the extension is unknown.
func ImageFromFile(path string) (Image, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", path, err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Image{Filename: filepath.Base(path), ContentType: ct, Data: data}, nil
}

// UploadImage embeds and stores one image and returns its id.
func (c *Client) UploadImage(ctx context.Context, img Image) (id string, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("image.upload", start, err, "filename", img.Filename)
		if err == nil {
			c.obs.images(1, 0)
		} else {
			c.obs.images(0, 1)
		}
	}()

	rec, err := c.images.Upload(ctx, toFile(img), c.namespace)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return rec.ID(), nil
}

// UploadImages stores many images. Results keep input order; a failure of one
// image does not fail the call. A non-image content type rejects the whole batch.
func (c *Client) UploadImages(ctx context.Context, imgs []Image) (_ []UploadResult, err error) {
	start := time.Now()
	var ok, failed int
	defer func() {
		c.obs.observe("image.upload_batch", start, err, "images", len(imgs), "uploaded", ok, "failed", failed)
		c.obs.images(ok, failed)
	}()

	files := make([]imageuc.File, len(imgs))
	for i := range imgs {
		files[i] = toFile(imgs[i])
	}

	results, err := c.images.UploadBatch(ctx, files, c.namespace)
	if err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}

	out := make([]UploadResult, len(results))
	for i, r := range results {
		out[i] = UploadResult{Filename: r.Filename(), ID: r.ID(), Err: r.Err()}
		if r.Status() == dombatch.StatusOK {
			ok++
		} else {
			failed++
		}
	}
	return out, nil
}

// Delete removes an image by id. Unknown ids succeed.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("image.delete", start, err, "id", id) }()

	if err = c.images.Delete(ctx, id, c.namespace); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func toFile(img Image) imageuc.File {
	return imageuc.File{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        img.Data,
	}
}
