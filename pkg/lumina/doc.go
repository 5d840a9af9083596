// Package lumina embeds the Lumina image search pipeline in a Go program,
// without running the HTTP API.
//
// Images are normalized, embedded by a multimodal provider (Cohere or any
// OpenAI-compatible endpoint) and stored in Redis or Milvus. Text queries are
// embedded into the same vector space and answered with a nearest-neighbour search.
//
//	client, err := lumina.New(ctx,
//	    lumina.WithRedis("localhost:6379", ""),
//	    lumina.WithCohere(os.Getenv("COHERE_API_KEY"), ""),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	img, _ := lumina.ImageFromFile("photos/beach.jpg")
//	id, _ := client.UploadImage(ctx, img)
//	hits, _ := client.Search(ctx, "a sunny beach", 5)
package lumina
