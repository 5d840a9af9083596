package lumina

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "milvus"
	addrs    []string
	username string
	password string

	provider string // "cohere" or "openai"
	apiKey   string
	baseURL  string
	model    string
	embedder Embedder

	namespace  string
	dimension  int
	index      string
	maxSide    int
	maxPixels  int
	quality    int
	batchSize  int
	concurrent int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores vectors in a Redis 8 (or Redis Stack) instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMilvus stores vectors in a Milvus or Zilliz Cloud instance.
func WithMilvus(addr, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMilvus
		c.addrs = []string{addr}
		c.username = username
		c.password = password
	})
}

// WithCohere embeds through Cohere's v2 embed API. An empty model means embed-v4.0.
func WithCohere(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = providerCohere
		c.apiKey = apiKey
		c.model = model
	})
}

// WithOpenAI embeds through an OpenAI-compatible multimodal /embeddings endpoint.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = providerOpenAI
		c.apiKey = apiKey
		c.baseURL = baseURL
		c.model = model
	})
}

// WithEmbedder plugs in a custom embedding provider instead of Cohere or OpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithNamespace sets the namespace images are stored in and searched. Default: "images".
func WithNamespace(ns string) Option {
	return optionFunc(func(c *clientConfig) {
		c.namespace = ns
	})
}

// WithDimension sets the vector dimension of the index. Default: 1536.
func WithDimension(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimension = dim
	})
}

// WithIndex names the Redis FT index or Milvus collection. Default: "lumina".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithImageSize bounds the longest side of prepared images and sets the JPEG quality.
func WithImageSize(maxSide, quality int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxSide = maxSide
		c.quality = quality
	})
}

// WithMaxImagePixels rejects images whose decoded width*height exceeds n.
func WithMaxImagePixels(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxPixels = n
	})
}

// WithBatch sets how many images go into one embed call and how many calls run at once.
func WithBatch(size, concurrency int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
		c.concurrent = concurrency
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
