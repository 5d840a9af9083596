// Package image holds the image record stored in the vector database.
package image

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-search/lumina/internal/domain"
)

// Record defaults and metadata values.
const (
	DefaultNamespace = "images"
	TypeImage        = "image"
	UnknownFilename  = "Unknown"
	IDPrefix         = "Image_"
)

// MaxNamespaceLength is the longest accepted namespace, the Milvus partition name limit.
const MaxNamespaceLength = 255

// Namespaces map to Redis TAG values and Milvus partitions; this is the subset both accept.
var namespacePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateNamespace rejects names that are not valid in every vector store backend.
func ValidateNamespace(ns string) error {
	if len(ns) > MaxNamespaceLength {
		return fmt.Errorf("%w: namespace longer than %d characters", domain.ErrInvalidRequest, MaxNamespaceLength)
	}
	if !namespacePattern.MatchString(ns) {
		return fmt.Errorf("%w: namespace %q must start with a letter or underscore "+
			"and contain only letters, digits and underscores", domain.ErrInvalidRequest, ns)
	}
	return nil
}

// Record is an embedded image ready to be upserted. The bytes are not kept.
type Record struct {
	id        string
	filename  string
	namespace string
	vector    []float32
	createdAt int64
}

// New validates and builds a Record. An empty namespace falls back to DefaultNamespace.
func New(id, filename, namespace string, vector []float32, createdAt int64) (Record, error) {
	if id == "" {
		return Record{}, errors.New("image id is required")
	}
	if len(vector) == 0 {
		return Record{}, errors.New("image vector is required")
	}
	if filename == "" {
		filename = UnknownFilename
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if err := ValidateNamespace(namespace); err != nil {
		return Record{}, err
	}
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	return Record{
		id:        id,
		filename:  filename,
		namespace: namespace,
		vector:    vector,
		createdAt: createdAt,
	}, nil
}

// NewID returns a fresh identifier of the form Image_<8 hex chars>.
func NewID() string {
	return IDPrefix + uuid.NewString()[:8]
}

// IsImageContentType reports whether a declared MIME type is image/*.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// ID returns the image identifier.
func (r *Record) ID() string { return r.id }

// Filename returns the original upload filename.
func (r *Record) Filename() string { return r.filename }

// Namespace returns the vector database namespace.
func (r *Record) Namespace() string { return r.namespace }

// Vector returns the embedding.
func (r *Record) Vector() []float32 { return r.vector }

// CreatedAt returns the upload time in unix seconds.
func (r *Record) CreatedAt() int64 { return r.createdAt }
