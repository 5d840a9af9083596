// Package chi serves the Lumina HTTP API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
	dombatch "github.com/lumina-search/lumina/internal/domain/batch"
	"github.com/lumina-search/lumina/internal/domain/search/request"
	"github.com/lumina-search/lumina/internal/domain/stats"
	healthuc "github.com/lumina-search/lumina/internal/usecase/health"
	imageuc "github.com/lumina-search/lumina/internal/usecase/image"
	"github.com/lumina-search/lumina/internal/version"
)

// ServiceName is reported by the liveness endpoint.
const ServiceName = "Lumina API"

// Upload limits used when Options leaves them unset.
const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultMaxBatchFiles  = 500

	multipartMemory = 8 << 20
)

// Options tunes request limits.
type Options struct {
	MaxUploadBytes int64
	MaxBatchFiles  int
}

// Server holds the HTTP handlers.
type Server struct {
	images        ImageService
	search        SearchService
	health        HealthService
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	images ImageService,
	search SearchService,
	health HealthService,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.MaxBatchFiles <= 0 {
		opts.MaxBatchFiles = DefaultMaxBatchFiles
	}
	return &Server{
		images:        images,
		search:        search,
		health:        health,
		opts:          opts,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Root handles GET / when no static bundle is served.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "Lumina API is running",
		Health:  "/api/health",
		Version: version.Version,
	})
}

// Liveness handles GET /api/health. It never touches the providers.
func (s *Server) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "healthy", Service: ServiceName})
}

// Readiness handles GET /api/health/ready.
func (s *Server) Readiness(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, ReadinessResponse{Status: string(report.Status), Checks: checks})
}

// Telemetry handles GET /api/telemetry. Database failures degrade the report but still answer 200.
func (s *Server) Telemetry(w http.ResponseWriter, r *http.Request) {
	t := s.health.Telemetry(r.Context())

	resp := TelemetryResponse{
		Status: t.Status,
		Error:  t.DBError,
		Database: DatabaseTelemetry{
			Connected: t.Connected,
		},
		EmbeddingService: EmbeddingTelemetry{
			Available: t.Available,
			Model:     t.Model,
		},
		UptimeSeconds: t.UptimeSeconds,
	}
	if t.Connected {
		total, dim := t.Stats.TotalVectors, t.Stats.Dimension
		resp.Database.TotalVectors = &total
		resp.Database.Dimension = &dim
		resp.Database.Namespaces = namespacesToResponse(t.Stats.Namespaces)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.health.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(st))
}

// Upload handles POST /api/upload with a single multipart "file".
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	ns, err := namespaceParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	form, err := s.parseMultipart(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		s.handleDomainError(w, r, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidRequest))
		return
	}

	file, err := readFile(headers[0])
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rec, err := s.images.Upload(ctx, file, ns)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:  "Image uploaded successfully",
		ImageID:  rec.ID(),
		Filename: file.Filename,
	})
}

// UploadBatch handles POST /api/upload/batch with repeated multipart "files".
func (s *Server) UploadBatch(w http.ResponseWriter, r *http.Request) {
	ns, err := namespaceParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	form, err := s.parseMultipart(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		s.handleDomainError(w, r, fmt.Errorf("%w: multipart field \"files\" is required", domain.ErrInvalidRequest))
		return
	}
	if len(headers) > s.opts.MaxBatchFiles {
		s.handleDomainError(w, r, fmt.Errorf("%w: batch of %d files exceeds the limit of %d",
			domain.ErrInvalidRequest, len(headers), s.opts.MaxBatchFiles))
		return
	}

	files := make([]imageuc.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		files = append(files, f)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.images.UploadBatch(ctx, files, ns)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, batchToResponse(results))
}

// Search handles POST /api/search. Query-string top_k and namespace override the body.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.handleDomainError(w, r, fmt.Errorf("%w: invalid request body: %w", domain.ErrInvalidRequest, err))
		return
	}

	topK, err := topKParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if topK == nil {
		if topK, err = parseBodyTopK(body.TopK); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}
	k := request.DefaultTopK
	if topK != nil {
		k = *topK
	}

	ns, err := namespaceParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if ns == "" {
		ns = body.Namespace
	}

	req, err := request.New(body.Query, k, ns)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = SearchResultItem{
			ID:                results[i].ID(),
			Filename:          results[i].Filename(),
			Score:             results[i].Score(),
			SimilarityPercent: results[i].Percent(),
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:      body.Query,
		Results:    items,
		TotalFound: len(items),
	})
}

// DeleteImage handles DELETE /api/images/{image_id}. Unknown ids succeed.
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := imageIDParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	ns, err := namespaceParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.images.Delete(r.Context(), id, ns); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Message: "Image deleted successfully", ImageID: id})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// parseMultipart bounds the body to MaxUploadBytes and parses the form.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrPayloadTooLarge, tooLarge.Limit)
		}
		if strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrPayloadTooLarge, s.opts.MaxUploadBytes)
		}
		return nil, fmt.Errorf("%w: invalid multipart form: %w", domain.ErrInvalidRequest, err)
	}
	return r.MultipartForm, nil
}

func readFile(fh *multipart.FileHeader) (imageuc.File, error) {
	f, err := fh.Open()
	if err != nil {
		return imageuc.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return imageuc.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return imageuc.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// parseBodyTopK accepts a JSON number or a numeric string.
func parseBodyTopK(raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	k, err := strconv.Atoi(text)
	if err != nil {
		return nil, domain.ErrInvalidTopK
	}
	return &k, nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, used := usage.Snapshot(); used && tokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
}

func batchToResponse(results []dombatch.Result) BatchUploadResponse {
	ids, failed := dombatch.Summary(results)
	resp := BatchUploadResponse{
		Message:       fmt.Sprintf("Uploaded %d images", len(ids)),
		UploadedIDs:   ids,
		Failed:        make([]FailedUpload, 0, len(failed)),
		TotalUploaded: len(ids),
		TotalFailed:   len(failed),
	}
	for _, f := range failed {
		resp.Failed = append(resp.Failed, FailedUpload{
			Filename: f.Filename(),
			Error:    batchErrorDetail(f.Err()),
		})
	}
	return resp
}

// batchErrorDetail hides unexpected errors the same way handleDomainError does.
func batchErrorDetail(err error) string {
	if err == nil || errorCode(err) == ErrorCodeInternalError {
		return "internal error"
	}
	return err.Error()
}

func statsToResponse(st stats.Stats) StatsResponse {
	return StatsResponse{
		TotalVectors: st.TotalVectors,
		Dimension:    st.Dimension,
		Namespaces:   namespacesToResponse(st.Namespaces),
	}
}

func namespacesToResponse(ns map[string]int64) map[string]NamespaceStats {
	out := make(map[string]NamespaceStats, len(ns))
	for name, count := range ns {
		out[name] = NamespaceStats{VectorCount: count}
	}
	return out
}
