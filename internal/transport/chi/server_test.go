package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
	dombatch "github.com/lumina-search/lumina/internal/domain/batch"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/domain/search/request"
	"github.com/lumina-search/lumina/internal/domain/search/result"
	"github.com/lumina-search/lumina/internal/domain/stats"
	healthuc "github.com/lumina-search/lumina/internal/usecase/health"
	imageuc "github.com/lumina-search/lumina/internal/usecase/image"
)

// --- mocks ---

type mockImages struct {
	uploaded  []imageuc.File
	namespace string
	batch     []imageuc.File
	deleted   string
	uploadErr error
	batchRes  []dombatch.Result
	batchErr  error
	deleteErr error
	tokens    int
}

func (m *mockImages) Upload(ctx context.Context, f imageuc.File, ns string) (domimage.Record, error) {
	m.uploaded = append(m.uploaded, f)
	m.namespace = ns
	if m.uploadErr != nil {
		return domimage.Record{}, m.uploadErr
	}
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	return domimage.New("Image_abcd1234", f.Filename, ns, []float32{0.1, 0.2}, 1)
}

func (m *mockImages) UploadBatch(_ context.Context, files []imageuc.File, ns string) ([]dombatch.Result, error) {
	m.batch = files
	m.namespace = ns
	return m.batchRes, m.batchErr
}

func (m *mockImages) Delete(_ context.Context, id, ns string) error {
	m.deleted = id
	m.namespace = ns
	return m.deleteErr
}

type mockSearch struct {
	got     request.Request
	results []result.Result
	err     error
	tokens  int
}

func (m *mockSearch) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	m.got = *req
	if m.err != nil {
		return nil, m.err
	}
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	return m.results, nil
}

type mockHealth struct {
	report    healthuc.Report
	stats     stats.Stats
	statsErr  error
	telemetry healthuc.Telemetry
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func (m *mockHealth) Stats(context.Context) (stats.Stats, error) { return m.stats, m.statsErr }

func (m *mockHealth) Telemetry(context.Context) healthuc.Telemetry { return m.telemetry }

// --- helpers ---

type fixture struct {
	images *mockImages
	search *mockSearch
	health *mockHealth
	router http.Handler
}

func newFixture(t *testing.T, opts Options, cfg RouterConfig) *fixture {
	t.Helper()
	f := &fixture{
		images: &mockImages{},
		search: &mockSearch{},
		health: &mockHealth{},
	}
	srv := NewServer(f.images, f.search, f.health, opts, zap.NewNop())
	f.router = NewRouter(srv, cfg, zap.NewNop())
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func searchRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

// --- root and health ---

func TestRoot(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[RootResponse](t, rr)
	assert.Equal(t, "Lumina API is running", resp.Message)
	assert.Equal(t, "/api/health", resp.Health)
}

func TestLiveness(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[LivenessResponse](t, rr)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceName, resp.Service)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestReadiness(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError, "embedding": healthuc.CheckOK},
	}
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/health/ready", http.NoBody))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp := decode[ReadinessResponse](t, rr)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "error", resp.Checks["database"])

	f.health.report = healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}
	rr = f.do(httptest.NewRequest(http.MethodGet, "/api/health/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTelemetry_Operational(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.health.telemetry = healthuc.Telemetry{
		Status:    healthuc.Operational,
		Connected: true,
		Stats: stats.Stats{
			TotalVectors: 3,
			Dimension:    1536,
			Namespaces:   map[string]int64{"images": 3},
		},
		Model:         "embed-v4.0",
		Available:     true,
		UptimeSeconds: 42,
	}
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/telemetry", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[TelemetryResponse](t, rr)
	assert.Equal(t, "operational", resp.Status)
	assert.True(t, resp.Database.Connected)
	require.NotNil(t, resp.Database.TotalVectors)
	assert.Equal(t, int64(3), *resp.Database.TotalVectors)
	require.NotNil(t, resp.Database.Dimension)
	assert.Equal(t, 1536, *resp.Database.Dimension)
	assert.Equal(t, int64(3), resp.Database.Namespaces["images"].VectorCount)
	assert.Equal(t, "embed-v4.0", resp.EmbeddingService.Model)
	assert.True(t, resp.EmbeddingService.Available)
	assert.Equal(t, int64(42), resp.UptimeSeconds)
}

func TestTelemetry_DegradedStill200(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.health.telemetry = healthuc.Telemetry{
		Status:  healthuc.DegradedOps,
		DBError: "connection refused",
		Model:   "embed-v4.0",
	}
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/telemetry", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	assert.Equal(t, "degraded", raw["status"])
	assert.Equal(t, "connection refused", raw["error"])
	db, ok := raw["database"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, db["connected"])
	assert.NotContains(t, db, "total_vectors")
}

func TestStats(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.health.stats = stats.Stats{TotalVectors: 5, Dimension: 4, Namespaces: map[string]int64{"a": 2, "b": 3}}
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/stats", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[StatsResponse](t, rr)
	assert.Equal(t, int64(5), resp.TotalVectors)
	assert.Equal(t, 4, resp.Dimension)
	assert.Equal(t, int64(3), resp.Namespaces["b"].VectorCount)
}

func TestStats_StoreError(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.health.statsErr = fmt.Errorf("%w: timeout", domain.ErrVectorStoreError)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/stats", http.NoBody))

	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, ErrorCodeVectorStoreError, decode[ErrorResponse](t, rr).Code)
}

// --- upload ---

func TestUpload_OK(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.images.tokens = 7
	req := multipartRequest(t, "/api/upload?namespace=cats",
		part{"file", "cat.jpg", "image/jpeg", []byte("jpeg-bytes")})
	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[UploadResponse](t, rr)
	assert.Equal(t, "Image uploaded successfully", resp.Message)
	assert.Equal(t, "Image_abcd1234", resp.ImageID)
	assert.Equal(t, "cat.jpg", resp.Filename)
	assert.Equal(t, "7", rr.Header().Get("X-Embedding-Tokens"))

	require.Len(t, f.images.uploaded, 1)
	assert.Equal(t, "image/jpeg", f.images.uploaded[0].ContentType)
	assert.Equal(t, []byte("jpeg-bytes"), f.images.uploaded[0].Data)
	assert.Equal(t, "cats", f.images.namespace)
}

func TestUpload_MissingField(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	req := multipartRequest(t, "/api/upload", part{"other", "cat.jpg", "image/jpeg", []byte("x")})
	rr := f.do(req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeBadRequest, decode[ErrorResponse](t, rr).Code)
	assert.Empty(t, f.images.uploaded)
}

func TestUpload_NotMultipart(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(searchRequest("/api/upload", `{"file":"nope"}`))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeBadRequest, decode[ErrorResponse](t, rr).Code)
}

func TestUpload_TooLarge(t *testing.T) {
	f := newFixture(t, Options{MaxUploadBytes: 1024}, RouterConfig{})
	req := multipartRequest(t, "/api/upload",
		part{"file", "big.png", "image/png", bytes.Repeat([]byte{1}, 4096)})
	rr := f.do(req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, ErrorCodePayloadTooLarge, decode[ErrorResponse](t, rr).Code)
	assert.Empty(t, f.images.uploaded)
}

func TestUpload_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"not an image", fmt.Errorf("%w: a.txt", domain.ErrNotAnImage), http.StatusBadRequest, ErrorCodeNotAnImage},
		{"invalid image", fmt.Errorf("prepare a.jpg: %w", domain.ErrInvalidImage), http.StatusBadRequest, ErrorCodeInvalidImage},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited},
		{"provider", domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError},
		{"dim mismatch", domain.ErrVectorDimMismatch, http.StatusBadGateway, ErrorCodeVectorDimMismatch},
		{"store", domain.ErrVectorStoreError, http.StatusBadGateway, ErrorCodeVectorStoreError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{}, RouterConfig{})
			f.images.uploadErr = tt.err
			rr := f.do(multipartRequest(t, "/api/upload", part{"file", "a.jpg", "image/jpeg", []byte("x")}))

			require.Equal(t, tt.status, rr.Code)
			resp := decode[ErrorResponse](t, rr)
			assert.Equal(t, tt.code, resp.Code)
			if tt.code == ErrorCodeInternalError {
				assert.Equal(t, "internal error", resp.Detail)
			}
			assert.Empty(t, rr.Header().Get("X-Embedding-Tokens"))
		})
	}
}

func TestUploadBatch_OK(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.images.batchRes = []dombatch.Result{
		dombatch.NewOK("a.jpg", "Image_00000001"),
		dombatch.NewError("b.jpg", fmt.Errorf("prepare b.jpg: %w", domain.ErrInvalidImage)),
		dombatch.NewOK("c.jpg", "Image_00000003"),
		dombatch.NewError("d.jpg", errors.New("secret internals")),
	}
	req := multipartRequest(t, "/api/upload/batch",
		part{"files", "a.jpg", "image/jpeg", []byte("a")},
		part{"files", "b.jpg", "image/jpeg", []byte("b")},
		part{"files", "c.jpg", "image/jpeg", []byte("c")},
		part{"files", "d.jpg", "image/jpeg", []byte("d")},
	)
	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[BatchUploadResponse](t, rr)
	assert.Equal(t, "Uploaded 2 images", resp.Message)
	assert.Equal(t, []string{"Image_00000001", "Image_00000003"}, resp.UploadedIDs)
	assert.Equal(t, 2, resp.TotalUploaded)
	assert.Equal(t, 2, resp.TotalFailed)
	require.Len(t, resp.Failed, 2)
	assert.Equal(t, "b.jpg", resp.Failed[0].Filename)
	assert.Contains(t, resp.Failed[0].Error, "invalid image")
	assert.Equal(t, "internal error", resp.Failed[1].Error)

	require.Len(t, f.images.batch, 4)
	assert.Equal(t, "c.jpg", f.images.batch[2].Filename)
}

func TestUploadBatch_AllOKHasEmptyFailedList(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.images.batchRes = []dombatch.Result{dombatch.NewOK("a.jpg", "Image_00000001")}
	rr := f.do(multipartRequest(t, "/api/upload/batch", part{"files", "a.jpg", "image/jpeg", []byte("a")}))

	require.Equal(t, http.StatusOK, rr.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	assert.Equal(t, []any{}, raw["failed"])
}

func TestUploadBatch_RejectsNonImage(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.images.batchErr = fmt.Errorf("%w: notes.txt", domain.ErrNotAnImage)
	rr := f.do(multipartRequest(t, "/api/upload/batch", part{"files", "notes.txt", "text/plain", []byte("hi")}))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode[ErrorResponse](t, rr)
	assert.Equal(t, ErrorCodeNotAnImage, resp.Code)
	assert.Contains(t, resp.Detail, "notes.txt")
}

func TestUploadBatch_TooManyFiles(t *testing.T) {
	f := newFixture(t, Options{MaxBatchFiles: 2}, RouterConfig{})
	rr := f.do(multipartRequest(t, "/api/upload/batch",
		part{"files", "a.jpg", "image/jpeg", []byte("a")},
		part{"files", "b.jpg", "image/jpeg", []byte("b")},
		part{"files", "c.jpg", "image/jpeg", []byte("c")},
	))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, f.images.batch)
}

func TestUploadBatch_MissingField(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(multipartRequest(t, "/api/upload/batch", part{"file", "a.jpg", "image/jpeg", []byte("a")}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- search ---

func TestSearch_Defaults(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.search.tokens = 3
	f.search.results = []result.Result{
		result.New("Image_1", "sunset.jpg", 0.8),
		result.New("Image_2", "beach.jpg", 0.5),
	}
	rr := f.do(searchRequest("/api/search", `{"query":"sunset"}`))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[SearchResponse](t, rr)
	assert.Equal(t, "sunset", resp.Query)
	assert.Equal(t, 2, resp.TotalFound)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Image_1", resp.Results[0].ID)
	assert.Equal(t, "sunset.jpg", resp.Results[0].Filename)
	assert.InDelta(t, 0.8, resp.Results[0].Score, 1e-9)
	assert.InDelta(t, 90.0, resp.Results[0].SimilarityPercent, 1e-9)
	assert.Equal(t, "3", rr.Header().Get("X-Embedding-Tokens"))

	assert.Equal(t, request.DefaultTopK, f.search.got.TopK())
	assert.Equal(t, domimage.DefaultNamespace, f.search.got.Namespace())
}

func TestSearch_EmptyResultsIsArray(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(searchRequest("/api/search", `{"query":"nothing"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	assert.Equal(t, []any{}, raw["results"])
	assert.Equal(t, float64(0), raw["total_found"])
}

func TestSearch_BodyParams(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(searchRequest("/api/search", `{"query":"cats","top_k":"5","namespace":"pets"}`))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 5, f.search.got.TopK())
	assert.Equal(t, "pets", f.search.got.Namespace())
}

func TestSearch_QueryStringOverridesBody(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(searchRequest("/api/search?top_k=3&namespace=dogs", `{"query":"cats","top_k":5,"namespace":"pets"}`))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 3, f.search.got.TopK())
	assert.Equal(t, "dogs", f.search.got.Namespace())
}

func TestSearch_Validation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		code ErrorCode
	}{
		{"empty query", "/api/search", `{"query":"   "}`, ErrorCodeValidationFailed},
		{"missing body", "/api/search", ``, ErrorCodeValidationFailed},
		{"top_k zero", "/api/search?top_k=0", `{"query":"x"}`, ErrorCodeValidationFailed},
		{"top_k too large", "/api/search", `{"query":"x","top_k":101}`, ErrorCodeValidationFailed},
		{"top_k not int in query", "/api/search?top_k=abc", `{"query":"x"}`, ErrorCodeValidationFailed},
		{"top_k not int in body", "/api/search", `{"query":"x","top_k":"many"}`, ErrorCodeValidationFailed},
		{"malformed json", "/api/search", `{"query":`, ErrorCodeBadRequest},
		{"namespace with dash", "/api/search?namespace=my-photos", `{"query":"x"}`, ErrorCodeBadRequest},
		{"namespace with space in body", "/api/search", `{"query":"x","namespace":"a b"}`, ErrorCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{}, RouterConfig{})
			rr := f.do(searchRequest(tt.path, tt.body))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rr).Code)
		})
	}
}

func TestSearch_InvalidTopKDetail(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(searchRequest("/api/search?top_k=abc", `{"query":"x"}`))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid top_k value", decode[ErrorResponse](t, rr).Detail)
}

func TestSearch_UpstreamError(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.search.err = fmt.Errorf("embed query: %w", domain.ErrRateLimited)
	rr := f.do(searchRequest("/api/search", `{"query":"x"}`))

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, ErrorCodeRateLimited, decode[ErrorResponse](t, rr).Code)
}

// --- delete ---

func TestDeleteImage(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(httptest.NewRequest(http.MethodDelete, "/api/images/Image_abcd1234?namespace=cats", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[DeleteResponse](t, rr)
	assert.Equal(t, "Image deleted successfully", resp.Message)
	assert.Equal(t, "Image_abcd1234", resp.ImageID)
	assert.Equal(t, "Image_abcd1234", f.images.deleted)
	assert.Equal(t, "cats", f.images.namespace)
}

func TestDeleteImage_StoreError(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	f.images.deleteErr = fmt.Errorf("%w: down", domain.ErrVectorStoreError)
	rr := f.do(httptest.NewRequest(http.MethodDelete, "/api/images/Image_1", http.NoBody))

	require.Equal(t, http.StatusBadGateway, rr.Code)
}

// --- router ---

func TestRouter_AuthProtectsAPI(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{APIKeys: []string{"secret"}})

	rr := f.do(searchRequest("/api/search", `{"query":"x"}`))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := searchRequest("/api/search", `{"query":"x"}`)
	req.Header.Set("Authorization", "Bearer secret")
	rr = f.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{Development: true})
	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_NotFound(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/nope", http.NoBody))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrorCodeNotFound, decode[ErrorResponse](t, rr).Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, Options{}, RouterConfig{})
	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/search", http.NoBody))

	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_StaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir+"/index.html", "<html>lumina</html>"))

	f := newFixture(t, Options{}, RouterConfig{StaticDir: dir})
	rr := f.do(httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "lumina")

	rr = f.do(httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_PanicReturnsJSON(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", http.NoBody))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, ErrorCodeInternalError, decode[ErrorResponse](t, rr).Code)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
