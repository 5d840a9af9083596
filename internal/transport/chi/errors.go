package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
	"github.com/lumina-search/lumina/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// defaultErrorHandlers maps domain sentinels to HTTP responses. Order matters:
// the first match wins.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrNotAnImage, http.StatusBadRequest, ErrorCodeNotAnImage),
		sentinelHandler(domain.ErrInvalidImage, http.StatusBadRequest, ErrorCodeInvalidImage),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrVectorStoreError, http.StatusBadGateway, ErrorCodeVectorStoreError),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, detail string) {
	writeJSON(w, status, ErrorResponse{
		Code:   code,
		Detail: detail,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Matched errors are relayed verbatim: they carry caller input or provider messages.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// errorCode returns the code a handler would answer err with, for per-item batch errors.
func errorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrNotAnImage):
		return ErrorCodeNotAnImage
	case errors.Is(err, domain.ErrInvalidImage):
		return ErrorCodeInvalidImage
	case errors.Is(err, domain.ErrRateLimited):
		return ErrorCodeRateLimited
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return ErrorCodeVectorDimMismatch
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return ErrorCodeEmbeddingProviderError
	case errors.Is(err, domain.ErrVectorStoreError):
		return ErrorCodeVectorStoreError
	default:
		return ErrorCodeInternalError
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			if domain.IsClientError(err) {
				log.Info("request rejected", zap.Error(err))
			} else {
				log.Warn("upstream error", zap.Error(err))
			}
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
