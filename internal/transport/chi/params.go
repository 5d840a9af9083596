package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/lumina-search/lumina/internal/domain"
)

// topKParam binds the optional ?top_k= query parameter. nil means absent.
func topKParam(r *http.Request) (*int, error) {
	var topK *int
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &topK); err != nil {
		return nil, domain.ErrInvalidTopK
	}
	return topK, nil
}

// namespaceParam binds the optional ?namespace= query parameter.
func namespaceParam(r *http.Request) (string, error) {
	var ns *string
	if err := runtime.BindQueryParameter("form", true, false, "namespace", r.URL.Query(), &ns); err != nil {
		return "", fmt.Errorf("%w: invalid namespace: %w", domain.ErrInvalidRequest, err)
	}
	if ns == nil {
		return "", nil
	}
	return *ns, nil
}

// imageIDParam binds the {image_id} path parameter.
func imageIDParam(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "image_id", chi.URLParam(r, "image_id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", fmt.Errorf("%w: invalid image_id: %w", domain.ErrInvalidRequest, err)
	}
	return id, nil
}
