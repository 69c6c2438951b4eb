package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/catalog/internal/domain/validate"
)

// resourceHandler serves list, create and delete for one resource kind.
type resourceHandler[T any] struct {
	res    Resource[T]
	server *Server
}

func newResourceHandler[T any](res Resource[T], s *Server) *resourceHandler[T] {
	return &resourceHandler[T]{res: res, server: s}
}

// mount registers the collection routes at base and delete at base/*.
func (h *resourceHandler[T]) mount(r chi.Router, base string) {
	r.Get(base, h.handleList)
	r.Post(base, h.handleCreate)
	r.Delete(base+"/*", h.handleDelete)
}

func (h *resourceHandler[T]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.res.List(r.Context())
	if err != nil {
		h.server.writeError(r.Context(), w, r, err)
		return
	}
	writeSuccess(w, items)
}

func (h *resourceHandler[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := ReadBody(w, r, h.server.maxBodyBytes)
	if err != nil {
		h.server.writeError(ctx, w, r, err)
		return
	}
	payload, err := validate.Decode(body)
	if err != nil {
		h.server.writeError(ctx, w, r, err)
		return
	}

	created, err := h.res.Create(ctx, payload)
	if err != nil {
		h.server.writeError(ctx, w, r, err)
		return
	}
	writeSuccess(w, created)
}

// handleDelete takes the id from the last segment of the wildcard, so
// /api/coaches/skill/a/b deletes id "b".
func (h *resourceHandler[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := lastSegment(chi.URLParam(r, "*"))
	if err := h.res.Delete(r.Context(), id); err != nil {
		h.server.writeError(r.Context(), w, r, err)
		return
	}
	writeSuccess(w, nil)
}
