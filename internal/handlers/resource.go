package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/life-master/apiserver/internal/pagination"
	"github.com/life-master/apiserver/internal/services"
	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
)

// validationError marks a 400-level request problem raised while decoding
// or validating a resource payload.
type validationError string

func (e validationError) Error() string { return string(e) }

// RelatedResource wires one relation segment (e.g. "tasks" under
// /categories/{id}) into a parent's router.
type RelatedResource struct {
	Kind types.Kind
	List func(w http.ResponseWriter, r *http.Request, ownerID, parentID int64)
}

// ResourceHandler serves the HTTP surface of one resource kind. All kind
// differences are injected: payload codecs, sort whitelist and relations.
type ResourceHandler[T types.Entity] struct {
	svc       *services.ResourceService[T]
	relations *services.RelationService
	paging    pagination.Config

	// decode parses a full payload (create and put) for the given owner.
	decode func(r *http.Request, ownerID int64) (T, error)

	// merge applies a partial payload (patch) onto an existing resource.
	merge func(existing T, r *http.Request) (T, error)

	// setID stamps the path id onto a decoded payload before update.
	setID func(item T, id int64) T

	related map[string]RelatedResource
}

// Router registers the kind's routes on the given router.
func (h *ResourceHandler[T]) Router(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Patch("/", h.Patch)
		r.Delete("/", h.Delete)

		for segment, related := range h.related {
			related := related
			r.Get("/"+segment, h.listRelated(related))
			r.Post("/"+segment+"/{relatedID}", h.attach(related.Kind))
			r.Delete("/"+segment+"/{relatedID}", h.detach(related.Kind))
		}
	})
}

func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, err := h.svc.List(r.Context(), ownerID, pagination.FromRequest(r, h.paging))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list resources")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	item, err := h.decode(r, ownerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.svc.Create(r.Context(), item)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create resource")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ResourceHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.subjectAndID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.subjectAndID(w, r)
	if !ok {
		return
	}

	item, err := h.decode(r, ownerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item = h.setID(item, id)

	updated, err := h.svc.Update(r.Context(), item)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandler[T]) Patch(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.subjectAndID(w, r)
	if !ok {
		return
	}

	existing, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	merged, err := h.merge(existing, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.svc.Update(r.Context(), merged)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.subjectAndID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listRelated authorizes the parent resource, then pages through the
// related kind. The related service applies its own owner filter as well.
func (h *ResourceHandler[T]) listRelated(related RelatedResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, parentID, ok := h.subjectAndID(w, r)
		if !ok {
			return
		}

		if err := h.svc.Authorize(r.Context(), ownerID, parentID); err != nil {
			h.writeLookupError(w, err)
			return
		}

		related.List(w, r, ownerID, parentID)
	}
}

func (h *ResourceHandler[T]) attach(childKind types.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, parentID, ok := h.subjectAndID(w, r)
		if !ok {
			return
		}
		childID, err := pathID(r, "relatedID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := h.relations.Attach(r.Context(), ownerID, h.svc.Kind(), parentID, childKind, childID); err != nil {
			h.writeLookupError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (h *ResourceHandler[T]) detach(childKind types.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, parentID, ok := h.subjectAndID(w, r)
		if !ok {
			return
		}
		childID, err := pathID(r, "relatedID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := h.relations.Detach(r.Context(), ownerID, h.svc.Kind(), parentID, childKind, childID); err != nil {
			h.writeLookupError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ResourceHandler[T]) subjectAndID(w http.ResponseWriter, r *http.Request) (ownerID, id int64, ok bool) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, 0, false
	}
	id, err = pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return ownerID, id, true
}

// writeLookupError maps service errors onto the uniform not-found policy:
// a foreign-owned row and a missing row are indistinguishable.
func (h *ResourceHandler[T]) writeLookupError(w http.ResponseWriter, err error) {
	var vErr validationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// relatedLister builds the paginated listing closure for one relation
// direction. Kept as a free function so the child's concrete type does not
// leak into the parent handler.
func relatedLister[C types.Entity](
	child *services.ResourceService[C],
	parentKind types.Kind,
	paging pagination.Config,
) RelatedResource {
	rel, ok := types.RelationBetween(parentKind, child.Kind())
	if !ok {
		panic(fmt.Sprintf("no relation between %s and %s", parentKind, child.Kind()))
	}
	return RelatedResource{
		Kind: child.Kind(),
		List: func(w http.ResponseWriter, r *http.Request, ownerID, parentID int64) {
			page, err := child.ListRelated(r.Context(), ownerID, rel, parentID, pagination.FromRequest(r, paging))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to list resources")
				return
			}
			writeJSON(w, http.StatusOK, page)
		},
	}
}
