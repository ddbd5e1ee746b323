package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/UkralStul/blog-api/internal/domain"
)

func (h *Handler) commentRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listComments)
	r.Post("/", h.createComment)
	r.Get("/{id}", h.getComment)
	r.Put("/{id}", h.updateComment)
	r.Delete("/{id}", h.deleteComment)
	return r
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListComments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, comments)
}

func (h *Handler) getComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	comment, err := h.store.GetComment(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, comment)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var in domain.CommentCreate
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	comment, err := h.store.CreateComment(r.Context(), &domain.Comment{
		Content:    in.Content,
		UserID:     in.UserID,
		BlogPostID: in.BlogPostID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, r, comment)
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in domain.CommentUpdate
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	comment, err := h.store.UpdateComment(r.Context(), id, in.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, comment)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeleteComment(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, r, "Comment")
}
