package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/UkralStul/blog-api/internal/domain"
)

func (h *Handler) postRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listPosts)
	r.Post("/", h.createPost)
	r.Get("/{id}", h.getPost)
	r.Put("/{id}", h.updatePost)
	r.Delete("/{id}", h.deletePost)
	r.Get("/{id}/comments", h.listPostComments)
	return r
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, posts)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var in domain.BlogPostCreate
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	post, err := h.store.CreatePost(r.Context(), &domain.BlogPost{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, r, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in domain.BlogPostUpdate
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	post, err := h.store.UpdatePost(r.Context(), id, in.Title, in.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeletePost(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, r, "Blog post")
}

// listPostComments - ветка комментариев поста, от старых к новым.
// Для несуществующего поста отдаётся пустой список.
func (h *Handler) listPostComments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	comments, err := h.store.ListCommentsByPost(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, comments)
}
