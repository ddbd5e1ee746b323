package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/UkralStul/blog-api/internal/domain"
)

func (h *Handler) userRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Get("/{id}", h.getUser)
	r.Put("/{id}", h.updateUser)
	r.Delete("/{id}", h.deleteUser)
	return r
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.store.CreateUser(r.Context(), &domain.User{Name: in.Name, Email: in.Email})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, r, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in domain.UserInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.store.UpdateUser(r.Context(), id, in.Name, in.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

// deleteUser удаляет пользователя вместе с его постами и комментариями.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, r, "User")
}
