// Package api - REST-интерфейс блога поверх chi.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/storage"
)

// Handler держит зависимости обработчиков.
type Handler struct {
	store storage.Storage
	log   *zap.Logger
}

// NewRouter собирает корневой роутер. ws - обработчик эхо-канала на /ws.
func NewRouter(store storage.Storage, ws http.Handler, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{store: store, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", h.root)
	r.Get("/docs", h.docs(r))
	r.Get("/readyz", h.ready)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/users", h.userRoutes())
		posts := h.postRoutes()
		r.Mount("/blog_posts", posts)
		// Старый адрес фронтенда.
		r.Mount("/post", posts)
		r.Mount("/comments", h.commentRoutes())
	})

	if ws != nil {
		r.Get("/ws", ws.ServeHTTP)
	}
	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"message": "Blog API is running",
		"docs":    "/docs",
	})
}

type routeInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// docs отдаёт список зарегистрированных маршрутов.
func (h *Handler) docs(routes chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := make([]routeInfo, 0)
		err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			route = strings.ReplaceAll(route, "/*/", "/")
			list = append(list, routeInfo{Method: method, Path: route})
			return nil
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Path != list[j].Path {
				return list[i].Path < list[j].Path
			}
			return list[i].Method < list[j].Method
		})
		render.JSON(w, r, list)
	}
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Warn("storage is not ready", zap.Error(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse{Detail: "Storage unavailable"})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}
