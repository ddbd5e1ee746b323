package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var (
	errInvalidID   = &domain.ValidationError{Message: "Invalid id"}
	errInvalidBody = &domain.ValidationError{Message: "Invalid JSON body"}
)

// fail переводит ошибку в HTTP-ответ. Непредусмотренные ошибки только логируются,
// клиенту уходит общее сообщение.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		notFound   *storage.NotFoundError
		reference  *storage.ReferenceError
		conflict   *storage.ConflictError
	)

	status := http.StatusBadRequest
	detail := err.Error()
	switch {
	case errors.As(err, &validation), errors.As(err, &reference), errors.As(err, &conflict):
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		detail = "Internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{Detail: detail})
}

// decode читает JSON-тело и проверяет его.
func decode(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return errInvalidBody
	}
	return domain.Validate(dst)
}

func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func created(w http.ResponseWriter, r *http.Request, v any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}

func deleted(w http.ResponseWriter, r *http.Request, entity string) {
	render.JSON(w, r, messageResponse{Message: entity + " deleted successfully"})
}
