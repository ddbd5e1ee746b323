package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserInput - тело запроса на создание и обновление пользователя.
type UserInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// BlogPostCreate - тело запроса на создание поста.
type BlogPostCreate struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
	UserID  uint   `json:"user_id" validate:"required"`
}

// BlogPostUpdate - тело запроса на обновление поста. Автора сменить нельзя.
type BlogPostUpdate struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// CommentCreate - тело запроса на создание комментария.
type CommentCreate struct {
	Content    string `json:"content"`
	UserID     uint   `json:"user_id" validate:"required"`
	BlogPostID uint   `json:"blog_post_id" validate:"required"`
}

// CommentUpdate - тело запроса на обновление комментария.
type CommentUpdate struct {
	Content string `json:"content"`
}

// ValidationError - входные данные не прошли проверку схемы.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях об ошибках используем имена полей из JSON, а не из Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate проверяет тело запроса по тегам validate и возвращает *ValidationError
// для первого невалидного поля.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
