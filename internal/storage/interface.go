package storage

import (
	"context"

	"github.com/UkralStul/blog-api/internal/domain"
)

// Storage определяет контракт для хранилищ.
// Ошибки драйвера не выходят наружу: реализации переводят их в NotFoundError,
// ReferenceError и ConflictError из errors.go.
type Storage interface {
	Ping(ctx context.Context) error

	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, id uint) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, id uint, name, email string) (*domain.User, error)
	DeleteUser(ctx context.Context, id uint) error

	ListPosts(ctx context.Context) ([]*domain.BlogPost, error)
	GetPost(ctx context.Context, id uint) (*domain.BlogPost, error)
	CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error)
	UpdatePost(ctx context.Context, id uint, title, content string) (*domain.BlogPost, error)
	DeletePost(ctx context.Context, id uint) error

	ListComments(ctx context.Context) ([]*domain.Comment, error)
	GetComment(ctx context.Context, id uint) (*domain.Comment, error)
	// ListCommentsByPost возвращает ветку комментариев поста от старых к новым.
	ListCommentsByPost(ctx context.Context, postID uint) ([]*domain.Comment, error)
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	UpdateComment(ctx context.Context, id uint, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}
