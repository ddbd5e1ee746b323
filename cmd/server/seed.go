package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
)

// fillWithMockData создаёт пару пользователей, постов и комментариев для ручной проверки.
// Если пользователи уже есть, ничего не делает: повторный старт с --seed не падает на уникальном email.
func fillWithMockData(ctx context.Context, s storage.Storage, lg *zap.Logger) error {
	existing, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("fillWithMockData: %w", err)
	}
	if len(existing) > 0 {
		lg.Info("storage is not empty, skipping mock data")
		return nil
	}

	// 1. Пользователи.
	alice, err := s.CreateUser(ctx, &domain.User{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create user: %w", err)
	}
	bob, err := s.CreateUser(ctx, &domain.User{Name: "Bob", Email: "bob@example.com"})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create user: %w", err)
	}

	// 2. Пост Алисы и ветка комментариев к нему.
	post, err := s.CreatePost(ctx, &domain.BlogPost{
		Title:   "Тестовый пост о Go",
		Content: "Это содержимое тестового поста. Здесь мы обсуждаем chi, gorm и WebSocket.",
		UserID:  alice.ID,
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}
	for _, c := range []struct {
		author  uint
		content string
	}{
		{bob.ID, "Отличный пост! Очень информативно."},
		{alice.ID, "Спасибо! Рад, что вам понравилось."},
	} {
		if _, err := s.CreateComment(ctx, &domain.Comment{Content: c.content, UserID: c.author, BlogPostID: post.ID}); err != nil {
			return fmt.Errorf("fillWithMockData: failed to create comment: %w", err)
		}
	}

	// 3. Пост Боба без комментариев.
	quiet, err := s.CreatePost(ctx, &domain.BlogPost{
		Title:   "Пост без комментариев",
		Content: "К этому посту пока никто ничего не написал.",
		UserID:  bob.ID,
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}

	lg.Info("mock data filled", zap.Uint("post_id", post.ID), zap.Uint("quiet_post_id", quiet.ID))
	return nil
}
