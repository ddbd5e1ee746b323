package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
)

// Store реализует интерфейс Storage поверх gorm (PostgreSQL или SQLite).
type Store struct {
	db *gorm.DB
}

// DB отдаёт соединение gorm, например для тестов и диагностики.
func (s *Store) DB() *gorm.DB { return s.db }

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// === User Methods ===

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error
	return users, err
}

func (s *Store) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, notFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := &domain.User{Name: user.Name, Email: user.Email}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return nil, storage.ErrDuplicateEmail
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) UpdateUser(ctx context.Context, id uint, name, email string) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]any{"name": name, "email": email}).Error
	if err != nil {
		if isDuplicate(err) {
			return nil, storage.ErrDuplicateEmail
		}
		return nil, err
	}
	user.Name = name
	user.Email = email
	return user, nil
}

// DeleteUser удаляет пользователя. Каскад продублирован явно: внешние ключи
// SQLite работают только при включённой прагме, а у старых схем ограничений может не быть.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storage.ErrUserNotFound
		}

		ownPosts := tx.Model(&domain.BlogPost{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR blog_post_id IN (?)", id, ownPosts).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.BlogPost{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, id).Error
	})
}

// === Post Methods ===

func (s *Store) ListPosts(ctx context.Context) ([]*domain.BlogPost, error) {
	posts := make([]*domain.BlogPost, 0)
	err := s.db.WithContext(ctx).
		Model(&domain.BlogPost{}).
		Scopes(withLabels("blog_posts", postAuthor)).
		Order("blog_posts.created_at DESC, blog_posts.id DESC").
		Find(&posts).Error
	return posts, err
}

func (s *Store) GetPost(ctx context.Context, id uint) (*domain.BlogPost, error) {
	var post domain.BlogPost
	err := s.db.WithContext(ctx).
		Model(&domain.BlogPost{}).
		Scopes(withLabels("blog_posts", postAuthor)).
		Where("blog_posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, notFound(err, storage.ErrPostNotFound)
	}
	return &post, nil
}

func (s *Store) CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	author, err := postAuthor.lookup(ctx, s.db, post.UserID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, storage.ErrAuthorMissing
	}

	row := &domain.BlogPost{Title: post.Title, Content: post.Content, UserID: post.UserID}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		// Автора удалили между проверкой и вставкой.
		if isForeignKey(err) {
			return nil, storage.ErrAuthorMissing
		}
		return nil, err
	}
	row.AuthorName = author
	return row, nil
}

// UpdatePost обновляет заголовок и текст. Имя автора перечитывается отдельно
// и становится nil, если автора уже нет: ответ на запись от этого не падает.
func (s *Store) UpdatePost(ctx context.Context, id uint, title, content string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := s.db.WithContext(ctx).Take(&post, id).Error; err != nil {
		return nil, notFound(err, storage.ErrPostNotFound)
	}

	// Через map, чтобы пустой content тоже записался.
	now := s.db.NowFunc()
	err := s.db.WithContext(ctx).Model(&post).Updates(map[string]any{
		"title":      title,
		"content":    content,
		"updated_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	post.Title = title
	post.Content = content
	post.UpdatedAt = now

	post.AuthorName, err = postAuthor.lookup(ctx, s.db, post.UserID)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.BlogPost{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storage.ErrPostNotFound
		}
		if err := tx.Where("blog_post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.BlogPost{}, id).Error
	})
}

// === Comment Methods ===

func (s *Store) ListComments(ctx context.Context) ([]*domain.Comment, error) {
	comments := make([]*domain.Comment, 0)
	err := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Scopes(withLabels("comments", commentAuthor, commentPost)).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) GetComment(ctx context.Context, id uint) (*domain.Comment, error) {
	var comment domain.Comment
	err := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Scopes(withLabels("comments", commentAuthor, commentPost)).
		Where("comments.id = ?", id).
		Take(&comment).Error
	if err != nil {
		return nil, notFound(err, storage.ErrCommentNotFound)
	}
	return &comment, nil
}

// ListCommentsByPost отдаёт ветку поста от старых к новым; заголовок поста
// здесь не подтягивается, он и так известен вызывающему.
func (s *Store) ListCommentsByPost(ctx context.Context, postID uint) ([]*domain.Comment, error) {
	comments := make([]*domain.Comment, 0)
	err := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Scopes(withLabels("comments", commentAuthor)).
		Where("comments.blog_post_id = ?", postID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	author, err := commentAuthor.lookup(ctx, s.db, comment.UserID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, storage.ErrAuthorMissing
	}
	title, err := commentPost.lookup(ctx, s.db, comment.BlogPostID)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, storage.ErrPostMissing
	}

	row := &domain.Comment{Content: comment.Content, UserID: comment.UserID, BlogPostID: comment.BlogPostID}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isForeignKey(err) {
			return nil, s.missingReference(ctx, comment)
		}
		return nil, err
	}
	row.AuthorName = author
	row.BlogPostTitle = title
	return row, nil
}

func (s *Store) UpdateComment(ctx context.Context, id uint, content string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).Take(&comment, id).Error; err != nil {
		return nil, notFound(err, storage.ErrCommentNotFound)
	}

	err := s.db.WithContext(ctx).Model(&comment).Update("content", content).Error
	if err != nil {
		return nil, err
	}
	comment.Content = content

	if comment.AuthorName, err = commentAuthor.lookup(ctx, s.db, comment.UserID); err != nil {
		return nil, err
	}
	if comment.BlogPostTitle, err = commentPost.lookup(ctx, s.db, comment.BlogPostID); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrCommentNotFound
	}
	return nil
}

// missingReference выясняет, какая из ссылок комментария пропала после проверки.
func (s *Store) missingReference(ctx context.Context, comment *domain.Comment) error {
	author, err := commentAuthor.lookup(ctx, s.db, comment.UserID)
	if err != nil {
		return err
	}
	if author == nil {
		return storage.ErrAuthorMissing
	}
	return storage.ErrPostMissing
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
