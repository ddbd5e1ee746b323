package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Наружу всегда отдаются копии, чтобы денормализованные поля не попадали в хранимые записи.
type Store struct {
	mu       sync.RWMutex
	seq      struct{ users, posts, comments uint }
	users    map[uint]*domain.User
	posts    map[uint]*domain.BlogPost
	comments map[uint]*domain.Comment
	now      func() time.Time
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:    make(map[uint]*domain.User),
		posts:    make(map[uint]*domain.BlogPost),
		comments: make(map[uint]*domain.Comment),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// label - общий помощник для денормализованных полей: достаёт поле связанной
// записи по ключу или nil, если запись уже удалена.
func label[V any](rows map[uint]*V, key uint, field func(*V) string) *string {
	row, ok := rows[key]
	if !ok {
		return nil
	}
	v := field(row)
	return &v
}

// next выдаёт id по отдельному счётчику на таблицу, как автоинкремент в SQL.
func next(seq *uint) uint {
	*seq++
	return *seq
}

func userName(u *domain.User) string      { return u.Name }
func postTitle(p *domain.BlogPost) string { return p.Title }

// === User Methods ===

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool {
		return newerFirst(users[i].CreatedAt, users[j].CreatedAt, users[i].ID, users[j].ID)
	})
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, 0) {
		return nil, storage.ErrDuplicateEmail
	}
	stored := &domain.User{
		ID:        next(&s.seq.users),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: s.now(),
	}
	s.users[stored.ID] = stored
	c := *stored
	return &c, nil
}

func (s *Store) UpdateUser(ctx context.Context, id uint, name, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	if s.emailTaken(email, id) {
		return nil, storage.ErrDuplicateEmail
	}
	u.Name = name
	u.Email = email
	c := *u
	return &c, nil
}

// DeleteUser удаляет пользователя вместе с его постами, комментариями к этим
// постам и его собственными комментариями.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	for pid, p := range s.posts {
		if p.UserID == id {
			s.deletePostLocked(pid)
		}
	}
	for cid, c := range s.comments {
		if c.UserID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) emailTaken(email string, except uint) bool {
	for _, u := range s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

// === Post Methods ===

func (s *Store) ListPosts(ctx context.Context) ([]*domain.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.BlogPost, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, s.postView(p))
	}
	sort.Slice(posts, func(i, j int) bool {
		return newerFirst(posts[i].CreatedAt, posts[j].CreatedAt, posts[i].ID, posts[j].ID)
	})
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id uint) (*domain.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrPostNotFound
	}
	return s.postView(p), nil
}

func (s *Store) CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.UserID]; !ok {
		return nil, storage.ErrAuthorMissing
	}
	now := s.now()
	stored := &domain.BlogPost{
		ID:        next(&s.seq.posts),
		Title:     post.Title,
		Content:   post.Content,
		UserID:    post.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts[stored.ID] = stored
	return s.postView(stored), nil
}

func (s *Store) UpdatePost(ctx context.Context, id uint, title, content string) (*domain.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrPostNotFound
	}
	p.Title = title
	p.Content = content
	p.UpdatedAt = s.now()
	return s.postView(p), nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrPostNotFound
	}
	s.deletePostLocked(id)
	return nil
}

func (s *Store) deletePostLocked(id uint) {
	for cid, c := range s.comments {
		if c.BlogPostID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.posts, id)
}

func (s *Store) postView(p *domain.BlogPost) *domain.BlogPost {
	c := *p
	c.AuthorName = label(s.users, p.UserID, userName)
	return &c
}

// === Comment Methods ===

func (s *Store) ListComments(ctx context.Context) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*domain.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		comments = append(comments, s.commentView(c, true))
	}
	sort.Slice(comments, func(i, j int) bool {
		return newerFirst(comments[i].CreatedAt, comments[j].CreatedAt, comments[i].ID, comments[j].ID)
	})
	return comments, nil
}

func (s *Store) GetComment(ctx context.Context, id uint) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrCommentNotFound
	}
	return s.commentView(c, true), nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID uint) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if c.BlogPostID == postID {
			comments = append(comments, s.commentView(c, false))
		}
	}
	// Ветка читается сверху вниз, поэтому здесь порядок от старых к новым.
	sort.Slice(comments, func(i, j int) bool {
		return newerFirst(comments[j].CreatedAt, comments[i].CreatedAt, comments[j].ID, comments[i].ID)
	})
	return comments, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[comment.UserID]; !ok {
		return nil, storage.ErrAuthorMissing
	}
	if _, ok := s.posts[comment.BlogPostID]; !ok {
		return nil, storage.ErrPostMissing
	}
	stored := &domain.Comment{
		ID:         next(&s.seq.comments),
		Content:    comment.Content,
		UserID:     comment.UserID,
		BlogPostID: comment.BlogPostID,
		CreatedAt:  s.now(),
	}
	s.comments[stored.ID] = stored
	return s.commentView(stored, true), nil
}

func (s *Store) UpdateComment(ctx context.Context, id uint, content string) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrCommentNotFound
	}
	c.Content = content
	return s.commentView(c, true), nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return storage.ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) commentView(c *domain.Comment, withTitle bool) *domain.Comment {
	v := *c
	v.AuthorName = label(s.users, c.UserID, userName)
	if withTitle {
		v.BlogPostTitle = label(s.posts, c.BlogPostID, postTitle)
	}
	return &v
}

// newerFirst - порядок "created_at DESC, id DESC", как в SQL-хранилище.
func newerFirst(a, b time.Time, aID, bID uint) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}
