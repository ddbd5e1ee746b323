// Package storagetest содержит общий набор тестов для реализаций storage.Storage.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
)

// Harness описывает тестируемую реализацию.
type Harness struct {
	// New возвращает пустое хранилище.
	New func(t *testing.T) storage.Storage
	// DropUserRow удаляет строку пользователя в обход каскада, оставляя его посты
	// и комментарии висеть. Так моделируется удаление автора между записью и чтением.
	DropUserRow func(t *testing.T, s storage.Storage, id uint)
}

// Run прогоняет все сценарии против реализации.
func Run(t *testing.T, h Harness) {
	t.Run("CreateAndGetUser", func(t *testing.T) { testCreateAndGetUser(t, h) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, h) })
	t.Run("UpdateUser", func(t *testing.T) { testUpdateUser(t, h) })
	t.Run("UserNotFound", func(t *testing.T) { testUserNotFound(t, h) })
	t.Run("ListUsersNewestFirst", func(t *testing.T) { testListUsersNewestFirst(t, h) })
	t.Run("CreatePostUnknownUser", func(t *testing.T) { testCreatePostUnknownUser(t, h) })
	t.Run("PostAuthorName", func(t *testing.T) { testPostAuthorName(t, h) })
	t.Run("UpdatePost", func(t *testing.T) { testUpdatePost(t, h) })
	t.Run("UpdatePostAuthorGone", func(t *testing.T) { testUpdatePostAuthorGone(t, h) })
	t.Run("DeletePostCascades", func(t *testing.T) { testDeletePostCascades(t, h) })
	t.Run("DeleteUserCascades", func(t *testing.T) { testDeleteUserCascades(t, h) })
	t.Run("CreateCommentReferences", func(t *testing.T) { testCreateCommentReferences(t, h) })
	t.Run("CommentLabels", func(t *testing.T) { testCommentLabels(t, h) })
	t.Run("CommentOrdering", func(t *testing.T) { testCommentOrdering(t, h) })
	t.Run("UpdateComment", func(t *testing.T) { testUpdateComment(t, h) })
	t.Run("UpdateCommentAuthorGone", func(t *testing.T) { testUpdateCommentAuthorGone(t, h) })
	t.Run("DeleteComment", func(t *testing.T) { testDeleteComment(t, h) })
	t.Run("EmptyLists", func(t *testing.T) { testEmptyLists(t, h) })
}

// --- helpers ----------------------------------------------------------------

func createUser(t *testing.T, s storage.Storage, name string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &domain.User{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func createPost(t *testing.T, s storage.Storage, userID uint, title string) *domain.BlogPost {
	t.Helper()
	p, err := s.CreatePost(context.Background(), &domain.BlogPost{Title: title, Content: "content of " + title, UserID: userID})
	require.NoError(t, err)
	return p
}

func createComment(t *testing.T, s storage.Storage, userID, postID uint, content string) *domain.Comment {
	t.Helper()
	c, err := s.CreateComment(context.Background(), &domain.Comment{Content: content, UserID: userID, BlogPostID: postID})
	require.NoError(t, err)
	return c
}

func ids[T any](rows []*T, id func(*T) uint) []uint {
	out := make([]uint, len(rows))
	for i, r := range rows {
		out[i] = id(r)
	}
	return out
}

func commentID(c *domain.Comment) uint { return c.ID }
func postID(p *domain.BlogPost) uint  { return p.ID }
func userID(u *domain.User) uint      { return u.ID }

// --- users ------------------------------------------------------------------

func testCreateAndGetUser(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &domain.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
}

func testDuplicateEmail(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, &domain.User{Name: "Alice", Email: "same@example.com"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, &domain.User{Name: "Bob", Email: "same@example.com"})
	require.ErrorIs(t, err, storage.ErrDuplicateEmail)

	// Первый пользователь не пострадал, второй не создан.
	got, err := s.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testUpdateUser(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	updated, err := s.UpdateUser(ctx, alice.ID, "Alice Liddell", "liddell@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, "liddell@example.com", updated.Email)

	// Свой же email - не конфликт.
	_, err = s.UpdateUser(ctx, alice.ID, "Alice", "liddell@example.com")
	require.NoError(t, err)

	_, err = s.UpdateUser(ctx, bob.ID, "Bob", "liddell@example.com")
	require.ErrorIs(t, err, storage.ErrDuplicateEmail)

	got, err := s.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
}

func testUserNotFound(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, 4242)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.UpdateUser(ctx, 4242, "x", "x@example.com")
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	err = s.DeleteUser(ctx, 4242)
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func testListUsersNewestFirst(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	a := createUser(t, s, "a")
	b := createUser(t, s, "b")
	c := createUser(t, s, "c")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, b.ID, a.ID}, ids(users, userID))
}

// --- posts ------------------------------------------------------------------

func testCreatePostUnknownUser(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, &domain.BlogPost{Title: "orphan", UserID: 999})
	require.ErrorIs(t, err, storage.ErrAuthorMissing)

	var refErr *storage.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "User not found", refErr.Error())

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func testPostAuthorName(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	first := createPost(t, s, alice.ID, "first")
	require.NotNil(t, first.AuthorName)
	assert.Equal(t, "alice", *first.AuthorName)
	assert.Equal(t, alice.ID, first.UserID)
	second := createPost(t, s, alice.ID, "second")

	got, err := s.GetPost(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	require.NotNil(t, got.AuthorName)
	assert.Equal(t, "alice", *got.AuthorName)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, ids(posts, postID))
	for _, p := range posts {
		require.NotNil(t, p.AuthorName)
		assert.Equal(t, "alice", *p.AuthorName)
	}

	_, err = s.GetPost(ctx, 31337)
	require.ErrorIs(t, err, storage.ErrPostNotFound)
}

func testUpdatePost(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "draft")

	updated, err := s.UpdatePost(ctx, post.ID, "final", "")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "", updated.Content)
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))
	require.NotNil(t, updated.AuthorName)
	assert.Equal(t, "alice", *updated.AuthorName)

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, "", got.Content)

	_, err = s.UpdatePost(ctx, 31337, "x", "y")
	require.ErrorIs(t, err, storage.ErrPostNotFound)
}

func testUpdatePostAuthorGone(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "survivor")
	h.DropUserRow(t, s, alice.ID)

	updated, err := s.UpdatePost(ctx, post.ID, "still here", "content")
	require.NoError(t, err)
	assert.Equal(t, "still here", updated.Title)
	assert.Nil(t, updated.AuthorName)
}

func testDeletePostCascades(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	keep := createPost(t, s, alice.ID, "keep")
	drop := createPost(t, s, alice.ID, "drop")
	kept := createComment(t, s, alice.ID, keep.ID, "on keep")
	gone := createComment(t, s, alice.ID, drop.ID, "on drop")

	require.NoError(t, s.DeletePost(ctx, drop.ID))
	require.ErrorIs(t, s.DeletePost(ctx, drop.ID), storage.ErrPostNotFound)

	_, err := s.GetComment(ctx, gone.ID)
	require.ErrorIs(t, err, storage.ErrCommentNotFound)

	comments, err := s.ListComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{kept.ID}, ids(comments, commentID))
}

func testDeleteUserCascades(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	alicePost := createPost(t, s, alice.ID, "alice post")
	bobPost := createPost(t, s, bob.ID, "bob post")
	createComment(t, s, bob.ID, alicePost.ID, "bob on alice")
	createComment(t, s, alice.ID, bobPost.ID, "alice on bob")
	survivor := createComment(t, s, bob.ID, bobPost.ID, "bob on bob")

	require.NoError(t, s.DeleteUser(ctx, alice.ID))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, ids(users, userID))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{bobPost.ID}, ids(posts, postID))

	comments, err := s.ListComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{survivor.ID}, ids(comments, commentID))
}

// --- comments ---------------------------------------------------------------

func testCreateCommentReferences(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "post")

	_, err := s.CreateComment(ctx, &domain.Comment{Content: "x", UserID: 999, BlogPostID: post.ID})
	require.ErrorIs(t, err, storage.ErrAuthorMissing)

	_, err = s.CreateComment(ctx, &domain.Comment{Content: "x", UserID: alice.ID, BlogPostID: 999})
	require.ErrorIs(t, err, storage.ErrPostMissing)

	// Пользователь проверяется первым.
	_, err = s.CreateComment(ctx, &domain.Comment{Content: "x", UserID: 998, BlogPostID: 999})
	require.ErrorIs(t, err, storage.ErrAuthorMissing)

	comments, err := s.ListComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func testCommentLabels(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	post := createPost(t, s, alice.ID, "Go in practice")

	created := createComment(t, s, bob.ID, post.ID, "nice")
	require.NotNil(t, created.AuthorName)
	require.NotNil(t, created.BlogPostTitle)
	assert.Equal(t, "bob", *created.AuthorName)
	assert.Equal(t, "Go in practice", *created.BlogPostTitle)

	got, err := s.GetComment(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AuthorName)
	require.NotNil(t, got.BlogPostTitle)
	assert.Equal(t, "bob", *got.AuthorName)
	assert.Equal(t, "Go in practice", *got.BlogPostTitle)

	thread, err := s.ListCommentsByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.NotNil(t, thread[0].AuthorName)
	assert.Equal(t, "bob", *thread[0].AuthorName)
	assert.Nil(t, thread[0].BlogPostTitle)

	_, err = s.GetComment(ctx, 31337)
	require.ErrorIs(t, err, storage.ErrCommentNotFound)
}

func testCommentOrdering(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "thread")
	other := createPost(t, s, alice.ID, "other")

	var created []uint
	for i := 0; i < 5; i++ {
		c := createComment(t, s, alice.ID, post.ID, fmt.Sprintf("comment %d", i))
		created = append(created, c.ID)
	}
	createComment(t, s, alice.ID, other.ID, "elsewhere")

	thread, err := s.ListCommentsByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, created, ids(thread, commentID))
	for i := 1; i < len(thread); i++ {
		assert.False(t, thread[i].CreatedAt.Before(thread[i-1].CreatedAt))
	}

	all, err := s.ListComments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}
	// Те же строки поста в обратном порядке.
	var newestFirst []uint
	for _, c := range all {
		if c.BlogPostID == post.ID {
			newestFirst = append(newestFirst, c.ID)
		}
	}
	for i, j := 0, len(created)-1; i < j; i, j = i+1, j-1 {
		created[i], created[j] = created[j], created[i]
	}
	assert.Equal(t, created, newestFirst)
}

func testUpdateComment(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "post")
	comment := createComment(t, s, alice.ID, post.ID, "typo")

	updated, err := s.UpdateComment(ctx, comment.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", updated.Content)
	assert.WithinDuration(t, comment.CreatedAt, updated.CreatedAt, time.Millisecond)
	require.NotNil(t, updated.AuthorName)
	require.NotNil(t, updated.BlogPostTitle)
	assert.Equal(t, "alice", *updated.AuthorName)
	assert.Equal(t, "post", *updated.BlogPostTitle)

	_, err = s.UpdateComment(ctx, 31337, "x")
	require.ErrorIs(t, err, storage.ErrCommentNotFound)
}

func testUpdateCommentAuthorGone(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	post := createPost(t, s, alice.ID, "post")
	comment := createComment(t, s, bob.ID, post.ID, "hi")
	h.DropUserRow(t, s, bob.ID)

	updated, err := s.UpdateComment(ctx, comment.ID, "edited")
	require.NoError(t, err)
	assert.Nil(t, updated.AuthorName)
	require.NotNil(t, updated.BlogPostTitle)
	assert.Equal(t, "post", *updated.BlogPostTitle)
}

func testDeleteComment(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "post")
	comment := createComment(t, s, alice.ID, post.ID, "bye")

	require.NoError(t, s.DeleteComment(ctx, comment.ID))
	require.ErrorIs(t, s.DeleteComment(ctx, comment.ID), storage.ErrCommentNotFound)

	// Пост остался.
	_, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
}

func testEmptyLists(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	thread, err := s.ListCommentsByPost(ctx, 77)
	require.NoError(t, err)
	assert.NotNil(t, thread)
	assert.Empty(t, thread)
}
