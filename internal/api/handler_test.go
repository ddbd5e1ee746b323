package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
	"github.com/UkralStul/blog-api/internal/storage/inmemory"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, inmemory.New())
}

func newTestServerWith(t *testing.T, store storage.Storage) *testServer {
	return &testServer{t: t, handler: NewRouter(store, nil, nil)}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Detail
}

func (s *testServer) createUser(name string) domain.User {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/users/", map[string]string{"name": name, "email": name + "@example.com"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[domain.User](s.t, rec)
}

func (s *testServer) createPost(userID uint, title string) domain.BlogPost {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/blog_posts/", map[string]any{"title": title, "content": "body", "user_id": userID})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[domain.BlogPost](s.t, rec)
}

func (s *testServer) createComment(userID, postID uint, content string) domain.Comment {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/comments/", map[string]any{"content": content, "user_id": userID, "blog_post_id": postID})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[domain.Comment](s.t, rec)
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Blog API is running", body["message"])
	assert.Equal(t, "/docs", body["docs"])
}

func TestDocs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	routes := decodeBody[[]routeInfo](t, rec)
	assert.Contains(t, routes, routeInfo{Method: "GET", Path: "/api/users/{id}"})
	assert.Contains(t, routes, routeInfo{Method: "POST", Path: "/api/comments/"})
	assert.Contains(t, routes, routeInfo{Method: "GET", Path: "/api/post/{id}/comments"})
}

func TestReady(t *testing.T) {
	rec := newTestServer(t).do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = newTestServerWith(t, failingStore{inmemory.New()}).do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUsers_CRUD(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser("alice")
	assert.NotZero(t, alice.ID)
	assert.Equal(t, "alice@example.com", alice.Email)

	// С косой чертой и без - один и тот же маршрут.
	for _, path := range []string{"/api/users", "/api/users/"} {
		rec := s.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Len(t, decodeBody[[]domain.User](t, rec), 1)
	}

	rec := s.do(http.MethodPut, "/api/users/1", map[string]string{"name": "Alice", "email": "a@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decodeBody[domain.User](t, rec).Name)

	rec = s.do(http.MethodGet, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", decodeBody[domain.User](t, rec).Email)

	rec = s.do(http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", decodeBody[messageResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/api/users/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", detail(t, rec))
}

func TestUsers_EmptyList(t *testing.T) {
	rec := newTestServer(t).do(http.MethodGet, "/api/users/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUsers_Invalid(t *testing.T) {
	s := newTestServer(t)
	s.createUser("taken")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantDetail string
	}{
		{"missing email", http.MethodPost, "/api/users/", map[string]string{"name": "x"}, http.StatusBadRequest, "email: field required"},
		{"bad email", http.MethodPost, "/api/users/", map[string]string{"name": "x", "email": "nope"}, http.StatusBadRequest, "email: value is not a valid email address"},
		{"malformed json", http.MethodPost, "/api/users/", "{", http.StatusBadRequest, "Invalid JSON body"},
		{"duplicate email", http.MethodPost, "/api/users/", map[string]string{"name": "y", "email": "taken@example.com"}, http.StatusBadRequest, "Email already registered"},
		{"non-numeric id", http.MethodGet, "/api/users/abc", nil, http.StatusBadRequest, "Invalid id"},
		{"update unknown", http.MethodPut, "/api/users/99", map[string]string{"name": "z", "email": "z@example.com"}, http.StatusNotFound, "User not found"},
		{"delete unknown", http.MethodDelete, "/api/users/99", nil, http.StatusNotFound, "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, detail(t, rec))
		})
	}
}

func TestPosts_CRUDAndAlias(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("alice")

	post := s.createPost(alice.ID, "hello")
	require.NotNil(t, post.AuthorName)
	assert.Equal(t, "alice", *post.AuthorName)

	for _, base := range []string{"/api/blog_posts", "/api/post"} {
		rec := s.do(http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, rec.Code, base)
		posts := decodeBody[[]domain.BlogPost](t, rec)
		require.Len(t, posts, 1)
		assert.Equal(t, post.ID, posts[0].ID)
	}

	rec := s.do(http.MethodPut, "/api/post/1", map[string]string{"title": "updated", "content": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "updated", decodeBody[domain.BlogPost](t, rec).Title)

	rec = s.do(http.MethodGet, "/api/blog_posts/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated", decodeBody[domain.BlogPost](t, rec).Title)

	rec = s.do(http.MethodDelete, "/api/blog_posts/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Blog post deleted successfully", decodeBody[messageResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/api/post/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog post not found", detail(t, rec))
}

func TestPosts_UnknownAuthor(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/blog_posts/", map[string]any{"title": "t", "user_id": 42})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User not found", detail(t, rec))

	rec = s.do(http.MethodGet, "/api/blog_posts/", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPosts_MissingTitle(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("alice")

	rec := s.do(http.MethodPost, "/api/blog_posts/", map[string]any{"user_id": alice.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title: field required", detail(t, rec))
}

func TestComments_Flow(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	post := s.createPost(alice.ID, "thread")

	first := s.createComment(bob.ID, post.ID, "first")
	require.NotNil(t, first.AuthorName)
	require.NotNil(t, first.BlogPostTitle)
	assert.Equal(t, "bob", *first.AuthorName)
	assert.Equal(t, "thread", *first.BlogPostTitle)
	second := s.createComment(alice.ID, post.ID, "second")

	rec := s.do(http.MethodGet, "/api/blog_posts/1/comments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decodeBody[[]map[string]any](t, rec)
	require.Len(t, thread, 2)
	assert.EqualValues(t, first.ID, thread[0]["id"])
	assert.EqualValues(t, second.ID, thread[1]["id"])
	assert.Nil(t, thread[0]["blog_post_title"])
	assert.Equal(t, "bob", thread[0]["author_name"])

	rec = s.do(http.MethodGet, "/api/comments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[[]domain.Comment](t, rec)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	rec = s.do(http.MethodPut, "/api/comments/1", map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited", decodeBody[domain.Comment](t, rec).Content)

	rec = s.do(http.MethodDelete, "/api/comments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Comment deleted successfully", decodeBody[messageResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/api/comments/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Comment not found", detail(t, rec))
}

func TestComments_References(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("alice")
	post := s.createPost(alice.ID, "p")

	rec := s.do(http.MethodPost, "/api/comments/", map[string]any{"content": "x", "user_id": 9, "blog_post_id": post.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User not found", detail(t, rec))

	rec = s.do(http.MethodPost, "/api/comments/", map[string]any{"content": "x", "user_id": alice.ID, "blog_post_id": 9})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Blog post not found", detail(t, rec))

	rec = s.do(http.MethodPost, "/api/comments/", map[string]any{"content": "x", "user_id": alice.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "blog_post_id: field required", detail(t, rec))
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	post := s.createPost(alice.ID, "alice's")
	s.createComment(bob.ID, post.ID, "hi")

	rec := s.do(http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/blog_posts/", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
	rec = s.do(http.MethodGet, "/api/comments/", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestInternalErrorHidden(t *testing.T) {
	s := newTestServerWith(t, failingStore{inmemory.New()})

	rec := s.do(http.MethodGet, "/api/users/", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", detail(t, rec))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/users/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// failingStore имитирует упавшую базу на чтении списка пользователей и пинге.
type failingStore struct {
	*inmemory.Store
}

var errDriver = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func (failingStore) Ping(context.Context) error { return errDriver }

func (failingStore) ListUsers(context.Context) ([]*domain.User, error) { return nil, errDriver }
