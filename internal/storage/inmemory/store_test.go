package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/blog-api/internal/domain"
	"github.com/UkralStul/blog-api/internal/storage"
	"github.com/UkralStul/blog-api/internal/storage/storagetest"
)

func TestStore_Suite(t *testing.T) {
	storagetest.Run(t, storagetest.Harness{
		New: func(t *testing.T) storage.Storage { return New() },
		DropUserRow: func(t *testing.T, s storage.Storage, id uint) {
			st := s.(*Store)
			st.mu.Lock()
			delete(st.users, id)
			st.mu.Unlock()
		},
	})
}

// Одинаковое время создания: порядок решает id.
func TestStore_OrderingTieBreak(t *testing.T) {
	store := New()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	u, err := store.CreateUser(ctx, &domain.User{Name: "u", Email: "u@example.com"})
	require.NoError(t, err)
	p, err := store.CreatePost(ctx, &domain.BlogPost{Title: "p", UserID: u.ID})
	require.NoError(t, err)

	var created []uint
	for i := 0; i < 3; i++ {
		c, err := store.CreateComment(ctx, &domain.Comment{Content: "c", UserID: u.ID, BlogPostID: p.ID})
		require.NoError(t, err)
		created = append(created, c.ID)
	}

	thread, err := store.ListCommentsByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, created, []uint{thread[0].ID, thread[1].ID, thread[2].ID})

	all, err := store.ListComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{created[2], created[1], created[0]}, []uint{all[0].ID, all[1].ID, all[2].ID})
}

// Изменение возвращённой копии не должно затрагивать хранимую запись.
func TestStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, &domain.User{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	p, err := store.CreatePost(ctx, &domain.BlogPost{Title: "title", UserID: u.ID})
	require.NoError(t, err)

	p.Title = "mutated"
	*p.AuthorName = "mallory"

	got, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "title", got.Title)
	assert.Equal(t, "alice", *got.AuthorName)
	assert.Nil(t, store.posts[p.ID].AuthorName)
}

func TestStore_ConcurrentCreateUser(t *testing.T) {
	store := New()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CreateUser(ctx, &domain.User{Name: "dup", Email: "dup@example.com"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
	}
	assert.Equal(t, 1, ok)
}
