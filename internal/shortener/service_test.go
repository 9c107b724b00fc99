package shortener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, repo Repository, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewService(repo, MustCodec(DefaultAlphabet), opts...)
}

func TestService_Shorten(t *testing.T) {
	tests := []struct {
		name        string
		originalURL string
		existingID  uint64
		findErr     error
		insertID    uint64
		insertErr   error
		wantCode    string
		wantErr     error
		wantInsert  bool
	}{
		{
			name:        "new url is inserted",
			originalURL: "https://www.google.com",
			findErr:     ErrNotFound,
			insertID:    1,
			wantCode:    "3",
			wantInsert:  true,
		},
		{
			name:        "existing url reuses its id",
			originalURL: "https://github.com",
			existingID:  12345,
			wantCode:    "6N5",
		},
		{
			name:        "lookup failure",
			originalURL: "https://example.com",
			findErr:     errors.New("database error"),
			wantErr:     ErrStore,
		},
		{
			name:        "insert failure",
			originalURL: "https://example.com",
			findErr:     ErrNotFound,
			insertErr:   errors.New("database error"),
			wantErr:     ErrStore,
			wantInsert:  true,
		},
		{
			name:        "invalid url",
			originalURL: "not a url",
			wantErr:     ErrInvalidURL,
		},
		{
			name:        "empty url",
			originalURL: "",
			wantErr:     ErrInvalidURL,
		},
		{
			name:        "ftp scheme",
			originalURL: "ftp://example.com/file",
			wantErr:     ErrInvalidURL,
		},
		{
			name:        "missing host",
			originalURL: "https:///path",
			wantErr:     ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inserted := false
			repo := &MockRepository{
				FindIDByURLFunc: func(ctx context.Context, url string) (uint64, error) {
					assert.Equal(t, tt.originalURL, url)
					return tt.existingID, tt.findErr
				},
				InsertURLFunc: func(ctx context.Context, url string) (uint64, error) {
					inserted = true
					return tt.insertID, tt.insertErr
				},
			}

			code, err := newTestService(t, repo).Shorten(context.Background(), tt.originalURL)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.originalURL)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCode, code)
			}
			assert.Equal(t, tt.wantInsert, inserted)
		})
	}
}

func TestService_Shorten_InvalidURLDoesNotTouchStore(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, repo)

	_, err := svc.Shorten(context.Background(), "not a url")

	require.ErrorIs(t, err, ErrInvalidURL)
	assert.Equal(t, 0, repo.Len())
}

func TestService_Shorten_ConflictRequeries(t *testing.T) {
	var finds int
	repo := &MockRepository{
		FindIDByURLFunc: func(ctx context.Context, url string) (uint64, error) {
			finds++
			if finds == 1 {
				return 0, ErrNotFound
			}
			return 7, nil
		},
		InsertURLFunc: func(ctx context.Context, url string) (uint64, error) {
			return 0, ErrConflict
		},
	}

	code, err := newTestService(t, repo).Shorten(context.Background(), "https://example.com/a")

	require.NoError(t, err)
	assert.Equal(t, MustCodec(DefaultAlphabet).Encode(7), code)
	assert.Equal(t, 2, finds)
}

func TestService_Shorten_Idempotent(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Shorten(ctx, "https://example.com/a")
	require.NoError(t, err)
	second, err := svc.Shorten(ctx, "https://example.com/a")
	require.NoError(t, err)
	other, err := svc.Shorten(ctx, "https://example.com/b")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Equal(t, 2, repo.Len())
}

func TestService_Shorten_ConcurrentSameURL(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, repo)

	const workers = 50
	codes := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			codes[n], errs[n] = svc.Shorten(context.Background(), "https://example.com/race")
		}(i)
	}
	wg.Wait()

	for i := range codes {
		require.NoError(t, errs[i])
		assert.Equal(t, codes[0], codes[i])
	}
	assert.Equal(t, 1, repo.Len())
}

// racingRepository simulates another process inserting the same URL
// between this process's lookup and insert.
type racingRepository struct {
	*MemoryRepository
	raced atomic.Bool
}

func (r *racingRepository) InsertURL(ctx context.Context, url string) (uint64, error) {
	if r.raced.CompareAndSwap(false, true) {
		if _, err := r.MemoryRepository.InsertURL(ctx, url); err != nil {
			return 0, err
		}
	}
	return r.MemoryRepository.InsertURL(ctx, url)
}

func TestService_Shorten_CrossProcessRace(t *testing.T) {
	repo := &racingRepository{MemoryRepository: NewMemoryRepository()}
	svc := newTestService(t, repo)

	code, err := svc.Shorten(context.Background(), "https://example.com/a")

	require.NoError(t, err)
	assert.Equal(t, "3", code)
	assert.Equal(t, 1, repo.Len())
}

func TestService_Shorten_StoreTimeout(t *testing.T) {
	repo := &MockRepository{
		FindIDByURLFunc: func(ctx context.Context, url string) (uint64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}
	svc := newTestService(t, repo, WithStoreTimeout(20*time.Millisecond))

	_, err := svc.Shorten(context.Background(), "https://example.com")

	require.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		shortCode string
		storedURL string
		getError  error
		wantURL   string
		wantID    uint64
		wantErr   error
		wantCall  bool
	}{
		{
			name:      "successful redirect",
			shortCode: "3",
			storedURL: "https://www.google.com",
			wantURL:   "https://www.google.com",
			wantID:    1,
			wantCall:  true,
		},
		{
			name:      "zero symbol is looked up, not rejected",
			shortCode: "2",
			getError:  ErrNotFound,
			wantErr:   ErrNotFound,
			wantID:    0,
			wantCall:  true,
		},
		{
			name:      "URL not found",
			shortCode: "xyz",
			getError:  ErrNotFound,
			wantErr:   ErrNotFound,
			wantID:    MustCodec(DefaultAlphabet).mustDecode("xyz"),
			wantCall:  true,
		},
		{
			name:      "invalid short code",
			shortCode: "invalid!",
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "non-canonical short code",
			shortCode: "23",
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "empty short code",
			shortCode: "",
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "beyond uint64",
			shortCode: "53ZYt4gzyMQ3",
			wantErr:   ErrNotFound,
		},
		{
			name:      "beyond int64",
			shortCode: "3ywvLyFPhpWy",
			wantErr:   ErrNotFound,
		},
		{
			name:      "repository error",
			shortCode: "4",
			getError:  errors.New("database connection error"),
			wantErr:   ErrStore,
			wantID:    2,
			wantCall:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			repo := &MockRepository{
				FindURLByIDFunc: func(ctx context.Context, id uint64) (string, error) {
					called = true
					assert.Equal(t, tt.wantID, id)
					return tt.storedURL, tt.getError
				},
			}

			gotURL, err := newTestService(t, repo).Resolve(context.Background(), tt.shortCode)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), fmt.Sprintf("'%s'", tt.shortCode))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, gotURL)
			}
			assert.Equal(t, tt.wantCall, called)
		})
	}
}

func TestService_RoundTrip(t *testing.T) {
	svc := newTestService(t, NewMemoryRepository())
	ctx := context.Background()

	code, err := svc.Shorten(ctx, "https://example.com/a")
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got)

	_, err = svc.Resolve(ctx, svc.Codec().Encode(99))
	assert.ErrorIs(t, err, ErrNotFound)
}

func (c *Codec) mustDecode(token string) uint64 {
	id, err := c.Decode(token)
	if err != nil {
		panic(err)
	}
	return id
}
