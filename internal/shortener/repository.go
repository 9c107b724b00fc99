package shortener

import "context"

// Repository persists URL records. Each URL gets one identifier at first
// insert; the pair never changes afterwards. Implementations must be safe
// for concurrent use.
type Repository interface {
	// FindIDByURL returns the identifier stored for url, or ErrNotFound.
	FindIDByURL(ctx context.Context, url string) (uint64, error)

	// InsertURL stores url under a fresh identifier. It returns ErrConflict
	// when url is already stored, e.g. because a concurrent request won
	// the race.
	InsertURL(ctx context.Context, url string) (uint64, error)

	// FindURLByID returns the URL stored under id, or ErrNotFound.
	FindURLByID(ctx context.Context, id uint64) (string, error)

	Ping(ctx context.Context) error
	Close() error
}
