package shortener

import "context"

// MockRepository is a mock implementation of Repository for testing.
// This mock is exported to allow usage in tests across multiple packages.
type MockRepository struct {
	FindIDByURLFunc func(ctx context.Context, url string) (uint64, error)
	InsertURLFunc   func(ctx context.Context, url string) (uint64, error)
	FindURLByIDFunc func(ctx context.Context, id uint64) (string, error)
	PingFunc        func(ctx context.Context) error
	CloseFunc       func() error
}

func (m *MockRepository) FindIDByURL(ctx context.Context, url string) (uint64, error) {
	if m.FindIDByURLFunc != nil {
		return m.FindIDByURLFunc(ctx, url)
	}
	return 0, ErrNotFound
}

func (m *MockRepository) InsertURL(ctx context.Context, url string) (uint64, error) {
	if m.InsertURLFunc != nil {
		return m.InsertURLFunc(ctx, url)
	}
	return 0, nil
}

func (m *MockRepository) FindURLByID(ctx context.Context, id uint64) (string, error) {
	if m.FindURLByIDFunc != nil {
		return m.FindURLByIDFunc(ctx, id)
	}
	return "", ErrNotFound
}

func (m *MockRepository) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockRepository) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
