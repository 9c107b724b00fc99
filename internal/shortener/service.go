package shortener

import (
	"context"
	"errors"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultStoreTimeout bounds every repository call made by Service.
const DefaultStoreTimeout = 3 * time.Second

type Service struct {
	repo    Repository
	codec   *Codec
	timeout time.Duration
	logger  *zap.Logger
	inserts singleflight.Group
}

type Option func(*Service)

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo Repository, codec *Codec, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		codec:   codec,
		timeout: DefaultStoreTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the codec the service encodes identifiers with.
func (s *Service) Codec() *Codec {
	return s.codec
}

// ValidateURL accepts absolute http and https URLs with a host. Other
// schemes such as ftp or mailto are rejected even when well formed, since
// the service only ever answers with a browser redirect to the stored URL.
func ValidateURL(rawURL string) error {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// Shorten returns the short code for rawURL, storing the URL on first use.
// The same URL always yields the same code.
func (s *Service) Shorten(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", newError(ErrInvalidURL, rawURL, err)
	}

	// Requests for the same URL share one lookup-or-insert. The shared call
	// must not be cut short by whichever caller happened to start it.
	v, err, _ := s.inserts.Do(rawURL, func() (any, error) {
		return s.findOrInsert(context.WithoutCancel(ctx), rawURL)
	})
	if err != nil {
		return "", newError(ErrStore, rawURL, err)
	}

	return s.codec.Encode(v.(uint64)), nil
}

func (s *Service) findOrInsert(ctx context.Context, rawURL string) (uint64, error) {
	id, err := s.findIDByURL(ctx, rawURL)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	id, err = s.insertURL(ctx, rawURL)
	if err == nil {
		s.logger.Debug("stored url", zap.String("url", rawURL), zap.Uint64("id", id))
		return id, nil
	}
	if !errors.Is(err, ErrConflict) {
		return 0, err
	}

	// Another writer stored the URL between our lookup and insert.
	s.logger.Debug("insert conflict, re-reading id", zap.String("url", rawURL))
	return s.findIDByURL(ctx, rawURL)
}

// Resolve returns the URL stored for token.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	id, err := s.codec.Decode(token)
	if errors.Is(err, ErrTokenOverflow) {
		return "", newError(ErrNotFound, token, err)
	}
	if err != nil {
		return "", newError(ErrInvalidToken, token, err)
	}

	// Stores hand out signed 64-bit keys; anything larger was never assigned.
	if id > math.MaxInt64 {
		return "", newError(ErrNotFound, token, nil)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	originalURL, err := s.repo.FindURLByID(storeCtx, id)
	if errors.Is(err, ErrNotFound) {
		return "", newError(ErrNotFound, token, nil)
	}
	if err != nil {
		return "", newError(ErrStore, token, err)
	}

	return originalURL, nil
}

func (s *Service) findIDByURL(ctx context.Context, rawURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.FindIDByURL(ctx, rawURL)
}

func (s *Service) insertURL(ctx context.Context, rawURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.InsertURL(ctx, rawURL)
}
