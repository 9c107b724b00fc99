package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hszk-dev/shorturl/internal/middleware"
	"github.com/hszk-dev/shorturl/internal/shortener"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// maxShortenBody bounds the JSON body accepted by ShortenHandler.
const maxShortenBody = 64 << 10

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

type App struct {
	Service *shortener.Service
	BaseURL string

	// LegacyStatus answers every failure with 500 for clients built against
	// the legacy status codes.
	LegacyStatus bool

	Database Checker
	Cache    Checker // nil when caching is disabled
	Logger   *zap.Logger
}

type ShortenRequest struct {
	URL string `json:"url"`
}

type ShortenResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

// Routes returns the HTTP handler serving every endpoint.
func (a *App) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/shorten", a.ShortenHandler).Methods(http.MethodPost)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.PathPrefix("/").HandlerFunc(a.DispatchHandler).Methods(http.MethodGet, http.MethodHead)

	return middleware.RequestID(middleware.Logging(a.Logger)(r))
}

// DispatchHandler shortens the URL in the q parameter when one is given and
// otherwise resolves the short code, which is everything in the path after
// the leading slash. Shortening stores a record, so HEAD only resolves.
func (a *App) DispatchHandler(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Shortening requires GET", http.StatusMethodNotAllowed)
			return
		}
		a.encode(w, r, q)
		return
	}
	a.decode(w, r, strings.TrimPrefix(r.URL.Path, "/"))
}

// encode answers with the short URL for rawURL.
//
//	@Summary		Shorten a URL
//	@Description	With a non-empty q parameter the URL is shortened and the short URL returned as plain text.
//	@Tags			urls
//	@Produce		plain
//	@Param			q	query		string	false	"URL to shorten"
//	@Success		200	{string}	string	"short URL"
//	@Failure		400	{string}	string	"invalid URL or short code"
//	@Failure		500	{string}	string	"store error"
//	@Failure		504	{string}	string	"store timeout"
//	@Router			/ [get]
func (a *App) encode(w http.ResponseWriter, r *http.Request, rawURL string) {
	token, err := a.Service.Shorten(r.Context(), rawURL)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, a.shortURL(token))
}

// decode redirects to the URL stored for token.
//
//	@Summary		Resolve a short code
//	@Description	Redirects to the URL stored for token. A non-empty q parameter shortens instead, as on /.
//	@Tags			urls
//	@Produce		plain
//	@Param			token	path		string	true	"short code"
//	@Success		302		"redirect to the stored URL"
//	@Failure		400		{string}	string	"invalid short code"
//	@Failure		404		{string}	string	"unknown short code"
//	@Failure		500		{string}	string	"store error"
//	@Failure		504		{string}	string	"store timeout"
//	@Router			/{token} [get]
func (a *App) decode(w http.ResponseWriter, r *http.Request, token string) {
	originalURL, err := a.Service.Resolve(r.Context(), token)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

// ShortenHandler is the JSON flavour of the q parameter.
//
//	@Summary	Shorten a URL (JSON)
//	@Tags		urls
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ShortenRequest	true	"URL to shorten"
//	@Success	200		{object}	ShortenResponse
//	@Failure	400		{string}	string	"invalid request"
//	@Failure	413		{string}	string	"request body too large"
//	@Failure	500		{string}	string	"store error"
//	@Failure	504		{string}	string	"store timeout"
//	@Router		/api/shorten [post]
func (a *App) ShortenHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxShortenBody)

	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	token, err := a.Service.Shorten(r.Context(), req.URL)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	resp := ShortenResponse{
		ShortCode: token,
		ShortURL:  a.shortURL(token),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.Logger.Warn("failed to write response", zap.Error(err))
	}
}

// HealthHandler reports database and cache reachability. Only an unreachable
// database fails the check; a cache outage degrades it.
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse	"database unavailable"
//	@Router		/health [get]
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "healthy"}
	status := http.StatusOK

	if err := a.Database.Ping(ctx); err != nil {
		a.Logger.Warn("database health check failed", zap.Error(err))
		resp.Database = "unhealthy"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if a.Cache != nil {
		resp.Cache = "healthy"
		if err := a.Cache.Ping(ctx); err != nil {
			a.Logger.Warn("cache health check failed", zap.Error(err))
			resp.Cache = "unhealthy"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (a *App) shortURL(token string) string {
	return a.BaseURL + "/" + token
}

func (a *App) statusFor(err error) int {
	if a.LegacyStatus {
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, shortener.ErrInvalidURL), errors.Is(err, shortener.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, shortener.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with a plain-text message naming the offending input.
// Store failures are logged but their cause is not exposed.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	input := ""
	var svcErr *shortener.Error
	if errors.As(err, &svcErr) {
		input = svcErr.Input
	}

	var msg string
	switch {
	case errors.Is(err, shortener.ErrInvalidURL):
		msg = fmt.Sprintf("'%s' is not a valid URL.", input)
	case errors.Is(err, shortener.ErrInvalidToken):
		msg = fmt.Sprintf("'%s' is not a valid short code: %v", input, svcErr.Err)
	case errors.Is(err, shortener.ErrNotFound):
		msg = fmt.Sprintf("'%s' not found.", input)
	default:
		a.Logger.Error("request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.String("input", input),
			zap.Error(err),
		)
		msg = fmt.Sprintf("'%s' resulted in error.", input)
	}

	http.Error(w, msg, a.statusFor(err))
}
