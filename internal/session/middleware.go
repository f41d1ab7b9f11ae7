package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/car-listing/internal/service"
)

// CookieName is the session cookie.
const CookieName = "car_session"

type contextKey string

const (
	clientKey contextKey = "client"
	idKey     contextKey = "sessionID"
)

// Middleware attaches a service.Client to every request.
//
// A request with a valid car_session cookie whose session is still in the
// store reuses that client, and the cookie is re-issued so it slides along with
// the store entry. Anything else (no cookie, bad signature, expired
// token, evicted session) starts a new session, sets a fresh cookie and runs
// the initial LoadCars before the handler sees the request.
func Middleware(tokens *TokenService, store *Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, client, ok := lookup(r, tokens, store)
			if !ok {
				var err error
				id, client, err = start(w, r, tokens, store)
				if err != nil {
					logger.Error("start session failed", slog.String("error", err.Error()))
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				logger.Info("session started", slog.String("session", id))
				// The load reports its own failure through the notice banner.
				_ = client.LoadCars(r.Context())
			} else if err := setCookie(w, r, tokens, id, store); err != nil {
				logger.Warn("refresh session cookie failed", slog.String("error", err.Error()))
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), id, client)))
		})
	}
}

// Resume attaches a live session the same way Middleware does but never starts
// one. A request without a live session passes through with no client on its
// context, no cookie and no upstream load.
func Resume(tokens *TokenService, store *Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, client, ok := lookup(r, tokens, store)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if err := setCookie(w, r, tokens, id, store); err != nil {
				logger.Warn("refresh session cookie failed", slog.String("error", err.Error()))
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), id, client)))
		})
	}
}

func withSession(ctx context.Context, id string, client *service.Client) context.Context {
	ctx = context.WithValue(ctx, clientKey, client)
	return context.WithValue(ctx, idKey, id)
}

// ClientFromContext returns the session's client.
//
// Usage in handlers:
//
//	client, ok := session.ClientFromContext(r.Context())
//	if !ok {
//	    // route is not behind the session middleware
//	}
func ClientFromContext(ctx context.Context) (*service.Client, bool) {
	c, ok := ctx.Value(clientKey).(*service.Client)
	return c, ok && c != nil
}

// IDFromContext returns the session id.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey).(string)
	return id, ok && id != ""
}

// WithClient stores c in ctx as if the middleware had run. Used by tests.
func WithClient(ctx context.Context, c *service.Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

func lookup(r *http.Request, tokens *TokenService, store *Store) (string, *service.Client, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", nil, false
	}
	id, err := tokens.Validate(cookie.Value)
	if err != nil {
		return "", nil, false
	}
	client, ok := store.Get(id)
	if !ok {
		return "", nil, false
	}
	return id, client, true
}

func start(w http.ResponseWriter, r *http.Request, tokens *TokenService, store *Store) (string, *service.Client, error) {
	id, client := store.Create()
	if err := setCookie(w, r, tokens, id, store); err != nil {
		store.Delete(id)
		return "", nil, err
	}
	return id, client, nil
}

func setCookie(w http.ResponseWriter, r *http.Request, tokens *TokenService, id string, store *Store) error {
	token, err := tokens.Issue(id, store.TTL())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
