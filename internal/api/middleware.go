package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/sanlang/internal/authz"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/metrics"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
)

// UserIDFromContext returns the authenticated user, or "".
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

// RoleFromContext returns the authenticated caller's role, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// requestID runs chi's RequestID with a UUID when the caller sent none,
// echoes the ID in the response and adds it to the logging context.
func requestID(next http.Handler) http.Handler {
	chiRequestID := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(middleware.RequestIDHeader) == "" {
			r.Header.Set(middleware.RequestIDHeader, logging.NewRequestID())
		}
		chiRequestID.ServeHTTP(w, r)
	})
}

// logFormatter writes chi request log entries through zerolog and records
// request metrics under the matched route pattern.
type logFormatter struct{}

func (logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &logEntry{r: r}
}

type logEntry struct {
	r *http.Request
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	if status == 0 {
		status = http.StatusOK
	}
	route := "unmatched"
	if rc := chi.RouteContext(e.r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	metrics.RecordAPIRequest(e.r.Method, route, status, elapsed)
	logging.Ctx(e.r.Context()).Info().
		Str("method", e.r.Method).
		Str("url", e.r.URL.String()).
		Str("route", route).
		Str("ip", e.r.RemoteAddr).
		Int("status", status).
		Int("bytes", bytes).
		Dur("duration", elapsed).
		Str("agent", e.r.UserAgent()).
		Msg("request")
}

// Panic is called by middleware.Recoverer.
func (e *logEntry) Panic(v any, stack []byte) {
	logging.Ctx(e.r.Context()).Error().
		Interface("panic", v).
		Str("method", e.r.Method).
		Str("url", e.r.URL.String()).
		Str("stack_trace", string(stack)).
		Msg("internal server error")
}

// authenticate verifies an HS256 bearer token. The subject is the user ID
// and roleClaim names the claim holding the caller's role; tokens without
// one are learners.
func authenticate(key []byte, roleClaim string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected token")
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			uid, _ := claims["sub"].(string)
			if uid == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			role, _ := claims[roleClaim].(string)
			if role == "" {
				role = authz.RoleLearner
			}

			ctx := context.WithValue(r.Context(), userIDKey, uid)
			ctx = context.WithValue(ctx, roleKey, role)
			ctx = logging.ContextWithUserID(ctx, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authorize checks the caller's role against the request path.
func authorize(e *authz.Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := e.Enforce(RoleFromContext(r.Context()), r.URL.Path, authz.ActionFor(r.Method))
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("authorization error")
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
