package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/metrics"
	"github.com/dmitrijs2005/foodable/internal/server/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

const (
	MsgAuthRequired   = "Authentication required. Please log in to continue."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgBadAuthToken   = "Invalid authentication token. Please log in again."

	maxBodyBytes = 10 << 20
)

type ctxKey int

const claimsKey ctxKey = iota

func contextWithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the verified access-token claims of the request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// requestID takes the id from X-Request-ID or X-Correlation-ID, or makes
// one, stores it for logging and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(common.RequestIDHeader))
		if id == "" {
			id = strings.TrimSpace(r.Header.Get(common.CorrelationIDHeader))
		}
		if id == "" || len(id) > 128 {
			id = logging.NewRequestID()
		}
		w.Header().Set(common.RequestIDHeader, id)

		ctx := logging.ContextWithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverer turns a handler panic into a 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error(r.Context(), "panic recovered",
				"panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			s.WriteError(w, r, apperr.Internal(MsgUnexpected, fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if s.production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs completed requests, failures at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start).String(),
			"ip", r.RemoteAddr,
		}
		if status >= http.StatusBadRequest {
			s.logger.Warn(r.Context(), "request completed", args...)
			return
		}
		s.logger.Debug(r.Context(), "request completed", args...)
	})
}

// instrument records request count and latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

// requireJSON rejects request bodies that are not JSON.
func (s *Server) requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if r.ContentLength != 0 {
				mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if mt != "application/json" {
					s.WriteError(w, r, apperr.New(http.StatusUnsupportedMediaType, MsgNeedJSON))
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// sanitizeBody strips script content from the top-level string fields of a
// JSON object body. Password fields are left untouched. Bodies that are not
// a JSON object pass through for the handler to reject.
func (s *Server) sanitizeBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.ContentLength == 0 || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			s.WriteError(w, r, err)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(sanitizeJSON(raw)))
		next.ServeHTTP(w, r)
	})
}

func sanitizeJSON(raw []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return raw
	}

	changed := false
	for k, v := range fields {
		if strings.Contains(strings.ToLower(k), "password") {
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			continue
		}
		clean := validation.Sanitize(str)
		if clean == str {
			continue
		}
		enc, err := json.Marshal(clean)
		if err != nil {
			continue
		}
		fields[k] = enc
		changed = true
	}
	if !changed {
		return raw
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}

// bearerToken reads the access token from the Authorization header or, when
// absent, the token cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if c, err := r.Cookie(common.AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

// authenticate requires a valid access token and stores its claims.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.WriteError(w, r, apperr.Unauthorized(MsgAuthRequired))
			return
		}

		claims, err := s.tokens.ParseAccess(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				s.WriteError(w, r, apperr.Wrap(http.StatusUnauthorized, MsgSessionExpired, err))
				return
			}
			s.WriteError(w, r, apperr.Wrap(http.StatusUnauthorized, MsgBadAuthToken, err))
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}
