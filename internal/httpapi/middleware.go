package httpapi

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// HeaderCartID адресует рабочее пространство покупателя.
const HeaderCartID = "X-Cart-ID"

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

type ctxKey struct{}

func cartIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// requireCartID отклоняет запросы без корректного X-Cart-ID.
func requireCartID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderCartID)
		if id == "" {
			writeError(w, http.StatusBadRequest, "MISSING_CART_ID", HeaderCartID+" header is required", nil)
			return
		}
		if !cartIDPattern.MatchString(id) {
			writeError(w, http.StatusBadRequest, "INVALID_CART_ID", HeaderCartID+" header has invalid format", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// requestLogger пишет строку лога на каждый запрос.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			})
			if cartID := r.Header.Get(HeaderCartID); cartID != "" {
				entry = entry.WithField("cart_id", cartID)
			}
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Debug("request served")
		})
	}
}
