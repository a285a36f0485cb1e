package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jeremymatt/photo-manager/api"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// withRequestID tags the request context and the response with the
// X-Request-ID header of the request or, when it has none, a new KSUID.
func withRequestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(api.RequestIDHeader)
			if id == "" {
				id = ksuid.New().String()
			}
			w.Header().Set(api.RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(api.ContextWithRequestID(r.Context(), id)))
		})
	}
}

// logRequests writes one line per request to the "http" logger.  Server
// errors are logged at warn level.
func logRequests(logger *zap.Logger) mux.MiddlewareFunc {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			level := zap.InfoLevel
			if sw.status >= 500 {
				level = zap.WarnLevel
			}
			logger.Check(level, "Request").Write(
				zap.String("request_id", api.RequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int("bytes", sw.bytes),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

// recoverPanics turns a panic in a handler into a 500 response with an
// api.Error body, unless the handler already started its response.
func recoverPanics(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := fmt.Errorf("panic: %v", rec)
				logger.Error("Handler panic",
					zap.String("request_id", api.RequestIDFromContext(r.Context())),
					zap.Error(err),
					zap.Stack("stack"),
				)
				if sw.wroteHeader {
					return
				}
				status, body := errorResponse("", err)
				body.Message = "internal server error"
				w.Header().Set("Content-Type", api.MediaTypeJSON)
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(body)
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusWriter) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusWriter) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
