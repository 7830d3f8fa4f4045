package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/FretDNA/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)

	// Health endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health/metrics", s.handleMetrics)

	// Search endpoints
	mux.HandleFunc("/api/search", s.handleSearchRoute)
	mux.HandleFunc("/api/search/batch", s.handleSearchBatchRoute)

	// Chord library endpoints
	mux.HandleFunc("/api/chords", s.handleChords)
	mux.HandleFunc("/api/chords/", s.handleChord)

	// Fretboard and audio endpoints
	mux.HandleFunc("/api/tuning", s.handleTuning)
	mux.HandleFunc("/api/audition", s.handleAuditionRoute)
	mux.HandleFunc("/api/detect", s.handleDetectRoute)

	var handler http.Handler = mux
	if s.config.AccessLog {
		handler = loggingMiddleware(handler)
	}
	return corsMiddleware(s.config.AllowedOrigins)(handler)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, o := range allowedOrigins {
					if o == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Add("Vary", "Origin")
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
				if !allowAll {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			// Preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs each request with its status, size and latency
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(wrapped, r)

		logger.GetLogger().Infof("%s %s from %s -> %d (%s, %s)",
			r.Method, r.URL.Path, getClientIP(r), wrapped.statusCode,
			humanize.Bytes(wrapped.written), time.Since(start).Round(time.Microsecond))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// body size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    uint64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += uint64(n)
	return n, err
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("🎸 FretDNA server starting on %s", addr)
	if s.config.DBPath != "" {
		s.log.Infof("   Database: %s", s.config.DBPath)
	}
	s.log.Infof("   Tuning: %s", s.service.Fretboard().Tuning())
	s.log.Infof("   Window: %s", s.config.Window)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                       - Health check")
	s.log.Infof("   GET    /api/health/metrics           - Server metrics")
	s.log.Infof("   POST   /api/search                   - Fingerings for one chord")
	s.log.Infof("   POST   /api/search/batch             - Fingerings for many chords")
	s.log.Infof("   GET    /api/chords                   - List saved chords")
	s.log.Infof("   POST   /api/chords                   - Save a chord")
	s.log.Infof("   GET    /api/chords/{id}              - Get chord by ID or name")
	s.log.Infof("   DELETE /api/chords/{id}              - Delete chord")
	s.log.Infof("   GET    /api/chords/{id}/fingerings   - Fingerings for a saved chord")
	s.log.Infof("   GET    /api/tuning                   - Current tuning")
	s.log.Infof("   PUT    /api/tuning                   - Retune the board")
	s.log.Infof("   POST   /api/audition                 - Render a fingering as WAV")
	s.log.Infof("   POST   /api/detect                   - Detect notes in a WAV upload")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
