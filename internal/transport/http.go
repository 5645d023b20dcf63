package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

const maxBodyBytes = 1 << 20

// RPCHandler handles method dispatch for an authenticated user.
type RPCHandler interface {
	Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error)
}

// Options configure the HTTP router.
type Options struct {
	// Auth authenticates /rpc requests. Nil leaves requests anonymous, which
	// /rpc rejects.
	Auth func(http.Handler) http.Handler
	// Limiter throttles /rpc and /mcp. Nil disables rate limiting.
	Limiter Limiter
	// MCP is mounted at /mcp when set. It authenticates on its own.
	MCP         http.Handler
	CORSOrigins []string
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler RPCHandler, opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
			ExposedHeaders: []string{"Mcp-Session-Id"},
		}).Handler)
	}

	srv := &Server{handler: handler, logger: opts.Logger}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.Timeout))
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		if opts.Limiter != nil {
			r.Use(RateLimitMiddleware(opts.Limiter, opts.Logger))
		}
		r.Post("/rpc", srv.handleRPC)
	})

	if opts.MCP != nil {
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(RateLimitMiddleware(opts.Limiter, opts.Logger))
			}
			r.Handle("/mcp", opts.MCP)
			r.Handle("/mcp/*", opts.MCP)
		})
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	userID, ok := UserFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), userID, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var coded CodedError
		if !errors.As(err, &coded) {
			s.logger.Error("rpc failed", "method", req.Method, "user_id", userID,
				"request_id", middleware.GetReqID(r.Context()), "error", err)
		}
		WriteHandlerError(w, req.ID, err)
		return
	}

	WriteResult(w, req.ID, result)
}
