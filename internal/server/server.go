package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"prism/internal/config"
	"prism/internal/handler"
	"prism/internal/handler/chat"
	"prism/internal/middleware"
	"prism/internal/svc"
	"prism/internal/uploads"
	"prism/internal/websocket"
)

// ServerOptions holds optional dependencies for the server
type ServerOptions struct {
	SvcCtx *svc.ServiceContext // Pre-initialized service context
	Quiet  bool                // Suppress startup messages for clean CLI output
}

// Run starts the server with the given configuration.
// It blocks until the context is cancelled or an error occurs.
func Run(ctx context.Context, c config.Config, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return run(ctx, c, o)
}

func run(ctx context.Context, c config.Config, opts ServerOptions) error {
	if err := checkPortAvailable(c.Port); err != nil {
		return fmt.Errorf("port %d is already in use", c.Port)
	}

	if !opts.Quiet {
		fmt.Printf("Starting server on http://%s\n", c.Addr())
	}

	// Use pre-initialized service context if provided, otherwise create one
	svcCtx := opts.SvcCtx
	if svcCtx == nil {
		var err error
		svcCtx, err = svc.NewServiceContext(c)
		if err != nil {
			return fmt.Errorf("initialize services: %w", err)
		}
		defer svcCtx.Close()
	}

	go svcCtx.Hub.Run(ctx)

	r := chi.NewRouter()

	// Global middleware
	if !opts.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware())

	// Health check at root
	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	// WebSocket endpoint does its own token handling; browsers cannot
	// set headers on upgrade requests.
	r.Get("/ws", websocket.Handler(svcCtx))

	// Generated media
	r.Get(uploads.URLPrefix+"/*", svcCtx.Uploads.ServeHandler())

	// Authenticated routes (JWT, with optional guest fallback)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(c.Auth.AccessSecret, c.GuestAccessAllowed()))
		r.Post("/chat", chat.SendMessageHandler(svcCtx))
		r.Route("/api", func(r chi.Router) {
			registerChatRoutes(r, svcCtx)
		})
	})

	// Note: ReadTimeout/WriteTimeout are intentionally omitted — they set
	// deadlines on the underlying net.Conn which interfere with hijacked
	// WebSocket connections. Keepalive is handled via ping/pong in the
	// realtime package.
	httpServer := &http.Server{
		Addr:        c.Addr(),
		Handler:     r,
		IdleTimeout: 120 * time.Second,
	}

	if !opts.Quiet {
		fmt.Printf("Server ready at http://%s\n", c.Addr())
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	if !opts.Quiet {
		fmt.Println("\nShutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	// Let in-flight generation jobs persist their results.
	svcCtx.Dispatcher.Wait()
	return nil
}

// registerChatRoutes registers the conversation API
func registerChatRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Get("/conversations", chat.ListConversationsHandler(svcCtx))
	r.Get("/conversations/{conversationId}", chat.GetConversationHandler(svcCtx))
	r.Post("/conversations/{conversationId}/star", chat.StarConversationHandler(svcCtx))
	r.Put("/conversations/{conversationId}/title", chat.RenameConversationHandler(svcCtx))
	r.Delete("/conversations/{conversationId}", chat.DeleteConversationHandler(svcCtx))
	r.Get("/videos", chat.ListVideosHandler(svcCtx))
}

// corsMiddleware handles CORS for the browser client.
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkPortAvailable checks if a port is available for binding
func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
