package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/techdoc/internal/auth"
	"github.com/mmynk/techdoc/internal/geocode"
	"github.com/mmynk/techdoc/internal/metrics"
	"github.com/mmynk/techdoc/internal/middleware"
	"github.com/mmynk/techdoc/internal/repository"
	"github.com/mmynk/techdoc/internal/seed"
	"github.com/mmynk/techdoc/internal/service"
	"github.com/mmynk/techdoc/internal/session"
	"github.com/mmynk/techdoc/internal/storage"
	"github.com/mmynk/techdoc/internal/transfer"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the local API server",
		Long: `Serve the Connect API under /techdoc.v1.*, Prometheus metrics under
/metrics and, when server.static_path is set, the web client at /.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// server is everything serve wires together.
type server struct {
	handler http.Handler
	store   *storage.Store
	live    *session.Controller
}

func (s *server) Close() error {
	s.live.Leave()
	return s.store.Close()
}

func (a *app) serve(ctx context.Context) error {
	srv, err := a.newServer(ctx)
	if err != nil {
		return err
	}
	defer srv.Close()

	sc := a.cfg.Server
	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", sc.Port),
		// h2c for HTTP/2 without TLS, which Connect clients may use
		Handler:      h2c.NewHandler(srv.handler, &http2.Server{}),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", httpServer.Addr, "url", fmt.Sprintf("http://localhost%s", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server shutdown complete")
	return nil
}

// newServer opens the store and builds the HTTP handler.
func (a *app) newServer(ctx context.Context) (*server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, err := a.openStore(m)
	if err != nil {
		return nil, err
	}
	repo := repository.New(store, repository.WithClock(a.now))

	if a.cfg.App.Seed {
		if _, err := seed.IfEmpty(ctx, repo, a.now()); err != nil {
			store.Close()
			return nil, err
		}
	}
	if n, err := repo.Jobs.RemoveOrphanBlobs(ctx); err != nil {
		slog.Warn("Failed to remove orphaned attachments", "error", err)
	} else if n > 0 {
		slog.Info("Removed orphaned attachments", "count", n)
	}
	if _, err := store.Usage(ctx); err != nil {
		slog.Warn("Failed to measure store usage", "error", err)
	}

	live := session.NewController(repo.Jobs, session.WithMetrics(m))
	gc := a.cfg.Geocode
	geocoder := geocode.New(geocode.Config{
		BaseURL:   gc.BaseURL,
		UserAgent: gc.UserAgent,
		Region:    gc.Region,
		Timeout:   gc.Timeout,
		CacheTTL:  gc.CacheTTL,
	})

	services := service.Services{
		Clients:  service.NewClientService(repo, geocoder),
		Jobs:     service.NewJobService(repo),
		Settings: service.NewSettingsService(repo, live),
		Transfer: service.NewTransferService(transfer.New(repo, transfer.WithMetrics(m), transfer.WithClock(a.now))),
		Live:     service.NewLiveService(live),
	}
	interceptors := []connect.Interceptor{middleware.LoggingInterceptor()}

	if ac := a.cfg.Auth; ac.Enabled {
		authenticator, err := auth.NewStaticAuthenticator(ac.Username, ac.PasswordHash)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to configure login: %w", err)
		}
		jwtManager := auth.NewJWTManager(ac.JWTSecret, ac.TokenTTL)
		services.Auth = service.NewAuthService(authenticator, jwtManager, slog.Default())
		// Outermost first, so the logging interceptor sees the username.
		interceptors = append([]connect.Interceptor{middleware.RequireAuth(jwtManager, service.PublicProcedures...)}, interceptors...)
		slog.Info("Login gate enabled", "username", ac.Username)
	}

	mux := http.NewServeMux()
	services.Mount(mux, connect.WithInterceptors(interceptors...))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if path := a.cfg.Server.StaticPath; path != "" {
		staticDir, err := filepath.Abs(path)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to resolve static path: %w", err)
		}
		slog.Info("Serving static files", "path", staticDir)
		mux.Handle("/", staticHandler(staticDir))
	}

	return &server{
		handler: middleware.Logging(middleware.CORS(mux)),
		store:   store,
		live:    live,
	}, nil
}

// staticHandler serves the web client from dir. Unknown paths fall back to
// index.html so client-side routes survive a reload.
func staticHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, service.APIPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}
