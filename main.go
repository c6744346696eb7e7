package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/auth"
	"github.com/EmpoweredVote/EV-Links/internal/config"
	"github.com/EmpoweredVote/EV-Links/internal/db"
	"github.com/EmpoweredVote/EV-Links/internal/links"
	"github.com/EmpoweredVote/EV-Links/internal/middleware"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/EmpoweredVote/EV-Links/internal/users"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb, cfg.DBSchema); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roles := rbac.NewStore(gdb)
	authz := rbac.NewAuthorizer(roles, rbac.Config{AdminEmails: cfg.AdminEmails})
	userStore := auth.NewStore(gdb)
	linkStore := links.NewStore(gdb)
	sessions := auth.NewSessionManager(gdb, cfg.SessionTTL)

	authHandler := auth.NewHandler(
		auth.NewService(gdb, userStore, sessions, roles, authz),
		auth.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure},
	)
	linkHandler := links.NewHandler(links.NewService(gdb, linkStore, roles, authz, userStore))
	userHandler := users.NewHandler(users.NewService(gdb, userStore, roles, linkStore, authz))

	loginLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.LoginRate), cfg.LoginBurst)
	loginLimiter.StartCleanup(ctx, 10*time.Minute)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/healthz", RootHandler)
	r.Mount("/auth", auth.SetupRoutes(authHandler, sessions, middleware.RateLimitMiddleware(loginLimiter)))
	r.Mount("/links", links.SetupRoutes(linkHandler, sessions, cfg.CookieName))
	r.Mount("/users", users.SetupRoutes(userHandler, sessions, cfg.CookieName, authz))
	r.Get("/{label}", linkHandler.RedirectHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
