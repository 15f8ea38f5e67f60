package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/config"
	"github.com/traklabs/trak/internal/message"
	"github.com/traklabs/trak/internal/metrics"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/task"
	"github.com/traklabs/trak/internal/user"
	"github.com/traklabs/trak/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Trak web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	userStore := user.NewStore(pool, cfg.Session.TTL)
	projectStore := project.NewStore(pool)
	taskStore := task.NewStore(pool)
	messageStore := message.NewStore(pool)

	adapter := user.NewAuthAdapter(userStore)
	authService := auth.NewService(adapter, adapter)

	// Expired sessions are swept in the background; lookups already filter
	// on expiry, so this only reclaims storage.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := userStore.CleanExpiredSessions(ctx); err != nil {
					slog.Error("cleaning expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned expired sessions", "count", n)
				}
			}
		}
	}()

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) {
		st := pool.Stat()
		return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
	})

	router := web.NewRouter(web.RouterDeps{
		Users:      userStore,
		Projects:   projectStore,
		Tasks:      taskStore,
		Messages:   messageStore,
		Auth:       authService,
		Sessions:   adapter,
		Metrics:    m,
		CookieName: cfg.Session.CookieName,
		SessionTTL: cfg.Session.TTL,
		DBPing:     pool.Ping,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
