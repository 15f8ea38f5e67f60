package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/config"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed an initial admin user and a demo project",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userStore := user.NewStore(pool, cfg.Session.TTL)
	projectStore := project.NewStore(pool)

	existing, err := userStore.GetByEmail(ctx, "admin@trak.local")
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("seed skipped, admin user already exists", "uid", existing.UID)
		return nil
	}

	admin, err := userStore.Create(ctx, user.CreateUserInput{
		Firstname: "Trak",
		Lastname:  "Admin",
		Email:     "admin@trak.local",
		Level:     5,
	})
	if err != nil {
		return err
	}

	// The generated initial password forces a reset on first login.
	slog.Info("admin user created",
		"uid", admin.UID,
		"email", admin.Email,
		"initial_password", auth.DefaultPassword(admin.Firstname, admin.Lastname),
	)

	p, err := projectStore.Create(ctx, project.CreateProjectInput{
		Owner:       admin.UID,
		Title:       "Getting Started",
		Description: "A demo project. Post an announcement, add a task, add your team.",
		DateDue:     time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		return err
	}

	slog.Info("demo project created", "pid", p.PID, "title", p.Title)
	return nil
}
