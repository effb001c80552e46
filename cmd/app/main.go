package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/migrate"
	"github.com/starford/raido/internal/store"
	"github.com/starford/raido/internal/toolservice"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	mcfg := migrate.Config{
		SeedPath:  cfg.Seed.Path,
		DBPath:    cfg.SQLite.Path,
		BatchSize: cfg.Seed.BatchSize,
	}

	runOnce := func(ctx context.Context) error {
		p := migrate.New(mcfg, logger)
		return p.Run(ctx)
	}

	if err := runOnce(ctx); err != nil {
		if !cmd.Bool("watch") {
			return err
		}
		logger.Error("migration failed, watching for seed changes", slog.String("error", err.Error()))
	}

	if cmd.Bool("watch") {
		return migrate.Watch(ctx, cfg.Seed.Path, logger, runOnce)
	}
	return nil
}

func runSyncViewCounts(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	updated, err := migrate.SyncViewCounts(st, cfg.Seed.Path)
	if err != nil {
		return fmt.Errorf("sync view counts: %w", err)
	}
	logger.Info("view counts synced",
		slog.String("seed", cfg.Seed.Path),
		slog.Int("updated", updated))
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := toolservice.NewService(st, nil)
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "raido",
		Usage: "AI tools directory backend with SQLite storage, full-text search, and seed migration",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Rebuild the database from the JSON seed",
				Action: runMigrate,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Re-run the migration whenever the seed file changes",
					},
				},
			},
			{
				Name:   "sync-viewcounts",
				Usage:  "Write accumulated view counts back into the JSON seed",
				Action: runSyncViewCounts,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the catalog over the Model Context Protocol on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
