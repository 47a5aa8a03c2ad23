package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"clinic/internal/app"
	"clinic/internal/config"
	"clinic/internal/database"
	"clinic/migrations"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	run := func(step func(ctx context.Context, cfg *config.Config, log *zap.Logger) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return step(ctx, cfg, logger)
		}
	}

	cmd := &cli.Command{
		Name:  "migrate",
		Usage: "Apply or inspect database migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: run(func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
					_, closer, err := app.OpenDB(ctx, cfg, logger)
					if err != nil {
						return err
					}
					defer closer.Close()
					logger.Info("migrations applied")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: run(func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
					return withSQL(cfg, logger, func(db *sql.DB) error {
						return migrations.Down(ctx, db, app.DialectFor(cfg.DatabaseURL))
					})
				}),
			},
			{
				Name:  "status",
				Usage: "Show applied and pending migrations",
				Action: run(func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
					return withSQL(cfg, logger, func(db *sql.DB) error {
						return migrations.Status(ctx, db, app.DialectFor(cfg.DatabaseURL))
					})
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// withSQL connects without applying migrations, so down and status see the
// schema as it is.
func withSQL(cfg *config.Config, logger *zap.Logger, fn func(db *sql.DB) error) error {
	gdb, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}
	defer db.Close()
	return fn(db)
}
