package main

import (
	"context"
	"log"
	"os"
	"time"

	"clinic/internal/app"
	"clinic/internal/config"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// token_sweep revokes sessions older than the maximum session age. Rows are
// kept so revocation state stays queryable.
func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "token_sweep",
		Usage: "Revoke session tokens issued before now minus the max session age",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "max-age",
				Sources: cli.EnvVars("SESSION_MAX_AGE"),
				Usage:   "Revoke tokens issued longer ago than this",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the cutoff without revoking",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			maxAge := cfg.SessionMaxAge
			if c.IsSet("max-age") {
				maxAge = c.Duration("max-age")
			}
			cutoff := time.Now().Add(-maxAge)

			if c.Bool("dry-run") {
				logger.Info("dry run", zap.Time("cutoff", cutoff))
				return nil
			}

			db, dbCloser, err := app.OpenDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer dbCloser.Close()

			l, ledgerCloser, err := app.OpenLedger(ctx, cfg, db, logger, nil)
			if err != nil {
				return err
			}
			defer ledgerCloser.Close()

			n, err := l.RevokeIssuedBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			logger.Info("token sweep completed", zap.Time("cutoff", cutoff), zap.Int64("revoked", n))
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
