package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"clinic/internal/config"
	"clinic/internal/database"
	"clinic/internal/ledger"
	"clinic/internal/metrics"
	jwtsvc "clinic/internal/pkg/jwt"
	"clinic/internal/repository"
	"clinic/internal/server"
	"clinic/migrations"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

type resourceCloser struct {
	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (r *resourceCloser) add(c io.Closer) { r.closers = append(r.closers, c) }

func (r *resourceCloser) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewLogger returns a production zap logger in prod-like environments and a
// development one otherwise.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProdLike() {
		zc = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// OpenDB connects and applies pending migrations.
func OpenDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, io.Closer, error) {
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve sql db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Up(ctx, sqlDB, DialectFor(cfg.DatabaseURL)); err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return db, sqlDB, nil
}

func DialectFor(dsn string) migrations.Dialect {
	if database.IsPostgres(dsn) {
		return migrations.Postgres
	}
	return migrations.SQLite
}

// OpenLedger builds the token ledger on the configured backend. The returned
// closer releases the redis client when one was opened.
func OpenLedger(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger, m *metrics.Metrics) (*ledger.Ledger, io.Closer, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendRedis:
		client, err := ledger.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("token ledger on redis", zap.String("addr", cfg.RedisAddr))
		return ledger.New(ledger.NewRedisStore(client), log, ledger.WithMetrics(m)), client, nil
	default:
		log.Info("token ledger on sql")
		return ledger.New(repository.NewSessionTokenRepository(db), log, ledger.WithMetrics(m)), closerFunc(func() error { return nil }), nil
	}
}

// NewServer wires storage, the ledger and the router into an http.Server.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*http.Server, io.Closer, error) {
	closer := &resourceCloser{}

	db, sqlDB, err := OpenDB(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closer.add(sqlDB)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	l, ledgerCloser, err := OpenLedger(ctx, cfg, db, log, m)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	closer.add(ledgerCloser)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(server.Deps{
		DB:          db,
		Ledger:      l,
		JWT:         jwtsvc.New(cfg.JWTSecret, cfg.SessionTTL, cfg.JWTIssuer),
		Log:         log,
		Metrics:     m,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
	})

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, closer, nil
}
