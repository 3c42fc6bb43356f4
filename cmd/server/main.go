package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/DoyleJ11/versus-room/internal/config"
	"github.com/DoyleJ11/versus-room/internal/diff"
	"github.com/DoyleJ11/versus-room/internal/httpapi"
	"github.com/DoyleJ11/versus-room/internal/hub"
	"github.com/DoyleJ11/versus-room/internal/seat"
	"github.com/DoyleJ11/versus-room/internal/store"
	"github.com/DoyleJ11/versus-room/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var st store.Store
	if cfg.DBDSN != "" {
		pool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer pool.Close()

		snapshots := postgres.NewSnapshotsStore(pool)
		if err := snapshots.Migrate(context.Background()); err != nil {
			logger.Fatal("db migrate failed", zap.Error(err))
		}
		st = snapshots
		logger.Info("snapshots in postgres")
	} else {
		fs, err := store.NewFileStore(afero.NewOsFs(), cfg.DataDir)
		if err != nil {
			logger.Fatal("data dir unusable", zap.String("dir", cfg.DataDir), zap.Error(err))
		}
		st = fs
		logger.Info("snapshots on disk", zap.String("dir", cfg.DataDir))
	}

	ref, err := seat.ReadyReference()
	if err != nil {
		logger.Fatal("ready badge unreadable", zap.Error(err))
	}
	engine := diff.NewEngine(seat.NewAnalyzer(ref), cfg.Thresholds, logger.Named("diff"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, hub.Options{Store: st, Settings: cfg.Settings, Log: logger.Named("hub")})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(httpapi.Options{Hub: h, Diff: engine, Log: logger.Named("http")}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("env", cfg.Env), zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
		logger.Info("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProd() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
