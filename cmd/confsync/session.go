package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/confsync/internal/client/api"
	"github.com/iudanet/confsync/internal/client/auth"
	"github.com/iudanet/confsync/internal/client/cli"
	"github.com/iudanet/confsync/internal/client/storage/boltdb"
	"github.com/iudanet/confsync/internal/client/sync"
	"github.com/iudanet/confsync/internal/config"
	"github.com/iudanet/confsync/internal/metrics"
	"github.com/iudanet/confsync/internal/transport"
)

// openSession открывает локальное хранилище, транспорт и координатор
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cli.Session, error) {
	store, err := boltdb.New(ctx, cfg.Device.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	session, err := newSession(ctx, cfg, logger, store)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return session, nil
}

func newSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *boltdb.Storage) (*cli.Session, error) {
	deviceID, err := store.EnsureDeviceID(ctx)
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(store, deviceID)

	session := &cli.Session{
		Auth:  authService,
		Close: store.Close,
	}

	var tr transport.Transport
	switch cfg.Transport.Kind {
	case config.TransportDir:
		dir, err := transport.NewDirStore(cfg.Transport.Dir.Path)
		if err != nil {
			return nil, err
		}
		tr = transport.NewBlob(dir, logger)
		session.Watch = transport.NewWatcher(dir, deviceID, logger).Run

	case config.TransportS3:
		s3cfg := cfg.Transport.S3
		s3store, err := transport.NewS3Store(ctx, transport.S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			Prefix:          s3cfg.Prefix,
			UsePathStyle:    s3cfg.UsePathStyle,
			MaxRetries:      s3cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		tr = transport.NewBlob(s3store, logger)

	case config.TransportHTTP:
		token := cfg.Transport.HTTP.Token
		if token == "" {
			// Токен из login; без него сервер ответит 401 на первом запросе
			token, err = authService.Token(ctx)
			if err != nil {
				logger.Warn("Saved relay token is unusable, run 'confsync login'", "error", err)
			}
		}
		tr = api.NewClient(cfg.Transport.HTTP.URL, token, logger)

	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}

	reg := prometheus.NewRegistry()
	coordinator, err := sync.New(ctx, sync.Config{
		CycleTimeout:     cfg.Sync.CycleTimeout,
		PublishTimeout:   cfg.Sync.PublishTimeout,
		CompactThreshold: cfg.Sync.CompactThreshold,
		FetchParallelism: cfg.Sync.FetchParallelism,
		MergeParallelism: cfg.Sync.MergeParallelism,
	}, tr, store, logger)
	if err != nil {
		return nil, err
	}

	session.Engine = coordinator.WithMetrics(metrics.NewSync(reg))
	session.Metrics = reg
	return session, nil
}
