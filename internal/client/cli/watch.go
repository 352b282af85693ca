package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/confsync/internal/client/sync"
	"github.com/iudanet/confsync/internal/models"
)

// WatchOptions параметры фоновой синхронизации
type WatchOptions struct {
	Watch       func(ctx context.Context, onChange func()) error
	Metrics     prometheus.Gatherer
	MetricsAddr string
	Interval    time.Duration // Interval период опроса корня
	RetryBase   time.Duration // RetryBase первая задержка повтора после ошибки
}

// runWatch синхронизирует до отмены ctx: по таймеру, по уведомлениям
// транспорта и с экспоненциальной задержкой после неуспешного цикла.
func (c *Cli) runWatch(ctx context.Context, opts WatchOptions) error {
	if opts.Interval <= 0 {
		return errors.New("watch interval must be positive")
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}

	newBackoff := func() retry.Backoff {
		b := retry.NewExponential(opts.RetryBase)
		b = retry.WithCappedDuration(opts.Interval, b)
		return retry.WithJitterPercent(10, b)
	}
	backoff := newBackoff()

	trigger := sync.NewTrigger()
	trigger.Request()

	// cycle и onError вызываются из одной горутины trigger.Run
	cycle := func(ctx context.Context) error {
		result, err := c.engine.RunCycle(ctx)
		if err != nil {
			return err
		}
		backoff = newBackoff()
		c.io.Printf("[%s] synced: applied=%d published=%d degraded=%t\n",
			time.Now().Format(time.TimeOnly), result.Applied, result.Emitted, result.Degraded)
		return nil
	}
	onError := func(err error) {
		var tooNew *models.SchemaTooNewError
		if errors.As(err, &tooNew) {
			c.logger.Error("Sync root was written by a newer client, upgrade required", "error", err)
			return
		}
		delay, _ := backoff.Next()
		c.logger.Warn("Sync cycle failed, retrying", "error", err, "retry_in", delay)
		time.AfterFunc(delay, trigger.Request)
	}

	c.io.Printf("Watching sync root every %s (Ctrl+C to stop)\n", opts.Interval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return trigger.Run(gctx, cycle, onError)
	})
	g.Go(func() error {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				trigger.Request()
			}
		}
	})
	if opts.Watch != nil {
		g.Go(func() error {
			if err := opts.Watch(gctx, trigger.Request); err != nil {
				// Без уведомлений остается опрос по таймеру
				c.logger.Warn("Change notifications unavailable", "error", err)
			}
			return nil
		})
	}
	if opts.MetricsAddr != "" && opts.Metrics != nil {
		g.Go(func() error {
			return serveMetrics(gctx, opts.MetricsAddr, opts.Metrics)
		})
	}

	return g.Wait()
}

// serveMetrics отдает метрики циклов по /metrics до отмены ctx
func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
