package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
	"git.home.luguber.info/inful/buildmatrix/internal/metrics"
	"git.home.luguber.info/inful/buildmatrix/internal/notify"
	"git.home.luguber.info/inful/buildmatrix/internal/schedule"
	"git.home.luguber.info/inful/buildmatrix/internal/server"
	"git.home.luguber.info/inful/buildmatrix/internal/watch"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `help:"Listen address (overrides server.addr)"`
	NoWatch bool   `help:"Do not reload when the configuration file changes"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, source, err := root.loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	publisher, err := newPublisher(cfg.Notify)
	if err != nil {
		return err
	}
	defer publisher.Close()

	composer := app.NewComposer(app.WithRecorder(recorder))
	live := app.NewLive(root.Config, composer, publisher, recorder)

	// A broken configuration at startup is fatal; later failures keep the last good composition.
	comp, err := composer.Compose(ctx, cfg, source)
	if err != nil {
		return err
	}
	live.Set(comp)
	if err := publisher.Publish(ctx, comp.Event(app.TriggerStartup)); err != nil {
		slog.Warn("Failed to publish composition event", logfields.Error(err))
	}

	addr := cfg.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	srv := server.New(addr, live, server.WithMetrics(cfg.Server.MetricsPath, metrics.HTTPHandler(reg)))
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if watcher := s.startWatcher(ctx, cfg, source, live); watcher != nil {
		defer watcher.Stop()
	}

	if interval := cfg.Server.RefreshDuration(); interval > 0 {
		sched, err := schedule.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRecompose(ctx, interval, func(ctx context.Context) error {
			_, err := live.Reload(ctx, app.TriggerSchedule)
			return err
		}); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	slog.Info("Serving build matrix", slog.String("addr", addr), logfields.CompositionID(comp.ID))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping server...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	return srv.Shutdown(stopCtx)
}

// startWatcher watches the configuration file when there is one.
func (s *ServeCmd) startWatcher(ctx context.Context, cfg *config.Config, source string, live *app.Live) *watch.ConfigWatcher {
	if s.NoWatch || !cfg.Server.WatchEnabled() || source == config.BuiltinSource {
		return nil
	}
	if _, err := os.Stat(source); err != nil {
		return nil
	}
	watcher, err := watch.NewConfigWatcher(source, func(ctx context.Context) error {
		_, err := live.Reload(ctx, app.TriggerWatch)
		return err
	})
	if err != nil {
		slog.Warn("Config watching disabled", logfields.Error(err))
		return nil
	}
	if err := watcher.Start(ctx); err != nil {
		slog.Warn("Config watching disabled", logfields.Error(err))
		return nil
	}
	return watcher
}

func newPublisher(cfg *config.NotifyConfig) (notify.Publisher, error) {
	if cfg == nil || cfg.NATSURL == "" {
		return notify.NoopPublisher{}, nil
	}
	p, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.Subject)
	if err != nil {
		return nil, err
	}
	return p, nil
}
