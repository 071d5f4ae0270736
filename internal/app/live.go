package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
	"git.home.luguber.info/inful/buildmatrix/internal/metrics"
	"git.home.luguber.info/inful/buildmatrix/internal/notify"
)

// Reload triggers.
const (
	TriggerStartup  = "startup"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Live holds the composition currently served and replaces it on reload.
// Readers never observe a partially built composition; a failed reload keeps
// the previous one.
type Live struct {
	configPath string
	composer   *Composer
	publisher  notify.Publisher
	recorder   metrics.Recorder

	current atomic.Pointer[Composition]
	mu      sync.Mutex // serializes reloads
}

func NewLive(configPath string, composer *Composer, publisher notify.Publisher, recorder metrics.Recorder) *Live {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Live{configPath: configPath, composer: composer, publisher: publisher, recorder: recorder}
}

// Current returns the published composition, or nil before the first successful load.
func (l *Live) Current() *Composition { return l.current.Load() }

// ConfigPath is the file reloads read from; empty means the default lookup.
func (l *Live) ConfigPath() string { return l.configPath }

// Reload resolves the configuration again, composes it and publishes the result.
func (l *Live) Reload(ctx context.Context, trigger string) (*Composition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if trigger != TriggerStartup {
		l.recorder.IncReload(trigger)
	}

	cfg, source, err := config.Resolve(l.configPath)
	if err != nil {
		l.logKept(trigger, err)
		return nil, err
	}
	comp, err := l.composer.Compose(ctx, cfg, source)
	if err != nil {
		l.logKept(trigger, err)
		return nil, err
	}

	l.current.Store(comp)
	slog.Info("Published composition", logfields.CompositionID(comp.ID), slog.String("trigger", trigger))

	if err := l.publisher.Publish(ctx, comp.Event(trigger)); err != nil {
		slog.Warn("Failed to publish composition event", logfields.CompositionID(comp.ID), logfields.Error(err))
	}
	return comp, nil
}

// Set publishes comp directly, without reading configuration.
func (l *Live) Set(comp *Composition) {
	if comp == nil {
		return
	}
	l.current.Store(comp)
}

func (l *Live) logKept(trigger string, err error) {
	if prev := l.current.Load(); prev != nil {
		slog.Warn("Reload failed, keeping previous composition",
			logfields.CompositionID(prev.ID),
			slog.String("trigger", trigger),
			slog.String("category", string(errors.GetCategory(err))),
			logfields.Error(err))
	}
}
