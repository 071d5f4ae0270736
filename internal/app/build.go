package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/buildmatrix/internal/compose"
	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/history"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
	"git.home.luguber.info/inful/buildmatrix/internal/metrics"
	"git.home.luguber.info/inful/buildmatrix/internal/toolchain"
	"git.home.luguber.info/inful/buildmatrix/internal/util/sets"
)

// NewToolchainBuilder builds the configured toolchain command.
func NewToolchainBuilder(cfg config.ToolchainConfig) *toolchain.CommandBuilder {
	return &toolchain.CommandBuilder{
		Command:     cfg.Command,
		Args:        cfg.Args,
		Env:         cfg.Env,
		ArtifactDir: cfg.ArtifactDir,
	}
}

// Selection chooses which packages a build covers.
type Selection struct {
	Keys   []string
	All    bool
	Checks bool
}

// Resolve returns the package keys to build. With nothing selected the default
// package is built. Explicit keys cannot be combined with All or Checks, repeated
// keys are built once in first-seen order, and unknown keys are not-found errors.
func (s Selection) Resolve(set *compose.Set) ([]string, error) {
	if len(s.Keys) > 0 && (s.All || s.Checks) {
		return nil, errors.ValidationError("package keys cannot be combined with --all or --checks").
			WithContext("keys", s.Keys).
			Build()
	}
	switch {
	case s.Checks:
		return set.Checks.Keys(), nil
	case s.All:
		return set.Packages.Keys(), nil
	case len(s.Keys) == 0:
		return []string{set.DefaultKey}, nil
	}

	seen := sets.New[string]()
	keys := make([]string, 0, len(s.Keys))
	for _, k := range s.Keys {
		if !set.Packages.Has(k) {
			return nil, errors.NotFoundError("no such package").
				WithContext(logfields.KeyKey, k).
				WithContext("packages", set.Packages.Keys()).
				Build()
		}
		if seen.Has(k) {
			continue
		}
		seen.Add(k)
		keys = append(keys, k)
	}
	return keys, nil
}

// BuildService builds package entries and records every attempt.
type BuildService struct {
	builder  toolchain.Builder
	store    history.Store
	recorder metrics.Recorder
	now      func() time.Time
}

func NewBuildService(builder toolchain.Builder, store history.Store, recorder metrics.Recorder) *BuildService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &BuildService{builder: builder, store: store, recorder: recorder, now: time.Now}
}

// Build builds keys in order. A failing package does not stop the others; the
// returned error joins every failure.
func (s *BuildService) Build(ctx context.Context, comp *Composition, keys []string) ([]history.Record, error) {
	outRoot := comp.Config.Toolchain.OutputDir
	records := make([]history.Record, 0, len(keys))
	var errs []error

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		pkg, ok := comp.Set.Packages.Get(key)
		if !ok {
			errs = append(errs, errors.NotFoundError("no such package").WithContext(logfields.KeyKey, key).Build())
			continue
		}

		rec, err := s.buildOne(ctx, comp, pkg, filepath.Join(outRoot, key))
		if err != nil {
			errs = append(errs, err)
		}
		if s.store != nil {
			if err := s.store.Record(ctx, rec); err != nil {
				slog.Warn("Failed to record build", logfields.BuildID(rec.BuildID), logfields.Error(err))
			}
		}
		records = append(records, rec)
	}

	return records, stderrors.Join(errs...)
}

func (s *BuildService) buildOne(ctx context.Context, comp *Composition, pkg *compose.Package, outDir string) (history.Record, error) {
	rec := history.Record{
		BuildID:       history.NewBuildID(),
		CompositionID: comp.ID,
		Key:           pkg.Key,
		Name:          pkg.Name(),
		Version:       comp.Version,
		StartedAt:     s.now(),
	}
	log := slog.With(logfields.BuildID(rec.BuildID), logfields.Key(pkg.Key))

	var (
		exe string
		err error
	)
	switch pkg.Kind {
	case compose.KindTool:
		log.Info("Writing auxiliary script")
		exe, err = toolchain.WriteScript(outDir, pkg.Tool.Name, pkg.Tool.Script)
	default:
		log.Info("Building package", logfields.Name(pkg.Name()))
		var res *toolchain.Result
		res, err = s.builder.Build(ctx, toolchain.Request{
			Name:       pkg.Artifact.Name,
			Version:    pkg.Artifact.Version,
			SourceRoot: pkg.Artifact.SourceRoot,
			Options:    pkg.Artifact.Options,
			EntryPoint: pkg.Artifact.EntryPoint,
			OutputDir:  outDir,
		})
		if res != nil {
			exe = res.Executable
		}
	}

	rec.Duration = s.now().Sub(rec.StartedAt)
	s.recorder.ObserveBuildDuration(pkg.Key, rec.Duration, err == nil)
	if err != nil {
		rec.Result = history.ResultFailed
		rec.Error = err.Error()
		log.Error("Build failed", logfields.Error(err))
		return rec, err
	}
	rec.Result = history.ResultSuccess
	rec.Executable = exe
	log.Info("Build complete", logfields.Path(exe), logfields.DurationMS(float64(rec.Duration.Milliseconds())))
	return rec, nil
}
