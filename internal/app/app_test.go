package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/history"
	"git.home.luguber.info/inful/buildmatrix/internal/metrics"
	"git.home.luguber.info/inful/buildmatrix/internal/notify"
	"git.home.luguber.info/inful/buildmatrix/internal/toolchain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[metrics.ResultLabel]int
	sizes    map[string]int
	builds   map[string]bool
	reloads  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes: map[metrics.ResultLabel]int{},
		sizes:    map[string]int{},
		builds:   map[string]bool{},
		reloads:  map[string]int{},
	}
}

func (r *countingRecorder) IncCompositionOutcome(l metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[l]++
}

func (r *countingRecorder) SetRegistrySize(name string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sizes[name] = n
}

func (r *countingRecorder) ObserveBuildDuration(key string, _ time.Duration, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds[key] = ok
}

func (r *countingRecorder) IncReload(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloads[trigger]++
}

func builtinConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, _, err := config.Resolve("")
	require.NoError(t, err)
	cfg.Toolchain.OutputDir = filepath.Join(t.TempDir(), "result")
	return cfg
}

func TestComposer_Builtin(t *testing.T) {
	rec := newCountingRecorder()
	comp, err := NewComposer(WithRecorder(rec)).Compose(context.Background(), builtinConfig(t), config.BuiltinSource)
	require.NoError(t, err)

	_, err = uuid.Parse(comp.ID)
	require.NoError(t, err)
	assert.Equal(t, "git", comp.Version)
	assert.Equal(t, []string{"maxmind", "cn", "commit"}, comp.Set.Packages.Keys())
	assert.Equal(t, []string{"maxmind", "cn"}, comp.Set.Checks.Keys())
	assert.Equal(t, "maxmind", comp.Set.DefaultKey)
	assert.Equal(t, 1, rec.outcomes[metrics.ResultSuccess])
	assert.Equal(t, 3, rec.sizes["packages"])
	assert.Equal(t, 2, rec.sizes["checks"])

	ev := comp.Event(TriggerWatch)
	assert.Equal(t, comp.ID, ev.CompositionID)
	assert.Equal(t, "dcompass", ev.Overlay)
	assert.Equal(t, TriggerWatch, ev.Trigger)

	sum := comp.Summary()
	assert.Equal(t, "dcompass", sum.Project)
	assert.Equal(t, config.BuiltinSource, sum.Source)
}

func TestComposer_DuplicateKey(t *testing.T) {
	cfg := builtinConfig(t)
	cfg.Variants.IDs = []string{"geoip-x", "x"}
	cfg.Default = "x"
	rec := newCountingRecorder()

	comp, err := NewComposer(WithRecorder(rec)).Compose(context.Background(), cfg, "test")
	require.Error(t, err)
	assert.Nil(t, comp)
	assert.True(t, errors.IsDuplicateKey(err))
	assert.Equal(t, 1, rec.outcomes[metrics.ResultFailed])
}

func TestComposer_ResolveVersionOutsideRepository(t *testing.T) {
	cfg := builtinConfig(t)
	cfg.Project.ResolveVersion = true
	cfg.Project.SourceRoot = t.TempDir()

	_, err := NewComposer().Compose(context.Background(), cfg, "test")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestSelection_Resolve(t *testing.T) {
	comp, err := NewComposer().Compose(context.Background(), builtinConfig(t), "test")
	require.NoError(t, err)

	keys, err := Selection{}.Resolve(comp.Set)
	require.NoError(t, err)
	assert.Equal(t, []string{"maxmind"}, keys)

	keys, err = Selection{All: true}.Resolve(comp.Set)
	require.NoError(t, err)
	assert.Equal(t, []string{"maxmind", "cn", "commit"}, keys)

	keys, err = Selection{Checks: true}.Resolve(comp.Set)
	require.NoError(t, err)
	assert.Equal(t, []string{"maxmind", "cn"}, keys)

	keys, err = Selection{Keys: []string{"cn", "maxmind", "cn"}}.Resolve(comp.Set)
	require.NoError(t, err)
	assert.Equal(t, []string{"cn", "maxmind"}, keys)

	_, err = Selection{Keys: []string{"cn", "geoip-cn"}}.Resolve(comp.Set)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSelection_RejectsKeysWithAllOrChecks(t *testing.T) {
	comp, err := NewComposer().Compose(context.Background(), builtinConfig(t), "test")
	require.NoError(t, err)

	for _, sel := range []Selection{
		{All: true, Keys: []string{"cn"}},
		{Checks: true, Keys: []string{"commit"}},
	} {
		_, err := sel.Resolve(comp.Set)
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	}
}

type failingBuilder struct{ fail string }

func (f failingBuilder) Build(ctx context.Context, req toolchain.Request) (*toolchain.Result, error) {
	if req.Name == f.fail {
		return nil, errors.BuildError("build failed").WithCause(context.DeadlineExceeded).Build()
	}
	return toolchain.NoopBuilder{}.Build(ctx, req)
}

func TestBuildService_RecordsEveryAttempt(t *testing.T) {
	cfg := builtinConfig(t)
	comp, err := NewComposer().Compose(context.Background(), cfg, "test")
	require.NoError(t, err)

	store, err := history.NewSQLiteStore(history.MemoryPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	rec := newCountingRecorder()

	svc := NewBuildService(failingBuilder{fail: "dcompass-geoip-cn"}, store, rec)
	records, err := svc.Build(context.Background(), comp, comp.Set.Packages.Keys())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
	require.Len(t, records, 3)

	assert.Equal(t, history.ResultSuccess, records[0].Result)
	assert.Equal(t, filepath.Join(cfg.Toolchain.OutputDir, "maxmind", "bin", "dcompass"), records[0].Executable)
	assert.Equal(t, history.ResultFailed, records[1].Result)
	assert.Contains(t, records[1].Error, "build failed")
	assert.Equal(t, history.ResultSuccess, records[2].Result)
	assert.False(t, rec.builds["cn"])
	assert.True(t, rec.builds["maxmind"])

	script, err := os.ReadFile(records[2].Executable)
	require.NoError(t, err)
	assert.Contains(t, string(script), "git commit")

	stored, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	for _, r := range stored {
		assert.Equal(t, comp.ID, r.CompositionID)
	}
}

func TestRunApp(t *testing.T) {
	cfg := builtinConfig(t)
	cfg.Project.SourceRoot = t.TempDir()
	cfg.Apps.Auxiliary[0].Script = `echo "updating $1"`
	comp, err := NewComposer().Compose(context.Background(), cfg, "test")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunApp(context.Background(), comp, "update", []string{"now"}, toolchain.Stdio{Out: &out}))
	assert.Equal(t, "updating now\n", out.String())

	err = RunApp(context.Background(), comp, "maxmind", nil, toolchain.Stdio{})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "program must be built first")

	err = RunApp(context.Background(), comp, "commit", nil, toolchain.Stdio{})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "commit is a package, not an app")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() {}

func TestLive_ReloadKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildmatrix.yaml")
	require.NoError(t, config.Init(path, false))
	cfgBody, err := os.ReadFile(path)
	require.NoError(t, err)
	// Init enables git version resolution; the temp dir is no repository.
	require.NoError(t, os.WriteFile(path, bytes.ReplaceAll(cfgBody, []byte("resolve_version: true"), []byte("resolve_version: false")), 0o600))

	pub := &recordingPublisher{}
	rec := newCountingRecorder()
	live := NewLive(path, NewComposer(), pub, rec)
	assert.Nil(t, live.Current())

	first, err := live.Reload(context.Background(), TriggerStartup)
	require.NoError(t, err)
	assert.Same(t, first, live.Current())

	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nproject:\n  name: broken\n"), 0o600))
	_, err = live.Reload(context.Background(), TriggerWatch)
	require.Error(t, err)
	assert.Same(t, first, live.Current(), "failed reload keeps the published composition")

	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nproject:\n  name: other\nvariants:\n  ids: [a]\n"), 0o600))
	second, err := live.Reload(context.Background(), TriggerSchedule)
	require.NoError(t, err)
	assert.Same(t, second, live.Current())
	assert.Equal(t, []string{"a"}, second.Set.Packages.Keys())

	require.Len(t, pub.events, 2)
	assert.Equal(t, TriggerStartup, pub.events[0].Trigger)
	assert.Equal(t, TriggerSchedule, pub.events[1].Trigger)
	assert.Equal(t, 1, rec.reloads[TriggerWatch])
	assert.Equal(t, 1, rec.reloads[TriggerSchedule])
	assert.Zero(t, rec.reloads[TriggerStartup])
}
