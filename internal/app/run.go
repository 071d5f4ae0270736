package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
	"git.home.luguber.info/inful/buildmatrix/internal/toolchain"
)

// RunApp runs the application registered under key. Program apps resolve against
// the build output directory and must have been built; script actions run in the
// project source root.
func RunApp(ctx context.Context, comp *Composition, key string, args []string, stdio toolchain.Stdio) error {
	a, ok := comp.Set.Apps.Get(key)
	if !ok {
		return errors.NotFoundError("no such app").
			WithContext(logfields.KeyKey, key).
			WithContext("apps", comp.Set.Apps.Keys()).
			Build()
	}

	dir := comp.Config.Project.SourceRoot
	if a.IsScript() {
		slog.Debug("Running script action", logfields.Key(key))
		return toolchain.RunScript(ctx, dir, a.Action.Script, args, stdio)
	}

	program := filepath.Join(comp.Config.Toolchain.OutputDir, filepath.FromSlash(a.Program))
	if abs, err := filepath.Abs(program); err == nil {
		program = abs
	}
	slog.Debug("Running app", logfields.Key(key), logfields.Path(program))
	return toolchain.RunProgram(ctx, dir, program, args, stdio)
}
