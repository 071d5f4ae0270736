package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// DefaultArtifactDir is where cargo leaves release binaries, relative to the source root.
const DefaultArtifactDir = "target/release"

// maxOutputContext bounds how much toolchain output is attached to an error.
const maxOutputContext = 4096

// CommandBuilder runs Command with Args followed by the request's build options in
// the source root. Args may reference {out}, {source}, {name} and {version}.
//
// Any executable left at <out>/<entry point> by an earlier build is removed first.
// When the command does not place a new one there itself, it is collected from
// ArtifactDir under the source root.
type CommandBuilder struct {
	Command     string
	Args        []string
	Env         []string
	ArtifactDir string
}

func (b *CommandBuilder) Build(ctx context.Context, req Request) (*Result, error) {
	bin, err := exec.LookPath(b.Command)
	if err != nil {
		return nil, errors.BuildError("build toolchain not found").
			WithCause(err).
			WithContext("command", b.Command).
			WithContext("name", req.Name).
			Build()
	}

	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return nil, errors.FileSystemError("cannot resolve output directory").WithCause(err).Build()
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, errors.FileSystemError("cannot create output directory").
			WithCause(err).
			WithContext(logfields.KeyPath, outDir).
			Build()
	}

	r := strings.NewReplacer("{out}", outDir, "{source}", req.SourceRoot, "{name}", req.Name, "{version}", req.Version)
	args := make([]string, 0, len(b.Args)+len(req.Options))
	for _, a := range b.Args {
		args = append(args, r.Replace(a))
	}
	args = append(args, req.Options...)

	exe := filepath.Join(outDir, filepath.FromSlash(req.EntryPoint))
	if err := os.Remove(exe); err != nil && !os.IsNotExist(err) {
		return nil, errors.FileSystemError("cannot remove previous executable").
			WithCause(err).
			WithContext(logfields.KeyPath, exe).
			Build()
	}

	// #nosec G204 -- command comes from the operator's configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = req.SourceRoot
	cmd.Env = append(os.Environ(), b.Env...)
	cmd.Env = append(cmd.Env,
		"OUT="+outDir,
		"BUILDMATRIX_NAME="+req.Name,
		"BUILDMATRIX_VERSION="+req.Version,
	)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Debug("Running build toolchain",
		"command", b.Command,
		"args", args,
		"dir", req.SourceRoot,
		logfields.KeyName, req.Name)

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		return nil, errors.BuildError("build failed").
			WithCause(runErr).
			WithContext("name", req.Name).
			WithContext("output", tail(output.String(), maxOutputContext)).
			Build()
	}

	if _, err := os.Stat(exe); err != nil {
		if err := b.collect(req, exe); err != nil {
			return nil, err
		}
	}

	return &Result{Executable: exe, Duration: elapsed, Output: output.String()}, nil
}

func (b *CommandBuilder) collect(req Request, dest string) error {
	dir := b.ArtifactDir
	if dir == "" {
		dir = DefaultArtifactDir
	}
	src := filepath.Join(req.SourceRoot, dir, filepath.Base(dest))
	if err := copyExecutable(src, dest); err != nil {
		return errors.BuildError("build produced no executable").
			WithCause(err).
			WithContext("name", req.Name).
			WithContext("expected", dest).
			Build()
	}
	return nil
}

func copyExecutable(src, dest string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	// #nosec G302 -- build outputs must be executable
	out, err := os.OpenFile(filepath.Clean(dest), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// NoopBuilder reports the executable location without building anything.
type NoopBuilder struct{}

func (NoopBuilder) Build(_ context.Context, req Request) (*Result, error) {
	slog.Debug("NoopBuilder skipping build", logfields.KeyName, req.Name)
	return &Result{Executable: filepath.Join(req.OutputDir, filepath.FromSlash(req.EntryPoint))}, nil
}
