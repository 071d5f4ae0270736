package toolchain

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// Shell is the interpreter used for hand-authored scripts.
const Shell = "/bin/sh"

// WriteScript materializes script as an executable at <outDir>/bin/<name>.
func WriteScript(outDir, name, script string) (string, error) {
	binDir := filepath.Join(outDir, "bin")
	if err := os.MkdirAll(binDir, 0o750); err != nil {
		return "", errors.FileSystemError("cannot create script directory").
			WithCause(err).
			WithContext(logfields.KeyPath, binDir).
			Build()
	}

	path := filepath.Join(binDir, name)
	body := "#!" + Shell + "\n" + script
	if len(script) == 0 || script[len(script)-1] != '\n' {
		body += "\n"
	}
	// #nosec G306 -- scripts must be executable
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		return "", errors.FileSystemError("cannot write script").
			WithCause(err).
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return path, nil
}

// Stdio bundles the streams handed to a child process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// RunScript runs script through the shell in dir, passing args as positional parameters.
func RunScript(ctx context.Context, dir, script string, args []string, stdio Stdio) error {
	argv := append([]string{"-c", script, "sh"}, args...)
	// #nosec G204 -- scripts come from the operator's configuration
	cmd := exec.CommandContext(ctx, Shell, argv...)
	return run(cmd, dir, stdio)
}

// RunProgram runs an executable in dir with args.
func RunProgram(ctx context.Context, dir, program string, args []string, stdio Stdio) error {
	if _, err := os.Stat(program); err != nil {
		return errors.NotFoundError("program has not been built").
			WithCause(err).
			WithContext(logfields.KeyPath, program).
			Build()
	}
	// #nosec G204 -- program path is resolved from the composed registry
	cmd := exec.CommandContext(ctx, program, args...)
	return run(cmd, dir, stdio)
}

func run(cmd *exec.Cmd, dir string, stdio Stdio) error {
	cmd.Dir = dir
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err
	if err := cmd.Run(); err != nil {
		return errors.RuntimeError("process exited with an error").
			WithCause(err).
			WithContext("command", cmd.Path).
			Build()
	}
	return nil
}
