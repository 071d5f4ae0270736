package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
)

// demoConfig builds with a shell one-liner that drops an executable at <out>/bin/demo.
const demoConfig = `version: "1.0"
project:
  name: demo
  version: "0.3.0"
variants:
  ids: [feat-a, feat-b]
  strip_prefix: feat-
packages:
  auxiliary:
    - name: fmt
      script: echo formatting
apps:
  auxiliary:
    - name: hello
      script: echo "hello $1"
checks:
  exclude: [fmt]
toolchain:
  command: sh
  args:
    - -c
    - mkdir -p {out}/bin && printf '#!/bin/sh\necho built {name}\n' > {out}/bin/demo && chmod +x {out}/bin/demo
`

// runCLI executes args in a fresh working directory and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := NewParser(cli,
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
		kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	g := &Global{Logger: slog.Default(), Stdin: strings.NewReader(""), Stdout: &out, Stderr: &out}
	err = ctx.Run(g, cli)
	return out.String(), err
}

func inTempDir(t *testing.T, cfg string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	if cfg != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultPath), []byte(cfg), 0o600))
	}
}

func TestValidate_Builtin(t *testing.T) {
	inTempDir(t, "")

	out, err := runCLI(t, "validate")
	require.NoError(t, err)
	assert.Equal(t, ValidMessage+"\n", out)
}

func TestValidate_DuplicateKey(t *testing.T) {
	inTempDir(t, `version: "1.0"
project:
  name: demo
variants:
  ids: [geoip-x, x]
  strip_prefix: geoip-
`)

	_, err := runCLI(t, "validate")
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateKey(err))
	assert.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestValidate_MissingExplicitConfig(t *testing.T) {
	inTempDir(t, "")

	_, err := runCLI(t, "-c", "missing.yaml", "validate")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInit_RefusesOverwrite(t *testing.T) {
	inTempDir(t, "")

	out, err := runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.DefaultPath)
	assert.FileExists(t, config.DefaultPath)

	_, err = runCLI(t, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = runCLI(t, "init", "--force")
	require.NoError(t, err)
}

func TestCompose_JSON(t *testing.T) {
	inTempDir(t, "")

	out, err := runCLI(t, "compose", "--format", "json")
	require.NoError(t, err)

	var got struct {
		Packages map[string]json.RawMessage `json:"packages"`
		Checks   map[string]json.RawMessage `json:"checks"`
		Default  string                     `json:"default"`
		Overlay  struct {
			Namespace string `json:"namespace"`
		} `json:"overlay"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Packages, 3)
	assert.Contains(t, got.Packages, "commit")
	assert.Len(t, got.Checks, 2)
	assert.NotContains(t, got.Checks, "commit")
	assert.Equal(t, "maxmind", got.Default)
	assert.Equal(t, "dcompass", got.Overlay.Namespace)
	assert.Less(t, strings.Index(out, `"maxmind"`), strings.Index(out, `"cn"`))
}

func TestCompose_OverlayYAML(t *testing.T) {
	inTempDir(t, "")

	out, err := runCLI(t, "compose", "--overlay", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "namespace: dcompass")
	assert.Contains(t, out, "maxmind:")
}

func TestCompose_UnknownFormat(t *testing.T) {
	inTempDir(t, "")

	_, err := runCLI(t, "compose", "--format", "xml")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestShow(t *testing.T) {
	inTempDir(t, "")

	out, err := runCLI(t, "show", "packages", "cn", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"--features"`)
	assert.Contains(t, out, `"geoip-cn"`)

	out, err = runCLI(t, "show", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "dcompass-geoip-maxmind")

	out, err = runCLI(t, "show", "apps")
	require.NoError(t, err)
	assert.Contains(t, out, "update")

	_, err = runCLI(t, "show", "checks", "commit")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = runCLI(t, "show", "packages", "geoip-cn")
	assert.True(t, errors.IsNotFound(err), "lookup is by exact key only")
}

func TestBuildRunHistory(t *testing.T) {
	inTempDir(t, demoConfig)

	out, err := runCLI(t, "build", "--checks", "-f", "json")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0]["key"])
	assert.Equal(t, "b", records[1]["key"])
	assert.Equal(t, "success", records[0]["result"])

	out, err = runCLI(t, "run", "b")
	require.NoError(t, err)
	assert.Equal(t, "built demo-feat-b\n", out)

	out, err = runCLI(t, "run", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	_, err = runCLI(t, "build", "fmt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(config.DefaultOutputDir, "fmt", "bin", "fmt"))

	out, err = runCLI(t, "history", "-f", "json")
	require.NoError(t, err)
	records = nil
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 3)

	out, err = runCLI(t, "history", "--key", "a", "-f", "json")
	require.NoError(t, err)
	records = nil
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "0.3.0", records[0]["version"])
}

func TestBuild_UnknownKey(t *testing.T) {
	inTempDir(t, demoConfig)

	_, err := runCLI(t, "build", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestBuild_KeysWithAllRejected(t *testing.T) {
	inTempDir(t, demoConfig)

	_, err := runCLI(t, "build", "--all", "a")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.NoFileExists(t, config.DefaultHistoryPath)
}

func TestRun_NotBuilt(t *testing.T) {
	inTempDir(t, demoConfig)

	_, err := runCLI(t, "run", "a")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "buildmatrix "))
}
