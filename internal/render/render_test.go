package render

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"git.home.luguber.info/inful/buildmatrix/internal/artifact"
	"git.home.luguber.info/inful/buildmatrix/internal/compose"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/history"
	"git.home.luguber.info/inful/buildmatrix/internal/matrix"
	"git.home.luguber.info/inful/buildmatrix/internal/util/sets"
	"git.home.luguber.info/inful/buildmatrix/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func dcompassSet(t *testing.T) *compose.Set {
	t.Helper()
	reg, err := variant.NewRegistry(variant.DefaultIDs()...)
	require.NoError(t, err)
	m, err := matrix.Expand(context.Background(), reg, &artifact.Generator{
		Project:    "dcompass",
		Version:    "git",
		SourceRoot: ".",
		Normalizer: artifact.Normalizer{Prefix: "geoip-"},
	})
	require.NoError(t, err)
	set, err := compose.Compose(m, compose.Options{
		AuxiliaryPackages: []compose.AuxiliaryTool{{Name: "commit", Script: "git commit"}},
		AuxiliaryApps:     []compose.ScriptAction{{Name: "update", Description: "Refresh | data", Script: "wget"}},
		CheckExclusions:   sets.New("commit"),
		Default:           "maxmind",
		OverlayNamespace:  "dcompass",
	})
	require.NoError(t, err)
	return set
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, " table ": FormatTable} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestSet_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Set(&buf, dcompassSet(t), FormatJSON))

	var decoded struct {
		Packages map[string]json.RawMessage `json:"packages"`
		Apps     map[string]struct {
			Type    string `json:"type"`
			Program string `json:"program"`
		} `json:"apps"`
		Checks  map[string]json.RawMessage `json:"checks"`
		Default string                     `json:"default"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Packages, 3)
	assert.Len(t, decoded.Checks, 2)
	assert.Equal(t, "maxmind", decoded.Default)
	assert.Equal(t, "app", decoded.Apps["cn"].Type)
	assert.Equal(t, "cn/bin/dcompass", decoded.Apps["cn"].Program)
}

func TestOverlay_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Overlay(&buf, dcompassSet(t).Overlay, FormatYAML))

	var decoded struct {
		Namespace string                    `yaml:"namespace"`
		Packages  map[string]map[string]any `yaml:"packages"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "dcompass", decoded.Namespace)
	assert.Contains(t, decoded.Packages, "commit")
	assert.Equal(t, "artifact", decoded.Packages["maxmind"]["kind"])
}

func TestSet_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Set(&buf, dcompassSet(t), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "PACKAGES")
	assert.Contains(t, out, "dcompass-geoip-maxmind")
	assert.Contains(t, out, "cn/bin/dcompass")
	assert.Contains(t, out, "DEFAULT  maxmind")
}

func TestSingleEntries(t *testing.T) {
	set := dcompassSet(t)

	var buf bytes.Buffer
	p, _ := set.Packages.Get("cn")
	require.NoError(t, Package(&buf, p, FormatTable))
	assert.Contains(t, buf.String(), "--features geoip-cn")

	buf.Reset()
	a, _ := set.Apps.Get("update")
	require.NoError(t, App(&buf, a, FormatTable))
	assert.Contains(t, buf.String(), "wget")

	buf.Reset()
	require.NoError(t, Packages(&buf, set.Checks, FormatJSON))
	assert.NotContains(t, buf.String(), "commit")

	buf.Reset()
	require.NoError(t, Apps(&buf, set.Apps, FormatYAML))
	assert.Contains(t, buf.String(), "update:")
}

func TestHistory(t *testing.T) {
	recs := []history.Record{{
		BuildID: "b1", Key: "cn", Version: "git-abc1234", Result: history.ResultSuccess,
		StartedAt: time.Unix(1700000000, 0), Duration: 1500 * time.Millisecond,
	}}

	var buf bytes.Buffer
	require.NoError(t, History(&buf, recs, FormatTable))
	assert.Contains(t, buf.String(), "git-abc1234")
	assert.Contains(t, buf.String(), "1.5s")

	buf.Reset()
	require.NoError(t, History(&buf, nil, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}

func TestHTML(t *testing.T) {
	page, err := HTML(dcompassSet(t), Summary{
		Project:       "dcompass",
		Version:       "git-abc1234",
		CompositionID: "c-1",
		Source:        "built-in",
		ComposedAt:    time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<h1>dcompass build matrix</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `href="/packages/maxmind"`)
	assert.Contains(t, html, "(default)")
	assert.Contains(t, html, "Refresh | data")
}
