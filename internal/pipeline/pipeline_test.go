package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/figclass/internal/composite"
	"github.com/fyrsmithlabs/figclass/internal/config"
	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/design"
	dt "github.com/fyrsmithlabs/figclass/internal/design/designtest"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/telemetry"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

const pageDoc = `{
	"document": {
		"id": "1:1", "name": "Landing", "type": "FRAME",
		"x": 0, "y": 0, "width": 1440, "height": 900, "layoutMode": "VERTICAL",
		"children": [
			{"id": "1:2", "name": "w:heading", "type": "TEXT", "x": 0, "y": 0, "width": 400, "height": 40,
			 "characters": "Welcome", "fontSize": 40, "fontName": {"family": "Inter", "style": "Bold"}},
			{"id": "1:3", "name": "w:button Buy", "type": "FRAME", "x": 0, "y": 80, "width": 160, "height": 48,
			 "layoutMode": "HORIZONTAL", "cornerRadius": 8,
			 "fills": [{"type": "SOLID", "color": {"r": 0, "g": 0.4, "b": 1}}],
			 "children": [
				{"id": "1:4", "name": "Label", "type": "TEXT", "x": 24, "y": 12, "width": 100, "height": 22,
				 "characters": "Buy now", "fontSize": 16}
			 ]}
		]
	}
}`

func fixedRunID(p *Pipeline) *Pipeline {
	p.newRunID = func() string { return "run-1" }
	return p
}

func TestRun_ProducesSchema(t *testing.T) {
	p := fixedRunID(New(nil, nil))

	out, err := p.RunReader(context.Background(), strings.NewReader(pageDoc))
	require.NoError(t, err)

	assert.Equal(t, "Landing", out.Schema.Page.Title)
	assert.Equal(t, "run-1", out.RunID)
	require.Len(t, out.Schema.Containers, 1)
	assert.Empty(t, out.Missing)

	root := out.Schema.Containers[0]
	assert.Equal(t, "1:1", root.ID)
	require.NotEmpty(t, root.Widgets)
	assert.Equal(t, widget.KindHeading, root.Widgets[0].Kind)
	assert.Equal(t, "Welcome", root.Widgets[0].Content)
	require.Len(t, out.Analyses, 2)
	assert.Equal(t, widget.KindButton, out.Analyses[1].Kind())
	require.Len(t, root.Widgets, 2)
	assert.Equal(t, "Buy now", root.Widgets[1].Content)
}

func TestRun_AppliesComposites(t *testing.T) {
	p := New(nil, nil)

	out, err := p.Run(context.Background(), dt.Page(dt.IconList("perks", 3)))
	require.NoError(t, err)

	root := out.Schema.Containers[0]
	require.Len(t, root.Widgets, 1)
	assert.Equal(t, widget.KindIconList, root.Widgets[0].Kind)
	assert.Len(t, root.Widgets[0].Children, 3)
}

func TestRun_CompositesCanBeDisabled(t *testing.T) {
	cfg := composite.DefaultConfig()
	cfg.Enabled = false
	p := New(nil, composite.New(cfg))

	out, err := p.Run(context.Background(), dt.Page(dt.IconList("perks", 3)))
	require.NoError(t, err)

	root := out.Schema.Containers[0]
	assert.Empty(t, root.Widgets)
	assert.Len(t, root.Children, 1)
}

func TestRun_Errors(t *testing.T) {
	p := New(nil, nil)

	_, err := p.RunReader(context.Background(), strings.NewReader("not json"))
	assert.Error(t, err)

	_, err = p.RunReader(context.Background(), strings.NewReader(""))
	assert.Error(t, err)

	dup := dt.Page(dt.Text("x", "one", 16, 400, 0, 0), dt.Text("x", "two", 16, 400, 0, 40))
	_, err = p.Run(context.Background(), dup)
	assert.ErrorIs(t, err, design.ErrDuplicateID)
}

func TestRun_UniqueRunIDs(t *testing.T) {
	p := New(nil, nil)
	root := dt.Page(dt.Divider("d"))

	a, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	b, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_Deterministic(t *testing.T) {
	p := New(nil, nil)
	run := func() []byte {
		root := dt.Page(dt.Hero("hero"), dt.CardGrid("grid", 3), dt.IconList("perks", 4), dt.ImageCard("card", 0, 0))
		out, err := p.Run(context.Background(), root)
		require.NoError(t, err)
		data, err := json.Marshal(out)
		require.NoError(t, err)
		return data
	}

	first := run()
	assert.Equal(t, string(first), string(run()))
	assert.NotContains(t, string(first), "runId")

	a, err := p.RunReader(context.Background(), strings.NewReader(pageDoc))
	require.NoError(t, err)
	b, err := p.RunReader(context.Background(), strings.NewReader(pageDoc))
	require.NoError(t, err)
	aj, err := json.Marshal(a.Schema)
	require.NoError(t, err)
	bj, err := json.Marshal(b.Schema)
	require.NoError(t, err)
	assert.JSONEq(t, string(aj), string(bj))
}

func TestRun_LogsAndTraces(t *testing.T) {
	logger := logging.NewTestLogger()
	tel := telemetry.NewTestTelemetry()
	p := fixedRunID(New(nil, nil,
		WithLogger(logger.Logger),
		WithTracer(tel.Tracer(instrumentationName)),
	))

	_, err := p.Run(context.Background(), dt.Page(dt.Divider("d")))
	require.NoError(t, err)

	logger.AssertLogged(t, zapcore.InfoLevel, "page classified")
	logger.AssertField(t, "page classified", "page.title", "Page")
	tel.AssertSpanExists(t, "pipeline.Run")
	tel.AssertSpanAttribute(t, "pipeline.Run", "run.id", "run-1")
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig(config.Default(), Deps{})
	require.NoError(t, err)

	out, err := p.Run(context.Background(), dt.Page(dt.CardGrid("grid", 2)))
	require.NoError(t, err)
	assert.Empty(t, out.Missing)
}

func TestFromConfig_PrefixFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefixes.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[prefix]]\nprefix = \"ui:cta\"\nkind = \"button\"\n"), 0o600))

	cfg := config.Default()
	cfg.Prefixes.File = path
	p, err := FromConfig(cfg, Deps{})
	require.NoError(t, err)

	label := dt.Text("t", "Go", 16, 400, 0, 0)
	label.Name = "ui:cta Go"
	out, err := p.Run(context.Background(), dt.Page(label))
	require.NoError(t, err)

	require.Len(t, out.Analyses, 1)
	assert.Equal(t, widget.KindButton, out.Analyses[0].Kind())
	assert.Equal(t, decision.MethodExplicit, out.Analyses[0].Method)
}

func TestFromConfig_Errors(t *testing.T) {
	t.Run("missing prefix file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Prefixes.File = filepath.Join(t.TempDir(), "absent.toml")
		_, err := FromConfig(cfg, Deps{})
		assert.Error(t, err)
	})

	t.Run("escalation without api key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Escalation.Enabled = true
		cfg.Render.Dir = t.TempDir()
		_, err := FromConfig(cfg, Deps{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verifier")
	})
}
