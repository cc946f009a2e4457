package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/figclass/internal/config"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

const pageDoc = `{
	"id": "1:1", "name": "Landing", "type": "FRAME",
	"x": 0, "y": 0, "width": 1440, "height": 900, "layoutMode": "VERTICAL",
	"children": [
		{"id": "1:2", "name": "w:heading", "type": "TEXT", "x": 0, "y": 0, "width": 400, "height": 40,
		 "characters": "Welcome", "fontSize": 40}
	]
}`

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.json")
	require.NoError(t, os.WriteFile(path, []byte(pageDoc), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestClassify_JSON(t *testing.T) {
	out, err := execute(t, "", "classify", writeDoc(t))
	require.NoError(t, err)

	var schema widget.Schema
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "Landing", schema.Page.Title)
	require.Len(t, schema.Containers, 1)
	require.Len(t, schema.Containers[0].Widgets, 1)
	assert.Equal(t, widget.KindHeading, schema.Containers[0].Widgets[0].Kind)
}

func TestClassify_StdinYAML(t *testing.T) {
	out, err := execute(t, pageDoc, "classify", "-", "--output", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	page, ok := doc["page"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Landing", page["title"])
}

func TestClassify_Explain(t *testing.T) {
	out, err := execute(t, "", "classify", writeDoc(t), "--explain")
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "schema")
	assert.Contains(t, doc, "analyses")
}

func TestClassify_Errors(t *testing.T) {
	_, err := execute(t, "", "classify", filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	_, err = execute(t, "", "classify", writeDoc(t), "--output", "xml")
	assert.Error(t, err)

	_, err = execute(t, "not json", "classify")
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	out, err := execute(t, "", "explain", writeDoc(t))
	require.NoError(t, err)
	assert.Contains(t, out, "figclass: Landing")
	assert.Contains(t, out, "w:heading")
}

func TestPrefixes(t *testing.T) {
	out, err := execute(t, "", "prefixes")
	require.NoError(t, err)
	assert.Contains(t, out, "w:button")
	assert.Contains(t, out, "woo:product-price")
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figclass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  min_confidence: 2\n"), 0o600))

	_, err := execute(t, "", "classify", writeDoc(t), "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestLoggingConfig(t *testing.T) {
	cfg, err := loggingConfig(config.LoggingConfig{Level: "debug", Format: "console", Output: "stdout"}, nil)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output.Stream)
	assert.False(t, cfg.Output.OTEL)

	_, err = loggingConfig(config.LoggingConfig{Level: "loud"}, nil)
	assert.Error(t, err)
}
