package installcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleConfig = `
installer_id: obdp-2026
installer_name: OBDP Installer
components:
  - id: db
    name: PostgreSQL
    order: 2
    checks:
      - type: systemd
        unit: postgresql
        description: postgresql service
  - id: files
    name: Install files
    order: 1
    checks:
      - type: path
        path: /opt/obdp
        description: install dir
      - type: path_any
        paths: ["/opt/obdp/a", "/opt/obdp/b"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "install_components.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "obdp-2026", cfg.InstallerID)
	assert.Equal(t, "OBDP Installer", cfg.InstallerName)
	require.Len(t, cfg.Components, 2)
	assert.Equal(t, "db", cfg.Components[0].ID)
	assert.Equal(t, 2, cfg.Components[0].Order)
	require.Len(t, cfg.Components[1].Checks, 2)
	assert.Equal(t, "path_any", cfg.Components[1].Checks[1].Type)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/no/such/config.yaml")
	assert.Error(t, err)
}

func TestCheckPath(t *testing.T) {
	dir := t.TempDir()
	passed, detail := checkPath(dir, false)
	assert.True(t, passed)
	assert.Equal(t, dir, detail)

	passed, detail = checkPath(filepath.Join(dir, "missing"), false)
	assert.False(t, passed)
	assert.Contains(t, detail, "Not found")
}

func TestCheckPathAny(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")

	passed, detail := checkPathAny([]string{missing, dir})
	assert.True(t, passed)
	assert.Equal(t, dir, detail)

	passed, detail = checkPathAny([]string{missing})
	assert.False(t, passed)
	assert.Contains(t, detail, "Not found")
}

func TestRunnerOrdersComponentsAndSummarizes(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		InstallerID: "x",
		Components: []Component{
			{ID: "second", Order: 2, Checks: []Check{{Type: "path", Path: dir, Description: "exists"}}},
			{ID: "first", Order: 1, Checks: []Check{{Type: "path", Path: filepath.Join(dir, "missing"), Description: "missing"}}},
		},
	}

	result := NewRunner(zap.NewNop()).Run(cfg)

	require.Len(t, result.Components, 2)
	assert.Equal(t, "first", result.Components[0].ID)
	assert.Equal(t, "second", result.Components[1].ID)
	assert.False(t, result.Components[0].Passed)
	assert.True(t, result.Components[1].Passed)
	assert.Equal(t, Summary{Total: 2, Passed: 1, Failed: 1}, result.Summary)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.Hostname)
}

func TestRunnerUnknownCheckTypeFails(t *testing.T) {
	cfg := &Config{
		Components: []Component{
			{ID: "c", Checks: []Check{{Type: "bogus"}}},
		},
	}
	result := NewRunner(zap.NewNop()).Run(cfg)
	require.Len(t, result.Components[0].Checks, 1)
	assert.False(t, result.Components[0].Checks[0].Passed)
	assert.Contains(t, result.Components[0].Checks[0].Detail, "bogus")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	out := truncate("abcdef", 3)
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "abc")
}

func sampleResult() *RunResult {
	return &RunResult{
		RunID:         "20260125_123045",
		Hostname:      "ship-host",
		InstallerName: "OBDP Installer",
		Components: []ComponentResult{
			{
				ID: "db", Name: "PostgreSQL", Passed: true,
				Checks: []CheckResult{{Type: "systemd", Description: "postgresql service", Passed: true, Detail: "Active: active (running)"}},
			},
			{
				ID: "app", Name: "dp-manager", Passed: false,
				Checks: []CheckResult{{Type: "path", Description: "install dir", Passed: false, Detail: "Not found: /opt/<dp>"}},
			},
		},
		Summary: Summary{Total: 2, Passed: 1, Failed: 1},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleResult())
	assert.Contains(t, md, "# OBDP Install Check Report")
	assert.Contains(t, md, "**Run ID**: 20260125_123045")
	assert.Contains(t, md, "### PostgreSQL — PASS")
	assert.Contains(t, md, "### dp-manager — FAIL")
	assert.Contains(t, md, "| 2 | 1 | 1 |")
}

func TestRenderHTMLEscapesDetail(t *testing.T) {
	html := RenderHTML(sampleResult())
	assert.Contains(t, html, "OBDP Install Check Report")
	assert.Contains(t, html, "ship-host")
	// detail 里的尖括号必须转义
	assert.Contains(t, html, "&lt;dp&gt;")
	assert.NotContains(t, html, "<dp>")
}
