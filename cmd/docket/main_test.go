package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/docket/internal/core"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("test-registry-key-123"))

const newCasesHTML = `<html><body><table>
<tr><th>Aktenzeichen</th><th>Kurzrubrum</th><th>Status</th><th>ER / K</th></tr>
<tr><td>123 O 1/24</td><td>M&uuml;ller ./. Meier</td><td></td><td>Einzelrichter</td></tr>
<tr><td>124 O 1/24</td><td>A ./. B</td><td></td><td>Kammer</td></tr>
</table></body></html>`

const settledRTF = `{\rtf1\ansi\ansicpg1252
\trowd\cellx1000\cellx2000\cellx3000
Aktenzeichen\cell Kurzrubrum\cell Erledigt am\cell\row
\trowd\cellx1000\cellx2000\cellx3000
123 O 1/24\cell M\'fcller ./. Meier\cell 15.03.2024\cell\row
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportAndHistory(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "registry.db")
	html := writeFile(t, dir, "neu.html", newCasesHTML)
	rtf := writeFile(t, dir, "erledigt.rtf", settledRTF)

	out, err := execute(t, "", "import", "--registry", registry, "--key", testKey,
		"--import-date", "2024-01-02", html, rtf)
	require.NoError(t, err)
	assert.Contains(t, out, "neu.html: New cases")
	assert.Contains(t, out, "imported (2):")
	assert.Contains(t, out, "erledigt.rtf: Settled cases")
	assert.Contains(t, out, "settled (1):")
	assert.Contains(t, out, "123 O 1/24")

	out, err = execute(t, "", "history", "--registry", registry, "--json")
	require.NoError(t, err)
	var runs []core.ImportRun
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, core.StrategySettledCases, runs[0].Strategy)
	assert.Equal(t, core.StrategyNewCases, runs[1].Strategy)

	out, err = execute(t, "", "history", "--registry", registry, runs[1].ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "imported (2):")

	out, err = execute(t, "", "history", "--registry", registry)
	require.NoError(t, err)
	assert.Contains(t, out, "erledigt.rtf")
	assert.Contains(t, out, "settled_cases")
}

func TestImport_DryRunFromStdin(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "registry.db")

	out, err := execute(t, newCasesHTML, "import", "--registry", registry, "--key", testKey, "--dry-run", "--json", "-")
	require.NoError(t, err)

	var run core.ImportRun
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.True(t, run.DryRun)
	assert.Equal(t, "stdin", run.FileName)
	assert.Equal(t, 2, run.Counts.Imported)

	out, err = execute(t, "", "history", "--registry", registry)
	require.NoError(t, err)
	assert.Contains(t, out, "no imports recorded")
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "registry.db")
	html := writeFile(t, dir, "neu.html", newCasesHTML)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "missing key", args: []string{"import", "--registry", registry, html}, want: core.ErrMissingKey},
		{name: "bad date", args: []string{"import", "--registry", registry, "--key", testKey, "--import-date", "tomorrow", html}, want: core.ErrInvalidImportDate},
		{name: "unknown run", args: []string{"history", "--registry", registry, "abc"}, want: core.ErrImportNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImport_KeyFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCKET_KEY", testKey)
	t.Setenv("DOCKET_REGISTRY", filepath.Join(dir, "registry.db"))

	_, err := execute(t, "", "import", writeFile(t, dir, "neu.html", newCasesHTML))
	assert.NoError(t, err)
}

func TestStrategiesAndVersion(t *testing.T) {
	out, err := execute(t, "", "strategies")
	require.NoError(t, err)
	assert.Contains(t, out, "due_dates")
	assert.Contains(t, out, "Aktenzeichen | Eingangsdatum")

	out, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "docket dev\n", out)
}
