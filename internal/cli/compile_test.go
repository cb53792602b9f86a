package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callchain/internal/store"
)

var testCatalogDir = filepath.Join("..", "..", "testdata", "catalog")

func writeCatalog(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipelines.cue"), []byte(src), 0644))
	return dir
}

func TestCompileValidCatalog(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testCatalogDir})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 4 pipeline(s)")
	assert.Contains(t, output, "shifted_squares: 3 step(s)")
	assert.Contains(t, output, "filter{(element>0)}%>%map{((100+(20*element))+(element*element))}")
	assert.Contains(t, output, "identity: 0 step(s)")
}

func TestCompileValidCatalogJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testCatalogDir})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Pipelines, 4)
	assert.Equal(t, "shifted_squares", resp.Data.Pipelines[0].Name)
	assert.NotEmpty(t, resp.Data.Pipelines[0].Hash)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testCatalogDir, "--output", outputFile})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Wrote pipelines to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Pipelines, 4)
}

func TestCompileRecordsPipelines(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "callchain.db")

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{testCatalogDir, "--db", dbPath})
	require.NoError(t, cmd.Execute())

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	pipelines, err := st.ReadPipelines(context.Background())
	require.NoError(t, err)
	assert.Len(t, pipelines, 4)
}

func TestCompileRawMap(t *testing.T) {
	dir := writeCatalog(t, `
package test

pipeline: square_after_shift: steps: ["map{(element+1)}", "map{(element*element)}"]
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--raw-map"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "filter{(1=1)}%>%map{((element+1)*(element+1))}")
}

func TestCompileNonExistentDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/directory/path"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, buf.String(), "not found")
}

func TestCompileEmptyDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeCUELoad)
	assert.Contains(t, buf.String(), "no CUE files found")
}

func TestCompileCollectsStepErrors(t *testing.T) {
	dir := writeCatalog(t, `
package test

pipeline: typed: steps: ["filter{(element+1)}"]
pipeline: broken: steps: ["map{(element+)}"]
pipeline: fine: steps: ["map{element}"]
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 error(s)")

	output := buf.String()
	assert.Contains(t, output, "✗ Compilation failed")
	assert.Contains(t, output, "E003: pipeline.typed")
	assert.Contains(t, output, "E002: pipeline.broken")
	assert.Contains(t, output, "pipelines.cue:")
}

func TestCompileCollectsStepErrorsJSON(t *testing.T) {
	dir := writeCatalog(t, `
package test

pipeline: typed: steps: ["filter{(element+1)}"]
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.Error(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeType, resp.Error.Code)
}
