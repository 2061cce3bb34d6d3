// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/officebridge/pkg/types"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`jobs:
  - source: reports/q1.docx
    target: out/q1.pdf
  - kind: Excel
    source: /abs/budget.xlsx
    target: out/budget.pdf
    overwrite: true
`), 0o644))

	jobs, err := LoadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, types.ConversionJob{
		Kind:   types.KindAuto,
		Source: filepath.Join(dir, "reports", "q1.docx"),
		Target: filepath.Join(dir, "out", "q1.pdf"),
	}, jobs[0])
	assert.Equal(t, types.KindExcel, jobs[1].Kind)
	assert.Equal(t, "/abs/budget.xlsx", jobs[1].Source)
	assert.True(t, jobs[1].Overwrite)
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "missing target", content: "jobs:\n  - source: a.docx\n", errMsg: "needs source and target"},
		{name: "unknown kind", content: "jobs:\n  - kind: visio\n    source: a.vsd\n    target: a.pdf\n", errMsg: "unknown kind"},
		{name: "not yaml", content: "jobs: [\n", errMsg: "parsing manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadManifest(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		return p
	}

	good := write("a.docx")
	skipped := write("b.xlsx")
	existing := write("b.pdf")

	jobs := []types.ConversionJob{
		{Source: good, Target: filepath.Join(dir, "a.pdf")},
		{Source: skipped, Target: existing},
		{Source: filepath.Join(dir, "missing.pptx"), Target: filepath.Join(dir, "c.pdf")},
	}

	var out bytes.Buffer
	result := NewConverter(&fakeLauncher{}).ConvertBatch(context.Background(), jobs, &out)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, good+": ok", lines[0])
	assert.Equal(t, skipped+": File does already exist: "+existing, lines[1])
	assert.Contains(t, lines[2], "File does not exist:")
	assert.Contains(t, out.String(), "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)")
}

func TestConvertBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	result := NewConverter(&fakeLauncher{}).ConvertBatch(ctx, []types.ConversionJob{{Source: "a.docx", Target: "a.pdf"}}, &out)

	assert.Equal(t, 0, result.Total())
	assert.Contains(t, out.String(), "stopped:")
}
