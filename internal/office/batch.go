// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/officebridge/internal/report"
	"github.com/pdiddy/officebridge/pkg/types"
)

// Manifest is the on-disk form of a batch conversion.
//
//	jobs:
//	  - source: reports/q1.docx
//	    target: out/q1.pdf
//	  - kind: excel
//	    source: budget.xlsx
//	    target: out/budget.pdf
//	    overwrite: true
type Manifest struct {
	Jobs []types.ConversionJob `yaml:"jobs"`
}

// LoadManifest reads a YAML manifest. Relative paths in jobs are resolved
// against the manifest's directory.
func LoadManifest(path string) ([]types.ConversionJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.Source == "" || j.Target == "" {
			return nil, fmt.Errorf("manifest %s: job %d needs source and target", path, i+1)
		}
		kind, ok := types.ParseDocumentKind(string(j.Kind))
		if !ok {
			return nil, fmt.Errorf("manifest %s: job %d has unknown kind %q", path, i+1, j.Kind)
		}
		j.Kind = kind
		j.Source = resolve(base, j.Source)
		j.Target = resolve(base, j.Target)
	}
	return m.Jobs, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of jobs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any job failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertBatch runs jobs in order, printing one status line per job to w and
// a summary at the end. A job whose target already exists is counted as
// skipped, not failed. A cancelled context stops the batch; the remaining
// jobs are not counted.
func (c *Converter) ConvertBatch(ctx context.Context, jobs []types.ConversionJob, w io.Writer) BatchResult {
	var result BatchResult
	for _, job := range jobs {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "stopped: %v\n", ctx.Err())
			break
		}
		err := c.Convert(ctx, job)
		switch {
		case err == nil:
			result.Converted++
		case report.KindOf(err) == report.OutputAlreadyExists:
			result.Skipped++
		default:
			result.Failed++
		}
		fmt.Fprintf(w, "%s: %s\n", job.Source, report.Status(err))
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
