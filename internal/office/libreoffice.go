// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pdiddy/officebridge/internal/report"
	"github.com/pdiddy/officebridge/pkg/types"
)

const (
	inDir      = "in"
	outDir     = "out"
	profileDir = "profile"

	// loadFailure is what soffice prints when it cannot open a source file.
	// It still exits 0 in that case.
	loadFailure = "source file could not be loaded"
)

// exportFilters maps each application kind to its LibreOffice PDF filter.
var exportFilters = map[types.DocumentKind]string{
	types.KindWord:       "writer_pdf_Export",
	types.KindExcel:      "calc_pdf_Export",
	types.KindPowerPoint: "impress_pdf_Export",
}

// LibreOffice launches headless LibreOffice sessions. Each Application gets
// a private workspace holding its user profile, the staged source and the
// produced PDF, so concurrent invocations of the CLI never share state.
type LibreOffice struct {
	runner  runner
	workDir string
	logger  log.Logger
}

// NewLibreOffice returns a Launcher for the configured backend.
func NewLibreOffice(cfg types.ConversionConfig, logger log.Logger) (*LibreOffice, error) {
	var r runner
	switch cfg.Backend {
	case types.BackendLocal, "":
		r = newLocalRunner(cfg.Binary)
	case types.BackendContainer:
		r = newContainerRunner(cfg.Image)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &LibreOffice{runner: r, workDir: cfg.WorkDir, logger: logger}, nil
}

// Launch checks that soffice can run and creates the session workspace.
func (l *LibreOffice) Launch(ctx context.Context, kind types.DocumentKind) (Application, error) {
	if _, ok := exportFilters[kind]; !ok {
		return nil, fmt.Errorf("no PDF export filter for %q", kind)
	}
	if err := l.runner.Check(ctx); err != nil {
		return nil, err
	}

	ws, err := os.MkdirTemp(l.workDir, "officebridge-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	for _, d := range []string{inDir, outDir, profileDir} {
		if err := os.Mkdir(filepath.Join(ws, d), 0o755); err != nil {
			os.RemoveAll(ws)
			return nil, fmt.Errorf("creating workspace: %w", err)
		}
	}

	level.Debug(l.logger).Log("msg", "launched", "kind", kind, "workspace", ws)
	return &session{kind: kind, workspace: ws, runner: l.runner, logger: l.logger}, nil
}

// session is one launched application.
type session struct {
	kind      types.DocumentKind
	workspace string
	runner    runner
	logger    log.Logger
}

// Open stages a copy of path in the workspace. The source itself is never
// handed to soffice, so a crash cannot leave lock files beside it.
func (s *session) Open(_ context.Context, path string) (Document, error) {
	if !s.kind.Opens(path) {
		return nil, fmt.Errorf("%s does not open %s files", s.kind.AppName(), filepath.Ext(path))
	}
	staged := filepath.Join(s.workspace, inDir, filepath.Base(path))
	if err := copyFile(path, staged); err != nil {
		return nil, fmt.Errorf("staging %s: %w", path, err)
	}
	return &document{session: s, source: path, staged: staged}, nil
}

// Quit removes the workspace.
func (s *session) Quit() error {
	if err := os.RemoveAll(s.workspace); err != nil {
		return fmt.Errorf("removing workspace %s: %w", s.workspace, err)
	}
	return nil
}

type document struct {
	*session
	source string
	staged string
}

func (d *document) ExportPDF(ctx context.Context, dst string) error {
	var stdout, stderr bytes.Buffer
	args := d.convertArgs()
	runErr := d.runner.Run(ctx, d.workspace, args, &stdout, &stderr)

	if msg := stderr.String(); strings.Contains(msg, loadFailure) {
		return report.OpenFailed(d.source, errors.New(strings.TrimSpace(msg)))
	}
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("soffice: %w", ctxErr)
		}
		return fmt.Errorf("soffice: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	produced := filepath.Join(d.workspace, outDir, strings.TrimSuffix(filepath.Base(d.staged), filepath.Ext(d.staged))+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("soffice produced no PDF: %s", strings.TrimSpace(stdout.String()+stderr.String()))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	return moveFile(produced, dst)
}

// Close removes the staged source.
func (d *document) Close() error {
	if err := os.Remove(d.staged); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// convertArgs builds the soffice command line, without the program name.
func (d *document) convertArgs() []string {
	profile := url.URL{Scheme: "file", Path: filepath.ToSlash(d.runner.Path(d.workspace, filepath.Join(d.workspace, profileDir)))}
	return []string{
		"--headless",
		"--invisible",
		"--norestore",
		"--nolockcheck",
		"-env:UserInstallation=" + profile.String(),
		"--convert-to", "pdf:" + exportFilters[d.kind],
		"--outdir", d.runner.Path(d.workspace, filepath.Join(d.workspace, outDir)),
		d.runner.Path(d.workspace, d.staged),
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// moveFile renames src to dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return os.Remove(src)
}
