// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office converts office documents to PDF by driving an external
// office suite.
//
// The suite is modelled the way desktop automation exposes it: a Launcher
// starts an Application, the Application opens a Document, the Document
// exports itself as PDF. Every handle acquired during a conversion is
// released on return, whether or not the conversion succeeded.
package office

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pdiddy/officebridge/internal/report"
	"github.com/pdiddy/officebridge/pkg/types"
)

// Launcher starts an office application able to open documents of kind.
type Launcher interface {
	Launch(ctx context.Context, kind types.DocumentKind) (Application, error)
}

// Application is a running office application.
type Application interface {
	// Open loads the document at path.
	Open(ctx context.Context, path string) (Document, error)
	// Quit shuts the application down and releases its resources.
	Quit() error
}

// Document is a document opened by an Application.
type Document interface {
	// ExportPDF writes the document as PDF to path, replacing any file there.
	ExportPDF(ctx context.Context, path string) error
	// Close releases the document.
	Close() error
}

// Observer is told the outcome of every conversion.
type Observer func(job types.ConversionJob, err error)

// Converter runs conversions against a Launcher.
type Converter struct {
	launcher Launcher
	logger   log.Logger
	timeout  time.Duration
	observe  Observer
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithTimeout bounds each conversion. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) { c.timeout = d }
}

// WithObserver registers fn to be called after every conversion.
func WithObserver(fn Observer) Option {
	return func(c *Converter) { c.observe = fn }
}

// NewConverter returns a Converter that starts applications with launcher.
func NewConverter(launcher Launcher, opts ...Option) *Converter {
	c := &Converter{launcher: launcher, logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WordToPDF converts a word-processor document.
func (c *Converter) WordToPDF(ctx context.Context, src, dst string, overwrite bool) error {
	return c.Convert(ctx, types.ConversionJob{Kind: types.KindWord, Source: src, Target: dst, Overwrite: overwrite})
}

// ExcelToPDF converts a spreadsheet.
func (c *Converter) ExcelToPDF(ctx context.Context, src, dst string, overwrite bool) error {
	return c.Convert(ctx, types.ConversionJob{Kind: types.KindExcel, Source: src, Target: dst, Overwrite: overwrite})
}

// PowerPointToPDF converts a presentation.
func (c *Converter) PowerPointToPDF(ctx context.Context, src, dst string, overwrite bool) error {
	return c.Convert(ctx, types.ConversionJob{Kind: types.KindPowerPoint, Source: src, Target: dst, Overwrite: overwrite})
}

// Convert runs one job. Failures are *report.Error values whose message is
// the status line for the job; report.Status(err) renders it.
func (c *Converter) Convert(ctx context.Context, job types.ConversionJob) error {
	err := c.convert(ctx, job)
	logger := log.With(c.logger, "op", "convert", "kind", job.Kind, "source", job.Source, "target", job.Target)
	if err != nil {
		level.Info(logger).Log("msg", "conversion failed", "status", report.Status(err), "err", errors.Unwrap(err))
	} else {
		level.Debug(logger).Log("msg", "converted")
	}
	if c.observe != nil {
		c.observe(job, err)
	}
	return err
}

func (c *Converter) convert(ctx context.Context, job types.ConversionJob) (err error) {
	if !isFile(job.Source) {
		return report.MissingInput(job.Source)
	}
	if !job.Overwrite && isFile(job.Target) {
		return report.OutputExists(job.Target)
	}

	kind := job.Kind
	if kind == "" || kind == types.KindAuto {
		k, ok := types.KindForPath(job.Source)
		if !ok {
			return report.OpenFailed(job.Source, fmt.Errorf("no application opens %s", job.Source))
		}
		kind = k
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	app, err := c.launcher.Launch(ctx, kind)
	if err != nil {
		return report.StartupFailed(kind.AppName(), err)
	}
	defer func() {
		if qerr := app.Quit(); qerr != nil {
			level.Warn(c.logger).Log("msg", "quitting application", "app", kind.AppName(), "err", qerr)
		}
	}()

	doc, err := app.Open(ctx, job.Source)
	if err != nil {
		return classify(err, report.OpenFailed(job.Source, err))
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			level.Warn(c.logger).Log("msg", "closing document", "source", job.Source, "err", cerr)
		}
	}()

	if err := doc.ExportPDF(ctx, job.Target); err != nil {
		return classify(err, report.SaveFailed(job.Target, err))
	}
	return nil
}

// classify keeps a backend's own classification when it made one.
func classify(err error, fallback *report.Error) error {
	var re *report.Error
	if errors.As(err, &re) {
		return re
	}
	return fallback
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
