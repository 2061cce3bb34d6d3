// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pdiddy/officebridge/internal/journal"
	"github.com/pdiddy/officebridge/internal/mailer"
	"github.com/pdiddy/officebridge/internal/report"
)

// errReported marks a failure whose status line was already printed.
var errReported = errors.New("operation failed")

// printStatus writes the status line for err to w and returns errReported
// when the status is not ok.
func printStatus(w io.Writer, err error) error {
	fmt.Fprintln(w, report.Status(err))
	if err != nil {
		return errReported
	}
	return nil
}

// folderStatus prints the folder path as the status line on success. The
// Deleted Items folder passed on the way goes to the log.
func folderStatus(w io.Writer, logger log.Logger, info mailer.FolderInfo, err error) error {
	if err != nil {
		return printStatus(w, err)
	}
	if info.DeletedItems != "" {
		level.Info(logger).Log("msg", "deleted items folder", "path", info.DeletedItems)
	}
	fmt.Fprintln(w, info.Path)
	return nil
}

// openJournal returns the configured journal and a function releasing it.
// A journal that cannot be opened is logged and replaced by a no-op one.
func openJournal() (journal.Recorder, func()) {
	if cfg.Journal.Disabled {
		return journal.Nop(), func() {}
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		level.Warn(logger).Log("msg", "journal unavailable", "path", cfg.Journal.Path, "err", err)
		return journal.Nop(), func() {}
	}
	return store, func() { store.Close() }
}

// record appends an entry for an operation. Failures are logged only.
func record(ctx context.Context, rec journal.Recorder, op, source, target string, opErr error) {
	e := journal.Entry{
		Operation: op,
		Source:    source,
		Target:    target,
		Status:    report.Status(opErr),
		OK:        opErr == nil,
	}
	if err := rec.Record(ctx, e); err != nil {
		level.Warn(logger).Log("msg", "journal write failed", "op", op, "err", err)
	}
}
