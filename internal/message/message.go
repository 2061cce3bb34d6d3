// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package message builds outgoing mail. Recipient and attachment lists arrive
// as single strings separated by ";", the way callers of the automation
// scripts have always passed them.
package message

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/pdiddy/officebridge/internal/report"
)

// ListSeparator separates entries in recipient and attachment lists.
const ListSeparator = ";"

// ErrNoRecipients is returned when a recipient list has no entries.
var ErrNoRecipients = errors.New("no recipients")

// Draft is a message ready to be rendered.
type Draft struct {
	From        *mail.Address
	To          []*mail.Address
	Subject     string
	Body        string
	HTML        bool
	Attachments []string
	// Date defaults to the time of rendering.
	Date time.Time
}

// SplitList splits a ";" separated list, trimming entries and dropping
// empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ListSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseRecipients parses a ";" separated list of addresses. Entries may be
// bare addresses or "Name <addr>" forms.
func ParseRecipients(s string) ([]*mail.Address, error) {
	entries := SplitList(s)
	if len(entries) == 0 {
		return nil, ErrNoRecipients
	}
	addrs := make([]*mail.Address, 0, len(entries))
	for _, e := range entries {
		a, err := mail.ParseAddress(e)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", e, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// ParseAttachments parses a ";" separated list of file paths. Every path must
// name an existing regular file.
func ParseAttachments(s string) ([]string, error) {
	paths := SplitList(s)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return nil, report.MissingInput(p)
		}
	}
	return paths, nil
}

// Bytes renders the draft as an RFC 5322 message.
func (d *Draft) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the draft to w. A draft without attachments is a single
// inline part; otherwise a multipart/mixed message with the body first.
func (d *Draft) Write(w io.Writer) error {
	var h mail.Header
	date := d.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	if d.From != nil {
		h.SetAddressList("From", []*mail.Address{d.From})
	}
	h.SetAddressList("To", d.To)
	h.SetSubject(d.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating Message-ID: %w", err)
	}

	contentType := "text/plain"
	if d.HTML {
		contentType = "text/html"
	}
	charset := map[string]string{"charset": "utf-8"}

	if len(d.Attachments) == 0 {
		h.SetContentType(contentType, charset)
		body, err := mail.CreateSingleInlineWriter(w, h)
		if err != nil {
			return fmt.Errorf("creating message: %w", err)
		}
		if _, err := io.WriteString(body, d.Body); err != nil {
			body.Close()
			return fmt.Errorf("writing body: %w", err)
		}
		return body.Close()
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating body: %w", err)
	}
	var ih mail.InlineHeader
	ih.SetContentType(contentType, charset)
	part, err := iw.CreatePart(ih)
	if err != nil {
		return fmt.Errorf("creating body: %w", err)
	}
	if _, err := io.WriteString(part, d.Body); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	if err := part.Close(); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}

	for _, path := range d.Attachments {
		if err := attach(mw, path); err != nil {
			return err
		}
	}
	return mw.Close()
}

func attach(mw *mail.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return report.MissingInput(path)
	}
	defer f.Close()

	var ah mail.AttachmentHeader
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	ah.SetContentType(ct, nil)
	ah.SetFilename(filepath.Base(path))

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("attaching %s: %w", path, err)
	}
	if _, err := io.Copy(aw, f); err != nil {
		aw.Close()
		return fmt.Errorf("attaching %s: %w", path, err)
	}
	return aw.Close()
}

// Recipients returns the bare addresses of d.To for the SMTP envelope.
func (d *Draft) Recipients() []string {
	rcpts := make([]string, len(d.To))
	for i, a := range d.To {
		rcpts[i] = a.Address
	}
	return rcpts
}
