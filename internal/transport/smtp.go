// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transport submits rendered messages to an SMTP server.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pdiddy/officebridge/internal/retry"
	"github.com/pdiddy/officebridge/pkg/types"
)

const dialTimeout = 30 * time.Second

// Sender submits a message to its recipients.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTP submits over a fresh connection per message, authenticating with
// SASL PLAIN when a password is configured.
type SMTP struct {
	endpoint types.Endpoint
	username string
	password string
	// tlsConfig overrides the default (ServerName only) for tests.
	tlsConfig *tls.Config
	// retries bounds resubmission after temporary failures (0: default).
	retries int
	logger  log.Logger
}

// Option configures an SMTP sender.
type Option func(*SMTP)

// WithLogger sets the logger for connection diagnostics.
func WithLogger(l log.Logger) Option {
	return func(s *SMTP) { s.logger = l }
}

// NewSMTP returns a Sender for endpoint.
func NewSMTP(endpoint types.Endpoint, username, password string, opts ...Option) *SMTP {
	s := &SMTP{endpoint: endpoint, username: username, password: password, logger: log.NewNopLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Send submits msg, retrying when the server answers with a temporary
// (4xx) reply.
func (s *SMTP) Send(ctx context.Context, from string, to []string, msg []byte) error {
	return retry.Do(ctx, s.retries, IsTransient, func() error {
		return s.send(ctx, from, to, msg)
	})
}

// IsTransient reports whether err is a temporary SMTP failure.
func IsTransient(err error) bool {
	var smtpErr *smtp.SMTPError
	return errors.As(err, &smtpErr) && smtpErr.Temporary()
}

// send dials, authenticates and submits. Once the server has accepted the
// data the message is delivered, so a failed QUIT is only logged.
func (s *SMTP) send(ctx context.Context, from string, to []string, msg []byte) error {
	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if s.password != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return fmt.Errorf("SMTP auth as %s: %w", s.username, err)
		}
	}

	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("SMTP submit: %w", err)
	}
	if err := c.Quit(); err != nil {
		level.Debug(s.logger).Log("msg", "SMTP quit after delivery", "host", s.endpoint.Host, "err", err)
	}
	return nil
}

func (s *SMTP) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.endpoint.Host, strconv.Itoa(s.endpoint.Port))
	cfg := s.tlsConfig
	if cfg == nil {
		cfg = &tls.Config{ServerName: s.endpoint.Host}
	}

	d := &net.Dialer{Timeout: dialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if s.endpoint.TLS == types.TLSNone || s.endpoint.TLS == types.TLSStartTLS {
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = (&tls.Dialer{NetDialer: d, Config: cfg}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to SMTP %s: %w", addr, err)
	}

	if s.endpoint.TLS != types.TLSStartTLS {
		return smtp.NewClient(conn), nil
	}
	c, err := smtp.NewClientStartTLS(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to SMTP %s: %w", addr, err)
	}
	return c, nil
}
