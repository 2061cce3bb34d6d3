// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/officebridge/internal/retry"
	"github.com/pdiddy/officebridge/pkg/types"
)

func init() {
	retry.BaseDelay = time.Millisecond
}

// captured is a message received by the test server.
type captured struct {
	from string
	to   []string
	data string
}

type backend struct {
	mu   sync.Mutex
	msgs []captured
	// rejectRcpt answers RCPT with this reply while it is positive.
	rejectRcpt int
	rejectCode int
}

func (b *backend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &session{b: b}, nil
}

type session struct {
	b   *backend
	cur captured
}

func (s *session) Reset()        { s.cur = captured{} }
func (s *session) Logout() error { return nil }

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.cur.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.rejectRcpt > 0 {
		s.b.rejectRcpt--
		return &smtp.SMTPError{Code: s.b.rejectCode, Message: "rejected"}
	}
	s.cur.to = append(s.cur.to, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.cur.data = string(data)
	s.b.mu.Lock()
	s.b.msgs = append(s.b.msgs, s.cur)
	s.b.mu.Unlock()
	return nil
}

func startServer(t *testing.T) (*backend, types.Endpoint) {
	t.Helper()
	be := &backend{}
	srv := smtp.NewServer(be)
	srv.Domain = "localhost"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { srv.Close() })

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return be, types.Endpoint{Host: host, Port: p, TLS: types.TLSNone}
}

func TestSMTPSend(t *testing.T) {
	be, ep := startServer(t)

	msg := "Subject: hi\r\n\r\nbody\r\n"
	err := NewSMTP(ep, "ops@example.com", "").Send(context.Background(), "ops@example.com", []string{"a@example.com", "b@example.com"}, []byte(msg))
	require.NoError(t, err)

	be.mu.Lock()
	defer be.mu.Unlock()
	require.Len(t, be.msgs, 1)
	got := be.msgs[0]
	assert.Equal(t, "ops@example.com", got.from)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got.to)
	assert.Contains(t, got.data, "body")
}

func TestSMTPSend_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	ep := types.Endpoint{Host: "127.0.0.1", Port: addr.Port, TLS: types.TLSNone}
	err = NewSMTP(ep, "u", "").Send(context.Background(), "u@example.com", []string{"a@example.com"}, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to SMTP")
}

func TestSMTPSend_RetriesTemporaryFailure(t *testing.T) {
	be, ep := startServer(t)
	be.rejectRcpt = 2
	be.rejectCode = 451

	err := NewSMTP(ep, "u", "").Send(context.Background(), "u@example.com", []string{"a@example.com"}, []byte("Subject: x\r\n\r\nx\r\n"))
	require.NoError(t, err)

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Len(t, be.msgs, 1)
}

func TestSMTPSend_PermanentFailure(t *testing.T) {
	be, ep := startServer(t)
	be.rejectRcpt = 10
	be.rejectCode = 550

	err := NewSMTP(ep, "u", "").Send(context.Background(), "u@example.com", []string{"a@example.com"}, []byte("x"))
	require.Error(t, err)
	assert.False(t, IsTransient(err))

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, 9, be.rejectRcpt, "permanent replies are not retried")
}

// quitServer is a minimal line-oriented SMTP server that accepts every
// message and then misbehaves on QUIT.
type quitServer struct {
	mu        sync.Mutex
	delivered int
	// onQuit answers the QUIT command. It may write a reply or just return,
	// after which the connection is closed.
	onQuit func(w *bufio.Writer)
}

func (q *quitServer) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delivered
}

func (q *quitServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	reply := func(line string) {
		w.WriteString(line + "\r\n")
		w.Flush()
	}

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.Fields(line + " x")[0])
		switch verb {
		case "EHLO", "HELO":
			reply("250 localhost")
		case "DATA":
			reply("354 go ahead")
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
			}
			q.mu.Lock()
			q.delivered++
			q.mu.Unlock()
			reply("250 queued")
		case "QUIT":
			q.onQuit(w)
			w.Flush()
			return
		default:
			reply("250 ok")
		}
	}
}

func startQuitServer(t *testing.T, onQuit func(w *bufio.Writer)) (*quitServer, types.Endpoint) {
	t.Helper()
	q := &quitServer{onQuit: onQuit}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go q.serve(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return q, types.Endpoint{Host: "127.0.0.1", Port: addr.Port, TLS: types.TLSNone}
}

func TestSMTPSend_QuitFailureAfterDelivery(t *testing.T) {
	tests := []struct {
		name   string
		onQuit func(w *bufio.Writer)
	}{
		{
			name:   "connection dropped on QUIT",
			onQuit: func(*bufio.Writer) {},
		},
		{
			name: "temporary reply to QUIT",
			onQuit: func(w *bufio.Writer) {
				w.WriteString("421 shutting down\r\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ep := startQuitServer(t, tt.onQuit)

			err := NewSMTP(ep, "u", "").Send(context.Background(), "u@example.com", []string{"a@example.com"}, []byte("Subject: x\r\n\r\nx\r\n"))
			require.NoError(t, err, "a delivered message is a successful send")
			assert.Equal(t, 1, q.count(), "the message is delivered exactly once")
		})
	}
}

func TestSMTPSend_CancelledContext(t *testing.T) {
	_, ep := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []types.TLSMode{types.TLSNone, types.TLSStartTLS, types.TLSImplicit} {
		ep.TLS = mode
		err := NewSMTP(ep, "u", "").Send(ctx, "u@example.com", []string{"a@example.com"}, []byte("x"))
		require.Error(t, err, mode)
		assert.True(t, errors.Is(err, context.Canceled), "%s: %v", mode, err)
	}
}
