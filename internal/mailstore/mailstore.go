// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mailstore talks to an account's IMAP server: it lists the folder
// tree, resolves folders by name and appends messages.
package mailstore

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pdiddy/officebridge/internal/folder"
	"github.com/pdiddy/officebridge/pkg/types"
)

const dialTimeout = 30 * time.Second

// AuthError reports rejected credentials.
type AuthError struct {
	Account string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Account, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Session is an authenticated IMAP session on one account. Close must be
// called on every Session returned by Open.
type Session struct {
	client  *imapclient.Client
	account types.Account
	logger  log.Logger
}

// Open connects to the account's IMAP server and logs in.
func Open(ctx context.Context, account types.Account, password string, logger log.Logger) (*Session, error) {
	if !account.HasIMAP() {
		return nil, fmt.Errorf("account %s has no IMAP server configured", account.Name)
	}

	client, err := dial(ctx, account.IMAP)
	if err != nil {
		return nil, err
	}

	if err := client.Login(account.Login(), password).Wait(); err != nil {
		_ = client.Logout().Wait()
		client.Close()
		return nil, &AuthError{Account: account.Login(), Err: err}
	}

	return NewSession(client, account, logger), nil
}

// NewSession wraps an already authenticated client.
func NewSession(client *imapclient.Client, account types.Account, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Session{
		client:  client,
		account: account,
		logger:  log.With(logger, "account", account.Name),
	}
}

func dial(ctx context.Context, ep types.Endpoint) (*imapclient.Client, error) {
	addr := net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port))
	tlsConfig := &tls.Config{ServerName: ep.Host}
	d := &net.Dialer{Timeout: dialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if ep.TLS == types.TLSNone || ep.TLS == types.TLSStartTLS {
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = (&tls.Dialer{NetDialer: d, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if ep.TLS != types.TLSStartTLS {
		return imapclient.New(conn, nil), nil
	}
	c, err := imapclient.NewStartTLS(conn, &imapclient.Options{TLSConfig: tlsConfig})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}
	return c, nil
}

// Close logs out and closes the connection.
func (s *Session) Close() error {
	logoutErr := s.client.Logout().Wait()
	closeErr := s.client.Close()
	level.Debug(s.logger).Log("msg", "logged off")
	if logoutErr != nil {
		return fmt.Errorf("logging out: %w", logoutErr)
	}
	return closeErr
}

// Account returns the session's account.
func (s *Session) Account() types.Account { return s.account }

// Tree lists every folder of the account and returns them as a tree rooted
// at the account name, in the order the server listed them.
func (s *Session) Tree() (*folder.Tree, error) {
	mailboxes, err := s.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return BuildTree(s.account.Name, mailboxes), nil
}

// BuildTree arranges LIST results into a folder tree. Folders flagged
// \NonExistent are left out; intermediate folders missing from the listing
// are created so their children stay reachable.
func BuildTree(root string, mailboxes []*imap.ListData) *folder.Tree {
	tree := folder.NewTree(root)
	for _, mbox := range mailboxes {
		if hasAttr(mbox.Attrs, imap.MailboxAttrNonExistent) {
			continue
		}
		tree.Insert(mbox.Mailbox, mbox.Delim)
	}
	return tree
}

func hasAttr(attrs []imap.MailboxAttr, want imap.MailboxAttr) bool {
	for _, a := range attrs {
		if a == want {
			return true
		}
	}
	return false
}

// FindFolder resolves target among the account's folders.
func (s *Session) FindFolder(target string) (*folder.Tree, folder.Result, error) {
	tree, err := s.Tree()
	if err != nil {
		return nil, folder.Result{}, err
	}
	res, err := folder.Resolve(tree, target)
	if err != nil {
		return nil, folder.Result{}, err
	}
	level.Debug(s.logger).Log("msg", "resolved folder", "target", target, "path", res.Folder.(*folder.Tree).Path())
	return res.Folder.(*folder.Tree), res, nil
}

// Append stores msg in the folder at path with the given flags.
func (s *Session) Append(path string, msg []byte, flags ...imap.Flag) error {
	cmd := s.client.Append(path, int64(len(msg)), &imap.AppendOptions{
		Flags: flags,
		Time:  time.Now(),
	})
	if _, err := cmd.Write(msg); err != nil {
		cmd.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	level.Debug(s.logger).Log("msg", "appended", "folder", path, "bytes", len(msg))
	return nil
}
