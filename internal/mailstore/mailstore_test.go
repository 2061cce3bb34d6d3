// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mailstore

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapserver"
	"github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/officebridge/internal/folder"
	"github.com/pdiddy/officebridge/pkg/types"
)

const (
	testUser     = "ops@example.com"
	testPassword = "secret"
)

// startIMAP runs an in-memory IMAP server holding folders and returns an
// account pointing at it.
func startIMAP(t *testing.T, folders ...string) types.Account {
	t.Helper()

	mem := imapmemserver.New()
	user := imapmemserver.NewUser(testUser, testPassword)
	for _, f := range folders {
		require.NoError(t, user.Create(f, nil))
	}
	mem.AddUser(user)

	srv := imapserver.New(&imapserver.Options{
		NewSession: func(*imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		Caps: imap.CapSet{
			imap.CapIMAP4rev1: {},
			imap.CapIMAP4rev2: {},
		},
		InsecureAuth: true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { srv.Close() })

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return types.Account{
		Name:         "ops",
		Address:      testUser,
		IMAP:         types.Endpoint{Host: host, Port: p, TLS: types.TLSNone},
		DraftsFolder: "Drafts",
	}
}

func openSession(t *testing.T, acct types.Account) *Session {
	t.Helper()
	s, err := Open(context.Background(), acct, testPassword, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionTree(t *testing.T) {
	acct := startIMAP(t, "INBOX", "Drafts", "Archive", "Archive/2024", "Deleted Items")
	s := openSession(t, acct)

	tree, err := s.Tree()
	require.NoError(t, err)
	assert.Equal(t, "ops", tree.Name())

	var paths []string
	err = folder.Walk(tree, func(n folder.Node, _ int) bool {
		paths = append(paths, n.(*folder.Tree).Path())
		return true
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"INBOX", "Drafts", "Archive", "Archive/2024", "Deleted Items"}, paths)
}

func TestSessionFindFolderAndAppend(t *testing.T) {
	acct := startIMAP(t, "INBOX", "Deleted Items", "Projects", "Projects/Drafts")
	s := openSession(t, acct)

	found, res, err := s.FindFolder("drafts")
	require.NoError(t, err)
	assert.Equal(t, "Projects/Drafts", found.Path())
	assert.Same(t, found, res.Folder)

	msg := []byte("Subject: draft\r\n\r\nhello\r\n")
	require.NoError(t, s.Append(found.Path(), msg, imap.FlagDraft))

	status, err := s.client.Status(found.Path(), &imap.StatusOptions{NumMessages: true}).Wait()
	require.NoError(t, err)
	require.NotNil(t, status.NumMessages)
	assert.Equal(t, uint32(1), *status.NumMessages)
}

func TestSessionFindFolder_NotFound(t *testing.T) {
	acct := startIMAP(t, "INBOX", "Sent")
	s := openSession(t, acct)

	_, _, err := s.FindFolder("Drafts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, folder.ErrNotFound))
	assert.Equal(t, "Folder Drafts not found in mailbox ops!", err.Error())
}

func TestOpen_BadPassword(t *testing.T) {
	acct := startIMAP(t, "INBOX")

	_, err := Open(context.Background(), acct, "wrong", nil)
	require.Error(t, err)
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, testUser, authErr.Account)
}

func TestOpen_NoIMAP(t *testing.T) {
	_, err := Open(context.Background(), types.Account{Name: "smtp-only"}, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no IMAP server")
}

func TestOpen_CancelledContext(t *testing.T) {
	acct := startIMAP(t, "INBOX")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []types.TLSMode{types.TLSNone, types.TLSStartTLS, types.TLSImplicit} {
		acct.IMAP.TLS = mode
		_, err := Open(ctx, acct, testPassword, nil)
		require.Error(t, err, mode)
		assert.True(t, errors.Is(err, context.Canceled), "%s: %v", mode, err)
	}
}

func TestBuildTree(t *testing.T) {
	list := []*imap.ListData{
		{Mailbox: "INBOX", Delim: '.'},
		{Mailbox: "INBOX.Clients.Acme", Delim: '.'},
		{Mailbox: "INBOX.Ghost", Delim: '.', Attrs: []imap.MailboxAttr{imap.MailboxAttrNonExistent}},
		{Mailbox: "Deleted Items", Delim: '.', Attrs: []imap.MailboxAttr{imap.MailboxAttrTrash}},
	}
	tree := BuildTree("acct", list)

	children := tree.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "INBOX", children[0].Name())
	assert.Equal(t, "Deleted Items", children[1].Name())

	inbox := children[0].Children()
	require.Len(t, inbox, 1, "non-existent folders are skipped")
	assert.Equal(t, "Clients", inbox[0].Name())
	assert.Equal(t, "INBOX.Clients.Acme", inbox[0].Children()[0].(*folder.Tree).Path())
}

func TestSelectAccount(t *testing.T) {
	accounts := []types.Account{
		{Name: "personal", Address: "me@home.example"},
		{Name: "work", Address: "robert.b@company.example"},
		{Name: "work-shared", Address: "team@company.example"},
	}

	tests := []struct {
		mailbox string
		want    string
		wantErr bool
	}{
		{mailbox: "robert.b@company.example", want: "work"},
		{mailbox: "ROBERT.B", want: "work"},
		{mailbox: "company", want: "work", wantErr: false},
		{mailbox: "shared", want: "work-shared"},
		{mailbox: "Personal", want: "personal"},
		{mailbox: "nobody@else.example", wantErr: true},
		{mailbox: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.mailbox, func(t *testing.T) {
			got, err := SelectAccount(accounts, tt.mailbox)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "Mailbox: "+tt.mailbox+" not found!", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}
