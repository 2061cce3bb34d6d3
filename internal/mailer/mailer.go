// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mailer sends mail, stores drafts and looks up folders on behalf of
// a configured account. It ties account selection, message composition, the
// SMTP transport and the IMAP store together.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message/mail"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pdiddy/officebridge/internal/credential"
	"github.com/pdiddy/officebridge/internal/folder"
	"github.com/pdiddy/officebridge/internal/mailstore"
	"github.com/pdiddy/officebridge/internal/message"
	"github.com/pdiddy/officebridge/internal/transport"
	"github.com/pdiddy/officebridge/pkg/types"
)

// Store is the part of an IMAP session the mailer needs.
type Store interface {
	FindFolder(target string) (*folder.Tree, folder.Result, error)
	Append(path string, msg []byte, flags ...imap.Flag) error
	Close() error
}

// StoreOpener opens an authenticated store session for an account.
type StoreOpener func(ctx context.Context, account types.Account, password string) (Store, error)

// SenderFactory builds the SMTP transport for an account.
type SenderFactory func(account types.Account, password string) transport.Sender

// Passwords looks up account passwords.
type Passwords interface {
	Password(account string) (string, error)
}

// Request describes one outgoing message. To and Attachments are ";"
// separated lists.
type Request struct {
	Mailbox     string
	To          string
	Subject     string
	Body        string
	HTML        bool
	Attachments string
}

// FolderInfo is the outcome of a folder lookup.
type FolderInfo struct {
	Path string
	// DeletedItems is the path of the last Deleted Items folder seen before
	// the match, or empty.
	DeletedItems string
}

// Mailer performs mail operations against configured accounts.
type Mailer struct {
	accounts  []types.Account
	passwords Passwords
	openStore StoreOpener
	newSender SenderFactory
	logger    log.Logger
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithStoreOpener replaces the IMAP session factory.
func WithStoreOpener(open StoreOpener) Option {
	return func(m *Mailer) { m.openStore = open }
}

// WithSenderFactory replaces the SMTP transport factory.
func WithSenderFactory(f SenderFactory) Option {
	return func(m *Mailer) { m.newSender = f }
}

// New returns a Mailer over accounts.
func New(accounts []types.Account, passwords Passwords, logger log.Logger, opts ...Option) *Mailer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &Mailer{
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
	}
	m.openStore = func(ctx context.Context, a types.Account, pw string) (Store, error) {
		s, err := mailstore.Open(ctx, a, pw, m.logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	m.newSender = func(a types.Account, pw string) transport.Sender {
		return transport.NewSMTP(a.SMTP, a.Login(), pw, transport.WithLogger(m.logger))
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SendMail sends a message without attachments. Any attachments in req are
// ignored.
func (m *Mailer) SendMail(ctx context.Context, req Request) error {
	req.Attachments = ""
	return m.send(ctx, req)
}

// SendMailWithAttachments sends a message with the files listed in
// req.Attachments. A missing file fails the send before anything is
// transmitted.
func (m *Mailer) SendMailWithAttachments(ctx context.Context, req Request) error {
	return m.send(ctx, req)
}

func (m *Mailer) send(ctx context.Context, req Request) error {
	account, draft, err := m.prepare(req)
	if err != nil {
		return err
	}
	if !account.HasSMTP() {
		return fmt.Errorf("account %s has no SMTP server configured", account.Name)
	}
	logger := log.With(m.logger, "account", account.Name, "op", "send")

	password, err := m.password(account)
	if err != nil {
		return err
	}

	raw, err := draft.Bytes()
	if err != nil {
		return err
	}

	if err := m.newSender(account, password).Send(ctx, account.Address, draft.Recipients(), raw); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "sent", "recipients", len(draft.To), "attachments", len(draft.Attachments))

	if account.SentFolder == "" || !account.HasIMAP() {
		return nil
	}
	// The message is already delivered; a failed sent copy is only reported.
	if err := m.store(ctx, account, password, account.SentFolder, raw, imap.FlagSeen); err != nil {
		level.Warn(logger).Log("msg", "could not store sent copy", "folder", account.SentFolder, "err", err)
	}
	return nil
}

// Draft stores the message in the account's drafts folder instead of
// sending it.
func (m *Mailer) Draft(ctx context.Context, req Request) error {
	account, draft, err := m.prepare(req)
	if err != nil {
		return err
	}
	if !account.HasIMAP() {
		return fmt.Errorf("account %s has no IMAP server configured", account.Name)
	}

	password, err := m.password(account)
	if err != nil {
		return err
	}

	raw, err := draft.Bytes()
	if err != nil {
		return err
	}

	if err := m.store(ctx, account, password, account.DraftsFolder, raw, imap.FlagDraft); err != nil {
		return err
	}
	level.Info(m.logger).Log("msg", "draft stored", "account", account.Name, "folder", account.DraftsFolder)
	return nil
}

// FindFolder resolves target among the folders of the selected account.
func (m *Mailer) FindFolder(ctx context.Context, mailbox, target string) (FolderInfo, error) {
	account, err := mailstore.SelectAccount(m.accounts, mailbox)
	if err != nil {
		return FolderInfo{}, err
	}
	password, err := m.password(account)
	if err != nil {
		return FolderInfo{}, err
	}

	var info FolderInfo
	err = m.withStore(ctx, account, password, func(s Store) error {
		found, res, err := s.FindFolder(target)
		if err != nil {
			return err
		}
		info.Path = found.Path()
		if t, ok := res.DeletedItems.(*folder.Tree); ok {
			info.DeletedItems = t.Path()
		}
		return nil
	})
	return info, err
}

// prepare selects the account and composes the message.
func (m *Mailer) prepare(req Request) (types.Account, *message.Draft, error) {
	account, err := mailstore.SelectAccount(m.accounts, req.Mailbox)
	if err != nil {
		return types.Account{}, nil, err
	}

	to, err := message.ParseRecipients(req.To)
	if err != nil {
		return types.Account{}, nil, err
	}
	attachments, err := message.ParseAttachments(req.Attachments)
	if err != nil {
		return types.Account{}, nil, err
	}

	return account, &message.Draft{
		From:        &mail.Address{Name: account.DisplayName, Address: account.Address},
		To:          to,
		Subject:     req.Subject,
		Body:        req.Body,
		HTML:        req.HTML,
		Attachments: attachments,
	}, nil
}

// password returns the account password. An account with no stored
// password authenticates with an empty one.
func (m *Mailer) password(account types.Account) (string, error) {
	if m.passwords == nil {
		return "", nil
	}
	pw, err := m.passwords.Password(account.Name)
	if errors.Is(err, credential.ErrNotFound) {
		level.Debug(m.logger).Log("msg", "no stored password", "account", account.Name)
		return "", nil
	}
	return pw, err
}

// store resolves folderName and appends raw to it.
func (m *Mailer) store(ctx context.Context, account types.Account, password, folderName string, raw []byte, flags ...imap.Flag) error {
	return m.withStore(ctx, account, password, func(s Store) error {
		found, _, err := s.FindFolder(folderName)
		if err != nil {
			return err
		}
		return s.Append(found.Path(), raw, flags...)
	})
}

// withStore runs fn on an open session and always closes it afterwards.
func (m *Mailer) withStore(ctx context.Context, account types.Account, password string, fn func(Store) error) error {
	s, err := m.openStore(ctx, account, password)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			level.Warn(m.logger).Log("msg", "closing mail session", "account", account.Name, "err", err)
		}
	}()
	return fn(s)
}
