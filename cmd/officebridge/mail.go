// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebridge/internal/credential"
	"github.com/pdiddy/officebridge/internal/mailer"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Send mail, store drafts and look up folders",
	Long: `Mail works on the configured account selected by --mailbox: the first
account whose name or address contains the given text, ignoring case.
Recipient and attachment lists are separated by ";".`,
}

// --- send subcommand ---

var mailSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message over SMTP",
	Long: `Send submits the message through the account's SMTP server. When the
account has a sent_folder configured, a copy is stored there over IMAP.`,
	RunE: runMailSend,
}

// --- draft subcommand ---

var mailDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Store a message in the drafts folder without sending it",
	Long: `Draft composes the message and appends it to the account's drafts
folder, found anywhere in the folder tree by case-insensitive name.`,
	RunE: runMailDraft,
}

// --- folder subcommand ---

var mailFolderCmd = &cobra.Command{
	Use:   "folder <name>",
	Short: "Find a folder by name and print its path",
	Long: `Folder searches the account's folder tree depth-first for the first
folder named <name>, ignoring case, and prints its full path in place of the
status line. A Deleted Items folder passed on the way is logged at info level.`,
	Args: cobra.ExactArgs(1),
	RunE: runMailFolder,
}

func init() {
	mailCmd.PersistentFlags().String("mailbox", "", "account name or address to use (substring match)")

	for _, c := range []*cobra.Command{mailSendCmd, mailDraftCmd} {
		c.Flags().String("to", "", "recipients separated by ';'")
		c.Flags().String("subject", "", "message subject")
		c.Flags().String("body", "", "message body")
		c.Flags().String("body-file", "", "read the message body from a file")
		c.Flags().Bool("html", false, "send the body as HTML")
		c.Flags().String("attachments", "", "files to attach separated by ';'")
	}

	mailCmd.AddCommand(mailSendCmd)
	mailCmd.AddCommand(mailDraftCmd)
	mailCmd.AddCommand(mailFolderCmd)
	rootCmd.AddCommand(mailCmd)
}

func newMailer() *mailer.Mailer {
	return mailer.New(cfg.Accounts, credential.NewStore(loadedSecrets), logger)
}

// requestFromFlags builds a mail request from the send/draft flags.
func requestFromFlags(cmd *cobra.Command) (mailer.Request, error) {
	var req mailer.Request
	req.Mailbox, _ = cmd.Flags().GetString("mailbox")
	req.To, _ = cmd.Flags().GetString("to")
	req.Subject, _ = cmd.Flags().GetString("subject")
	req.Body, _ = cmd.Flags().GetString("body")
	req.HTML, _ = cmd.Flags().GetBool("html")
	req.Attachments, _ = cmd.Flags().GetString("attachments")

	if bodyFile, _ := cmd.Flags().GetString("body-file"); bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return mailer.Request{}, fmt.Errorf("reading body file: %w", err)
		}
		req.Body = string(data)
	}
	return req, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runMailSend(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	rec, closeJournal := openJournal()
	defer closeJournal()

	m := newMailer()
	if req.Attachments != "" {
		err = m.SendMailWithAttachments(ctx, req)
	} else {
		err = m.SendMail(ctx, req)
	}
	record(ctx, rec, "mail send", req.Mailbox, req.To, err)
	return printStatus(os.Stdout, err)
}

func runMailDraft(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	rec, closeJournal := openJournal()
	defer closeJournal()

	err = newMailer().Draft(ctx, req)
	record(ctx, rec, "mail draft", req.Mailbox, req.To, err)
	return printStatus(os.Stdout, err)
}

func runMailFolder(cmd *cobra.Command, args []string) error {
	mailbox, _ := cmd.Flags().GetString("mailbox")
	ctx := commandContext(cmd)

	rec, closeJournal := openJournal()
	defer closeJournal()

	info, err := newMailer().FindFolder(ctx, mailbox, args[0])
	record(ctx, rec, "mail folder", mailbox, args[0], err)
	return folderStatus(os.Stdout, logger, info, err)
}
