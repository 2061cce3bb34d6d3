// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mailstore

import (
	"strings"

	"github.com/pdiddy/officebridge/internal/report"
	"github.com/pdiddy/officebridge/pkg/types"
)

// SelectAccount returns the first account whose name or address contains
// mailbox, ignoring case. Accounts are tried in configuration order.
func SelectAccount(accounts []types.Account, mailbox string) (types.Account, error) {
	want := strings.ToUpper(strings.TrimSpace(mailbox))
	if want != "" {
		for _, a := range accounts {
			if strings.Contains(strings.ToUpper(a.Name), want) || strings.Contains(strings.ToUpper(a.Address), want) {
				return a, nil
			}
		}
	}
	return types.Account{}, report.MailboxNotFound(mailbox)
}
