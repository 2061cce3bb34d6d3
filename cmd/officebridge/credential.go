package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pdiddy/officebridge/internal/credential"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage account passwords in the OS keyring",
	Long: `Credential stores mail account passwords in the OS keyring. A file named
<account>-password in the secrets directory takes precedence over the keyring.`,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store the password for an account",
	Long: `Set reads the password from the terminal without echo, or from the first
line of stdin when stdin is not a terminal, and stores it in the keyring.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(args[0])
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("empty password")
		}
		err = credential.NewStore(nil).SetPassword(args[0], password)
		return printStatus(os.Stdout, err)
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove the stored password for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := credential.NewStore(nil).DeletePassword(args[0])
		return printStatus(os.Stdout, err)
	},
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialDeleteCmd)
	rootCmd.AddCommand(credentialCmd)
}

func readPassword(account string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", account)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
