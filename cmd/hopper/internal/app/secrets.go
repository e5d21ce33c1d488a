package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/redbco/redb-hopper/pkg/config"
	"github.com/redbco/redb-hopper/pkg/keyring"
)

// ReadSecret reads a secret from in. On a terminal it prompts on out and reads
// without echo; otherwise it reads the first line of piped input.
func ReadSecret(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Secret: ")
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SetSecret reads the secret for account from in and stores it in the keyring
// described by file. Connections refer to it as "keyring:<account>".
func SetSecret(file *config.File, account string, in io.Reader, out io.Writer) error {
	if account == "" {
		return errors.New("account is required")
	}

	secret, err := ReadSecret(in, out)
	if err != nil {
		return err
	}
	if secret == "" {
		return errors.New("secret must not be empty")
	}

	store, err := file.OpenKeyring()
	if err != nil {
		return err
	}
	if err := store.Set(file.Keyring.Service, account, secret); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	fmt.Fprintf(out, "Stored secret for %s. Reference it as %s%s\n", account, keyring.Prefix, account)
	return nil
}

// DeleteSecret removes the secret stored for account. Missing entries are not an error.
func DeleteSecret(file *config.File, account string, out io.Writer) error {
	if account == "" {
		return errors.New("account is required")
	}

	store, err := file.OpenKeyring()
	if err != nil {
		return err
	}
	if err := store.Delete(file.Keyring.Service, account); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	fmt.Fprintf(out, "Deleted secret for %s\n", account)
	return nil
}
