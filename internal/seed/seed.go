// Package seed creates the first superadmin of a fresh installation from
// interactive terminal input.
package seed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bakehouse/internal/server/models"
)

// MinPasswordLength applies to the bootstrap password only.
const MinPasswordLength = 8

var (
	ErrEmptyUsername    = errors.New("username is required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Bootstrapper creates the first superadmin; services.AuthService is one.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, username, password string) (*models.User, error)
}

// Run asks for a username and a password (twice) and creates the account.
func Run(ctx context.Context, b Bootstrapper, reader *bufio.Reader, w io.Writer) error {
	username, err := GetSimpleText(reader, "Superadmin username", w)
	if err != nil {
		return err
	}
	if username == "" {
		return ErrEmptyUsername
	}

	pw, err := GetPassword(w, "Password: ")
	if err != nil {
		return err
	}
	defer wipe(pw)

	confirm, err := GetPassword(w, "Repeat password: ")
	if err != nil {
		return err
	}
	defer wipe(confirm)

	if !bytes.Equal(pw, confirm) {
		return ErrPasswordMismatch
	}
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := b.Bootstrap(ctx, username, string(pw))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Created superadmin %s (%s)\n", user.Username, user.ID)
	return nil
}
