package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	pb "github.com/dmitrijs2005/users/internal/proto"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = errors.New("not logged in")
)

func (a *App) printAccount(acc *pb.Account) {
	if acc == nil {
		return
	}
	line := fmt.Sprintf("%s  %-32s  %s", acc.ID, acc.Identifier, acc.Status)
	if acc.LockReason != "" {
		line += "  (" + acc.LockReason + ")"
	}
	if acc.Role == "superuser" {
		line += "  [superuser]"
	}
	fmt.Fprintln(a.out, line)
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

// Register prompts for an identifier and password and creates an account.
func (a *App) Register(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter identifier", a.out)
	if err != nil {
		return err
	}
	password, err := getSecret(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.CreateAccount(ctx, identifier, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created:")
	a.printAccount(acc)
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter identifier", a.out)
	if err != nil {
		return err
	}
	password, err := getSecret(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	a.userName = acc.Identifier
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		return fmt.Errorf("whoami: %w", errNotLoggedIn)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.GetAccount(ctx, "")
	if err != nil {
		return err
	}
	a.printAccount(acc)
	a.printProfile(acc.Profile)
	if acc.LastLoginAt != nil {
		fmt.Fprintf(a.out, "  %-12s %s\n", "last_login", acc.LastLoginAt.Format(time.RFC3339))
	}
	return nil
}

// ChangePassword asks for the current and the new password twice.
func (a *App) ChangePassword(ctx context.Context) error {
	if !a.isLoggedIn() {
		return fmt.Errorf("passwd: %w", errNotLoggedIn)
	}
	oldPassword, err := getSecret(a.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getSecret(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	confirm, err := getSecret(a.out, "Repeat new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(confirm) != string(newPassword) {
		return errors.New("passwords do not match")
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed, other sessions were signed out")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// LogoutAll revokes every session of the logged-in account, or of the named
// account when the admin key is configured.
func (a *App) LogoutAll(ctx context.Context, args []string) error {
	accountID, err := optionalAccount(args)
	if err != nil {
		return fmt.Errorf("%w: logoutall [account_id]", err)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	n, err := a.client.LogoutAll(ctx, accountID)
	if err != nil {
		return err
	}
	if !a.isLoggedIn() {
		a.userName = ""
	}
	fmt.Fprintf(a.out, "Revoked %d session(s)\n", n)
	return nil
}

func (a *App) Deactivate(ctx context.Context, args []string) error {
	accountID, err := optionalAccount(args)
	if err != nil {
		return fmt.Errorf("%w: deactivate [account_id]", err)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.DeactivateAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !a.isLoggedIn() {
		a.userName = ""
	}
	a.printAccount(acc)
	return nil
}

func optionalAccount(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", errUsage
	}
}
