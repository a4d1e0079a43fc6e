package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/users/internal/common"
	pb "github.com/dmitrijs2005/users/internal/proto"
)

func (a *App) printProfile(p *pb.Profile) {
	if p == nil {
		return
	}
	for _, f := range []struct{ name, value string }{
		{"email", p.Email},
		{"phone", p.Phone},
		{"first_name", p.FirstName},
		{"middle_name", p.MiddleName},
		{"last_name", p.LastName},
		{"gender", p.Gender},
		{"birthdate", p.Birthdate},
	} {
		if f.value != "" {
			fmt.Fprintf(a.out, "  %-12s %s\n", f.name, f.value)
		}
	}
}

// parseProfileArgs turns field=value pairs into an update. A leading
// argument without "=" names the account. An empty value clears the field.
func parseProfileArgs(args []string) (*pb.UpdateProfileRequest, error) {
	req := &pb.UpdateProfileRequest{}
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		req.AccountID, args = args[0], args[1:]
	}
	if len(args) == 0 {
		return nil, errUsage
	}
	fields := map[string]**string{
		"email":       &req.Email,
		"phone":       &req.Phone,
		"first_name":  &req.FirstName,
		"middle_name": &req.MiddleName,
		"last_name":   &req.LastName,
		"gender":      &req.Gender,
		"birthdate":   &req.Birthdate,
	}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		dst, known := fields[name]
		if !ok || !known {
			return nil, fmt.Errorf("%w: unknown field %q", errUsage, name)
		}
		*dst = &value
	}
	return req, nil
}

// Profile updates profile fields: profile [account_id] field=value...
func (a *App) Profile(ctx context.Context, args []string) error {
	req, err := parseProfileArgs(args)
	if err != nil {
		return fmt.Errorf("%w (profile [account_id] field=value...)", err)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	a.printAccount(acc)
	a.printProfile(acc.Profile)
	return nil
}

// ApplyReset prompts for a reset token and a new password. It works without
// a login.
func (a *App) ApplyReset(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", a.out)
	if err != nil {
		return err
	}
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

	if err := a.client.ApplyPasswordReset(ctx, token, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password reset, log in with the new password")
	return nil
}
