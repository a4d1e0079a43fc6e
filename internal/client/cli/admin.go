package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func (a *App) Lock(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: lock <account_id> [reason]", errUsage)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.LockAccount(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a.printAccount(acc)
	return nil
}

func (a *App) Unlock(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: unlock <account_id>", errUsage)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.UnlockAccount(ctx, args[0])
	if err != nil {
		return err
	}
	a.printAccount(acc)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <account_id>", errUsage)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.DeleteAccount(ctx, args[0])
	if err != nil {
		return err
	}
	a.printAccount(acc)
	return nil
}

// List prints one page of accounts: list [offset] [limit].
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("%w: list [offset] [limit]", errUsage)
	}
	nums := []int{0, 0}
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: list [offset] [limit]", errUsage)
		}
		nums[i] = n
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	accounts, err := a.client.ListAccounts(ctx, nums[0], nums[1])
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts")
		return nil
	}
	for _, acc := range accounts {
		a.printAccount(acc)
	}
	return nil
}

func (a *App) SetRole(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: role <account_id> <user|superuser>", errUsage)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	acc, err := a.client.SetRole(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.printAccount(acc)
	return nil
}

// Audit prints the newest audit events of an account: audit <account_id> [limit].
func (a *App) Audit(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("%w: audit <account_id> [limit]", errUsage)
	}
	limit := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: audit <account_id> [limit]", errUsage)
		}
		limit = n
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	events, err := a.client.AuditTrail(ctx, args[0], limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events")
		return nil
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-22s  %s", e.OccurredAt.Format(time.RFC3339), e.Operation, e.Outcome)
		if e.Reason != "" {
			line += "  " + e.Reason
		}
		if e.Source != "" {
			line += "  from " + e.Source
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// IssueReset creates a password reset token for an account and prints it.
// Handing it to the account holder is up to the operator.
func (a *App) IssueReset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: reset <account_id>", errUsage)
	}
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.client.IssuePasswordReset(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reset token: %s\nValid until: %s\n", resp.ResetToken, resp.ExpiresAt.Format(time.RFC3339))
	return nil
}
