package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Ping(ctx context.Context) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Whoami(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context, args []string) error
	Deactivate(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	SetRole(ctx context.Context, args []string) error
	Audit(ctx context.Context, args []string) error
	IssueReset(ctx context.Context, args []string) error
	ApplyReset(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, applyreset, ping, lock, unlock, delete, list, role, audit, reset, exit"
	helpLoggedIn  = "Available commands: whoami, profile, passwd, logout, logoutall, deactivate, ping, lock, unlock, delete, list, role, audit, reset, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit". Command errors are reported and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("users %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
		case "ping":
			err = a.Ping(ctx)
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "whoami":
			err = a.Whoami(ctx)
		case "passwd":
			err = a.ChangePassword(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "logoutall":
			err = a.LogoutAll(ctx, args)
		case "deactivate":
			err = a.Deactivate(ctx, args)
		case "lock":
			err = a.Lock(ctx, args)
		case "unlock":
			err = a.Unlock(ctx, args)
		case "delete":
			err = a.Delete(ctx, args)
		case "l", "list":
			err = a.List(ctx, args)
		case "profile":
			err = a.Profile(ctx, args)
		case "role":
			err = a.SetRole(ctx, args)
		case "audit":
			err = a.Audit(ctx, args)
		case "reset":
			err = a.IssueReset(ctx, args)
		case "applyreset":
			err = a.ApplyReset(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
