package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	fail     error

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.fail
}

func (f *fakeExec) isLoggedIn() bool                   { return f.loggedIn }
func (f *fakeExec) Ping(ctx context.Context) error     { return f.record("ping", nil) }
func (f *fakeExec) Register(ctx context.Context) error { return f.record("register", nil) }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Whoami(ctx context.Context) error         { return f.record("whoami", nil) }
func (f *fakeExec) ChangePassword(ctx context.Context) error { return f.record("passwd", nil) }
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) LogoutAll(ctx context.Context, args []string) error {
	return f.record("logoutall", args)
}
func (f *fakeExec) Deactivate(ctx context.Context, args []string) error {
	return f.record("deactivate", args)
}
func (f *fakeExec) Lock(ctx context.Context, args []string) error   { return f.record("lock", args) }
func (f *fakeExec) Unlock(ctx context.Context, args []string) error { return f.record("unlock", args) }
func (f *fakeExec) Delete(ctx context.Context, args []string) error { return f.record("delete", args) }
func (f *fakeExec) List(ctx context.Context, args []string) error   { return f.record("list", args) }
func (f *fakeExec) Profile(ctx context.Context, args []string) error {
	return f.record("profile", args)
}
func (f *fakeExec) SetRole(ctx context.Context, args []string) error { return f.record("role", args) }
func (f *fakeExec) Audit(ctx context.Context, args []string) error   { return f.record("audit", args) }
func (f *fakeExec) IssueReset(ctx context.Context, args []string) error {
	return f.record("reset", args)
}
func (f *fakeExec) ApplyReset(ctx context.Context) error { return f.record("applyreset", nil) }

func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"whoami",
		"passwd",
		"lock acc-1 too many requests",
		"unlock acc-1",
		"l 10 5",
		"logoutall",
		"deactivate acc-2",
		"delete acc-2",
		"logout",
		"exit",
		"ping",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"login", "whoami", "passwd", "lock", "unlock", "list", "logoutall", "deactivate", "delete", "logout"}, exec.calls)
	assert.Equal(t, []string{"acc-1", "too", "many", "requests"}, exec.args[3])
	assert.Equal(t, []string{"10", "5"}, exec.args[5])
	assert.Empty(t, exec.args[6])
}

func TestRunREPL_AccountManagementCommands(t *testing.T) {
	capturePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"profile first_name=Alice birthdate=1990-05-17",
		"role acc-2 superuser",
		"audit acc-2 20",
		"reset acc-2",
		"applyreset",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"profile", "role", "audit", "reset", "applyreset"}, exec.calls)
	assert.Equal(t, []string{"first_name=Alice", "birthdate=1990-05-17"}, exec.args[0])
	assert.Equal(t, []string{"acc-2", "superuser"}, exec.args[1])
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	lines := capturePrint(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
	assert.Contains(t, strings.Join(*lines, ""), helpLoggedOut)

	*lines = nil
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
	assert.Contains(t, strings.Join(*lines, ""), helpLoggedIn)
}

func TestRunREPL_ReportsErrorsAndUnknown(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{fail: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("ping\n\nfoobar\nquit\n")))

	out := strings.Join(*lines, "")
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "Bye!")
	assert.Equal(t, []string{"ping"}, exec.calls)
}
