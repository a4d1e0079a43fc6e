package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/config"
	"github.com/dmitrijs2005/users/internal/server/guard"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/password"
	"github.com/dmitrijs2005/users/internal/server/repositories/memory"
	"github.com/dmitrijs2005/users/internal/timex"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	t0     = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	client = models.ClientInfo{Source: "10.0.0.1", UserAgent: "test"}
)

type fakeAuditor struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (f *fakeAuditor) Record(_ context.Context, e models.AuditEvent) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
}

func (f *fakeAuditor) find(op, outcome string) []models.AuditEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditEvent
	for _, e := range f.events {
		if e.Operation == op && (outcome == "" || e.Outcome == outcome) {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store    *memory.Store
	clock    *timex.ManualClock
	cfg      *config.Config
	audit    *fakeAuditor
	verifier *password.Verifier
	guards   *guard.MemoryStore
	locks    *AccountLocks
	accounts *AccountService
	sessions *SessionService
	auth     *Authenticator
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionTTL = time.Hour
	cfg.SlidingWindow = time.Hour
	cfg.MaxSessionLifetime = 4 * time.Hour
	cfg.AccessTokenValidityDuration = 5 * time.Minute
	cfg.DeletionGrace = 24 * time.Hour
	cfg.RevokedRetention = time.Hour
	return cfg
}

func bcryptVerifier(t *testing.T) *password.Verifier {
	t.Helper()
	p, err := password.NewPolicy(password.PolicyBcrypt, bcrypt.MinCost, password.DefaultArgon2)
	require.NoError(t, err)
	return password.NewVerifier(p, password.StrengthPolicy{})
}

func newFixture(t *testing.T, mutate func(cfg *config.Config)) *fixture {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	f := &fixture{
		store:    memory.NewStore(),
		clock:    timex.NewManualClock(t0),
		cfg:      cfg,
		audit:    &fakeAuditor{},
		verifier: bcryptVerifier(t),
		locks:    NewAccountLocks(),
	}
	f.guards = guard.NewMemoryStore(f.clock)
	g := guard.New(f.guards, guard.Config{
		Threshold:       cfg.LockoutThreshold,
		Window:          cfg.LockoutWindow,
		LockoutDuration: cfg.LockoutDuration,
	}, f.clock, logging.Discard())

	f.sessions = NewSessionService(f.store, f.store, cfg, f.clock, f.locks, f.audit, logging.Discard())
	f.accounts = NewAccountService(f.store, f.store, f.verifier, cfg, f.clock, f.locks, f.audit, logging.Discard())
	f.auth = NewAuthenticator(f.store, f.store, f.verifier, g, f.sessions, cfg, f.clock, f.locks, f.audit, logging.Discard())
	return f
}

func (f *fixture) createAccount(t *testing.T, identifier, secret string) *models.Account {
	t.Helper()
	acc, err := f.accounts.Create(context.Background(), identifier, secret, client)
	require.NoError(t, err)
	return acc
}

func (f *fixture) credential(t *testing.T, accountID string) (*models.Credential, error) {
	t.Helper()
	var c *models.Credential
	err := f.store.Do(context.Background(), func(ctx context.Context, db dbx.DBTX) error {
		var err error
		c, err = f.store.Credentials(db).Get(ctx, accountID)
		return err
	})
	return c, err
}
