// Package server wires storage, services and transports together and runs
// them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/audit"
	"github.com/dmitrijs2005/users/internal/server/config"
	"github.com/dmitrijs2005/users/internal/server/guard"
	"github.com/dmitrijs2005/users/internal/server/ops"
	"github.com/dmitrijs2005/users/internal/server/password"
	"github.com/dmitrijs2005/users/internal/server/repositories/memory"
	"github.com/dmitrijs2005/users/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/users/internal/server/services"
	"github.com/dmitrijs2005/users/internal/timex"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/users/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	nats     *audit.NATSSink
	archiver *audit.S3Archiver
	janitor  *services.Janitor
	grpc     *gs.GRPCServer
	ops      *ops.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))
	app := &App{config: c, logger: logger}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var (
		runner dbx.Runner
		repos  repomanager.RepositoryManager
		checks []ops.Check
	)

	if c.DatabaseDSN == config.MemoryDSN {
		logger.Warn(ctx, "using in-memory storage, data will not survive a restart")
		store := memory.NewStore()
		runner, repos = store, store
	} else {
		db, err := repomanager.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		pg := repomanager.NewPostgresRepositoryManager()
		if err := pg.RunMigrations(ctx, db); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		runner, repos = dbx.NewSQLRunner(db, uint64(c.DBMaxRetries), 0), pg
		checks = append(checks, ops.Check{Name: "database", Ready: db.PingContext})
	}

	clock := timex.NewMonotonicClock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sinks := []audit.Sink{audit.NewDBSink(runner, repos.AuditLog)}

	if c.NATSURL != "" {
		sink, err := audit.NewNATSSink(c.NATSURL, c.NATSStream, c.NATSSubjectPrefix, nats.Name("users"))
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("nats init error: %w", err)
		}
		app.nats = sink
		sinks = append(sinks, sink)
		checks = append(checks, ops.Check{Name: "nats", Ready: sink.Ready})
	}

	if c.S3Bucket != "" {
		archiver, err := audit.NewS3Archiver(ctx, audit.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		}, clock, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		app.archiver = archiver
		sinks = append(sinks, archiver)
	}

	auditor := audit.NewAuditor(logger, clock, audit.NewMetrics(registry), sinks...)

	policy, err := password.NewPolicy(c.HashPolicyVersion, c.BcryptCost, password.Argon2Params{
		Time:       c.Argon2Time,
		MemoryKiB:  c.Argon2MemoryKiB,
		Threads:    c.Argon2Threads,
		KeyLength:  password.DefaultArgon2.KeyLength,
		SaltLength: password.DefaultArgon2.SaltLength,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("hashing policy error: %w", err)
	}
	verifier := password.NewVerifier(policy, password.StrengthPolicy{MinLength: c.MinPasswordLength})

	guardStore := guard.NewMemoryStore(clock)
	g := guard.New(guardStore, guard.Config{
		Threshold:       c.LockoutThreshold,
		Window:          c.LockoutWindow,
		LockoutDuration: c.LockoutDuration,
	}, clock, logger)

	locks := services.NewAccountLocks()
	sessions := services.NewSessionService(runner, repos, c, clock, locks, auditor, logger)
	accounts := services.NewAccountService(runner, repos, verifier, c, clock, locks, auditor, logger)
	auth := services.NewAuthenticator(runner, repos, verifier, g, sessions, c, clock, locks, auditor, logger)

	app.janitor = services.NewJanitor(c.SweepInterval, logger,
		services.Task{Name: "sweep_sessions", Run: sessions.SweepExpired},
		services.Task{Name: "purge_accounts", Run: accounts.PurgeDeleted},
		services.Task{Name: "sweep_guard", Run: guardStore.Sweep},
		services.Task{Name: "sweep_reset_tokens", Run: auth.SweepResetTokens},
	)

	if c.AdminKey == "" {
		logger.Warn(ctx, "no admin key configured, administrative methods need a superuser access token")
	}

	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, accounts, sessions, auth, c.AdminKey, c.RequestTimeout)
	app.ops = ops.NewServer(c.EndpointAddrOps, logger, registry, checks...)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startOpsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.ops.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Close releases connections held by the app.
func (app *App) Close() {
	app.nats.Close()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close error", "error", err)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startOpsServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()

	if app.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.archiver.Run(ctx, app.config.S3FlushPeriod)
		}()
	}

	wg.Wait()

	app.Close()
	app.logger.Info(ctx, "App stopped")
}
