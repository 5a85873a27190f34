package salesgrid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/jecitDev/jec-salesgrid/pkg/config"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	dbconnect "github.com/jecitDev/jec-salesgrid/pkg/dbConnect"
	"github.com/jecitDev/jec-salesgrid/pkg/interceptor"
	"github.com/jecitDev/jec-salesgrid/pkg/logger"
	"github.com/jecitDev/jec-salesgrid/pkg/orchestrator"
	"github.com/jecitDev/jec-salesgrid/pkg/prefs"
	redisconnect "github.com/jecitDev/jec-salesgrid/pkg/redisConnect"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

const healthTimeout = 5 * time.Second

// App is a fully wired SalesGrid engine with its collaborators
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Engine *orchestrator.Engine
	Prefs  prefs.Store

	// Archive is the change log archive, nil unless Elasticsearch is enabled
	Archive datachangelog.Repository

	// ExcludedMethods run through the interceptors without an actor
	ExcludedMethods map[string]bool

	closers []func() error
}

// Setup loads the configuration file and wires an App from it.
//
// Example:
//
//	app, err := salesgrid.Setup(ctx, "config/salesgrid.yaml")
//	if err != nil {
//		log.Fatalf("Failed to setup salesgrid: %v", err)
//	}
//	defer app.Close()
//	server := grpc.NewServer(grpc.ChainUnaryInterceptor(app.UnaryInterceptor()))
func Setup(ctx context.Context, configFilePath string) (*App, error) {
	cfg, err := config.LoadFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load salesgrid config: %w", err)
	}
	return New(ctx, cfg)
}

// New wires an App from cfg and bootstraps the engine state.
// A nil cfg uses config.Default.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:          cfg,
		Logger:          log,
		ExcludedMethods: map[string]bool{"/grpc.health.v1.Health/Check": true},
	}
	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}

	log.Info("salesgrid initialized",
		zap.String("remote", cfg.Remote.Mode),
		zap.Bool("elasticsearch", cfg.Elasticsearch.Enabled),
		zap.String("preferences", cfg.Preferences.Backend))
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	remote, err := a.remoteStore(ctx)
	if err != nil {
		return err
	}
	remote = a.archive(ctx, remote)
	if a.Prefs, err = a.preferences(); err != nil {
		return err
	}

	cfg := a.Config
	policies := datachangelog.NewPolicySet(cfg.Retention.ChangeLogDays, cfg.Policy.MaxLength, cfg.Policy.ExcludeLongText)
	a.Engine = orchestrator.New(orchestrator.Options{
		Policies:              policies,
		Remote:                remote,
		Logger:                a.Logger,
		ActivityRetentionDays: cfg.Retention.ActivityDays,
	})
	if err := a.Engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap engine: %w", err)
	}
	return nil
}

func (a *App) remoteStore(ctx context.Context) (remotestore.Store, error) {
	remote := a.Config.Remote
	switch remote.Mode {
	case config.RemoteHTTP:
		return remotestore.NewHTTPStore(remote.HTTP.BaseURL,
			remotestore.WithRetryCount(remote.HTTP.RetryCount),
			remotestore.WithTimeout(remote.HTTP.Timeout),
			remotestore.WithHTTPLogger(a.Logger),
		), nil

	case config.RemotePostgres:
		db, err := dbconnect.ConnectSqlxContext(ctx, remote.Postgres.DBConfig)
		if err != nil {
			return nil, err
		}
		store := remotestore.NewPostgresStore(db, a.Logger)
		a.closers = append(a.closers, store.Close)
		if remote.Postgres.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		return store, nil
	}
	return nil, nil
}

// archive decorates remote with the change log archive when Elasticsearch is
// enabled. A cluster refusing cluster privileges is kept; an unreachable one
// falls back to the in-memory repository.
func (a *App) archive(ctx context.Context, remote remotestore.Store) remotestore.Store {
	if !a.Config.Elasticsearch.Enabled {
		return remote
	}

	var (
		repo   datachangelog.Repository
		writer datachangelog.BatchWriter
	)
	esRepo, err := datachangelog.NewElasticsearchRepository(&a.Config.Elasticsearch, a.Logger)
	if err != nil {
		a.Logger.Warn("failed to create elasticsearch repository, using memory archive", zap.Error(err))
		repo = datachangelog.NewMemoryRepository()
	} else {
		healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		healthErr := esRepo.Health(healthCtx)
		cancel()

		if healthErr != nil && !isAuthorizationError(healthErr) {
			a.Logger.Warn("elasticsearch health check failed, using memory archive", zap.Error(healthErr))
			esRepo.Close()
			repo = datachangelog.NewMemoryRepository()
		} else {
			if healthErr != nil {
				// index privileges can work without cluster monitor
				a.Logger.Warn("elasticsearch health check not authorized, keeping repository", zap.Error(healthErr))
			}
			repo = esRepo
			if bw := esRepo.BulkWriter(); bw != nil {
				writer = bw
			}
		}
	}

	a.Archive = repo
	store := remotestore.NewArchivingStore(remote, repo, writer, a.Logger)
	a.closers = append(a.closers, store.Close)
	return store
}

func isAuthorizationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "security_exception") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "403")
}

func (a *App) preferences() (prefs.Store, error) {
	cfg := a.Config.Preferences
	if cfg.Backend != config.PreferencesRedis {
		return prefs.NewMemoryStore(), nil
	}
	client, err := redisconnect.ConnectRedis(cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return prefs.NewRedisStore(client, cfg.Key), nil
}

// UnaryInterceptor returns the actor interceptor configured with the app logger
func (a *App) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return interceptor.UnaryServerInterceptor(a.interceptorConfig())
}

// StreamInterceptor returns the stream flavour of UnaryInterceptor
func (a *App) StreamInterceptor() grpc.StreamServerInterceptor {
	return interceptor.StreamServerInterceptor(a.interceptorConfig())
}

func (a *App) interceptorConfig() interceptor.Config {
	return interceptor.Config{Logger: a.Logger, ExcludedMethods: a.ExcludedMethods}
}

// Close releases every connection in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Logger != nil {
		a.Logger.Sync()
	}
	return errors.Join(errs...)
}
