// Package server initializes and runs the upload relay server.
// It wires the database, migrations, the policy signer, the owner registry
// and hook dispatch, and starts the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/A1iAshoor/s3-relay/internal/logging"
	"github.com/A1iAshoor/s3-relay/internal/server/config"
	"github.com/A1iAshoor/s3-relay/internal/server/dispatch"
	"github.com/A1iAshoor/s3-relay/internal/server/httpapi"
	"github.com/A1iAshoor/s3-relay/internal/server/owners"
	"github.com/A1iAshoor/s3-relay/internal/server/repositories/repomanager"
	"github.com/A1iAshoor/s3-relay/internal/server/services"
	"github.com/A1iAshoor/s3-relay/internal/server/signer"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	registry      *owners.Registry
	ticketService *services.TicketService
	uploadService *services.UploadService
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	sg, err := signer.New(signer.Config{
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		Region:          c.S3Region,
		Bucket:          c.S3Bucket,
		BaseEndpoint:    c.S3BaseEndpoint,
		DefaultACL:      c.S3ACL,
		Expiry:          c.TicketTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("signer init error: %w", err)
	}

	registry := owners.NewRegistry()

	dispatcher, err := newDispatcher(c, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("dispatch init error: %w", err)
	}

	ts := services.NewTicketService(sg, c)
	us := services.NewUploadService(db, rm, registry, dispatcher, c, logger)

	return &App{
		config:        c,
		logger:        logger,
		registry:      registry,
		ticketService: ts,
		uploadService: us,
	}, nil
}

// newDispatcher selects hook delivery: NATS when a broker URL is
// configured, otherwise in-process via the owner registry.
func newDispatcher(c *config.Config, registry *owners.Registry, logger logging.Logger) (dispatch.Dispatcher, error) {
	if c.NATSURL == "" {
		return dispatch.NewRegistryDispatcher(registry, logger), nil
	}

	conn, err := nats.Connect(c.NATSURL)
	if err != nil {
		return nil, err
	}
	return dispatch.NewNATSDispatcher(conn, c.NATSSubject, logger), nil
}

// Owners exposes the registry so the host application can register its
// owner types before Run.
func (app *App) Owners() *owners.Registry {
	return app.registry
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.ticketService, app.uploadService, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
