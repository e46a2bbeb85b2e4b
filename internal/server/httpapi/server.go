// Package httpapi exposes the upload relay over HTTP: ticket issuance and
// completion for browsers, queue draining for the owning application.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/A1iAshoor/s3-relay/internal/logging"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
	"github.com/A1iAshoor/s3-relay/internal/server/services"
	"github.com/A1iAshoor/s3-relay/internal/server/signer"
)

// TicketIssuer issues upload tickets. *services.TicketService is the
// production implementation.
type TicketIssuer interface {
	Issue(ctx context.Context, filename, contentType string, disposition signer.Disposition) (*models.UploadTicket, error)
}

// UploadRecorder manages the ingestion queue. *services.UploadService is
// the production implementation.
type UploadRecorder interface {
	RecordCompletion(ctx context.Context, actorID string, report *services.CompletionReport) (*models.QueueEntry, error)
	Pending(ctx context.Context, owner *models.OwnerRef) ([]*models.QueueEntry, error)
	MarkImported(ctx context.Context, id string) (*models.QueueEntry, error)
	Destroy(ctx context.Context, id string) error
}

type Server struct {
	address   string
	tickets   TicketIssuer
	uploads   UploadRecorder
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(a string, l logging.Logger, ts TicketIssuer, us UploadRecorder, secretKey string) (*Server, error) {
	return &Server{
		address:   a,
		logger:    l.With("module", "http_server"),
		tickets:   ts,
		uploads:   us,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Router assembles the route tree. Split out from Run so tests can drive
// it through httptest.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.Health)

	r.Route("/uploads", func(r chi.Router) {
		r.Use(s.requireActor)
		r.Get("/new", s.NewUpload)
		r.Post("/", s.CreateUpload)
		r.Get("/pending", s.PendingUploads)
		r.Post("/{id}/imported", s.MarkImported)
		r.Delete("/{id}", s.DestroyUpload)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
