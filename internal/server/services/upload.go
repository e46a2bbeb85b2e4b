package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/A1iAshoor/s3-relay/internal/common"
	"github.com/A1iAshoor/s3-relay/internal/logging"
	sc "github.com/A1iAshoor/s3-relay/internal/server/config"
	"github.com/A1iAshoor/s3-relay/internal/server/dispatch"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
	"github.com/A1iAshoor/s3-relay/internal/server/owners"
	"github.com/A1iAshoor/s3-relay/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CompletionReport is a client's claim that a direct upload finished.
type CompletionReport struct {
	UUID        string
	Filename    string
	ContentType string
	PublicURL   string
	Owner       models.OwnerRef
}

// UploadService records completed uploads and exposes the ingestion queue.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	registry    *owners.Registry
	dispatcher  dispatch.Dispatcher
	config      *sc.Config
	logger      logging.Logger
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, registry *owners.Registry,
	dispatcher dispatch.Dispatcher, config *sc.Config, logger logging.Logger) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: m,
		registry:    registry,
		dispatcher:  dispatcher,
		config:      config,
		logger:      logger.With("module", "upload_service"),
	}
}

// matchesProvisionedKey checks that the reported public URL references the
// exact key provisioned for the ticket uuid: same scheme, same host, and a
// path equal to the public base path plus the key.
func matchesProvisionedKey(publicBase, key, reported string) bool {
	base, err := url.Parse(publicBase)
	if err != nil {
		return false
	}
	got, err := url.Parse(reported)
	if err != nil {
		return false
	}

	expectedPath := strings.TrimRight(base.Path, "/") + "/" + key

	return got.Scheme == base.Scheme &&
		got.Host == base.Host &&
		got.Path == expectedPath
}

// privateURL derives the authenticated retrieval location from the key.
// Derivation happens exactly once, at creation.
func (s *UploadService) privateURL(key string) string {
	return strings.TrimRight(s.config.PrivateBaseURL, "/") + "/" + key
}

// RecordCompletion validates a completion report and persists a pending
// queue entry. The entry is durably committed before the ingestion hook
// runs; a hook failure is surfaced as a warning and never rolls it back.
func (s *UploadService) RecordCompletion(ctx context.Context, actorID string, report *CompletionReport) (*models.QueueEntry, error) {

	if _, err := uuid.Parse(report.UUID); err != nil {
		return nil, fmt.Errorf("%w: malformed uuid %q", common.ErrInvalidRequest, report.UUID)
	}
	if !validFilename(report.Filename) {
		return nil, fmt.Errorf("%w: invalid filename %q", common.ErrInvalidRequest, report.Filename)
	}
	if report.ContentType == "" {
		return nil, fmt.Errorf("%w: missing content type", common.ErrInvalidRequest)
	}

	if err := s.registry.Authorize(ctx, actorID, report.Owner); err != nil {
		return nil, err
	}

	key := StorageKey(report.UUID, report.Filename)
	if !matchesProvisionedKey(s.config.PublicBaseURL, key, report.PublicURL) {
		return nil, fmt.Errorf("%w: %q is not the location provisioned for this upload", common.ErrURLMismatch, report.PublicURL)
	}

	entry := &models.QueueEntry{
		ID:          newUUID(),
		UUID:        report.UUID,
		Owner:       report.Owner,
		Filename:    report.Filename,
		ContentType: report.ContentType,
		PublicURL:   report.PublicURL,
		PrivateURL:  s.privateURL(key),
		State:       models.StatePending,
	}

	repo := s.repomanager.Queue(s.db)
	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.dispatcher.NotifyCreated(ctx, entry.Owner, entry.ID); err != nil {
		// The entry is already committed; it stays pending and remains
		// drainable through Pending().
		s.logger.Warn(ctx, "ingestion hook failed", "queue_entry_id", entry.ID, "error", err.Error())
	}

	return entry, nil
}

// Pending returns pending entries in creation order, optionally scoped to
// one owner. Draining order is deterministic.
func (s *UploadService) Pending(ctx context.Context, owner *models.OwnerRef) ([]*models.QueueEntry, error) {
	return s.repomanager.Queue(s.db).SelectPending(ctx, owner)
}

// MarkImported transitions an entry to imported. Calling it on an
// already-imported entry is a no-op success.
func (s *UploadService) MarkImported(ctx context.Context, id string) (*models.QueueEntry, error) {
	return s.repomanager.Queue(s.db).MarkImported(ctx, id)
}

// Destroy removes an entry. Retention scheduling is the owning
// application's responsibility.
func (s *UploadService) Destroy(ctx context.Context, id string) error {
	return s.repomanager.Queue(s.db).Delete(ctx, id)
}
