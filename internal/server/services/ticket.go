// Package services implements the upload relay's application services:
// ticket issuance and the completion/ingestion queue.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/A1iAshoor/s3-relay/internal/common"
	sc "github.com/A1iAshoor/s3-relay/internal/server/config"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
	"github.com/A1iAshoor/s3-relay/internal/server/signer"
	"github.com/google/uuid"
)

// newUUID is a seam for deterministic ids in tests.
var newUUID = uuid.NewString

// StorageKey builds the object key provisioned for one ticket. Namespacing
// by uuid guarantees collision-freedom and makes the key unguessable.
func StorageKey(ticketUUID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s", ticketUUID, filename)
}

func validFilename(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return true
}

// contentTypePrefix returns the media-type prefix a policy is scoped to,
// e.g. "image/png" -> "image/".
func contentTypePrefix(contentType string) (string, error) {
	idx := strings.Index(contentType, "/")
	if idx <= 0 {
		return "", fmt.Errorf("%w: malformed content type %q", common.ErrInvalidRequest, contentType)
	}
	return contentType[:idx+1], nil
}

// PolicySigner produces signed upload authorizations. *signer.Signer is
// the production implementation.
type PolicySigner interface {
	Sign(ctx context.Context, key, contentTypePrefix string, disposition signer.Disposition) (*models.SignedPolicy, error)
	Expiry() time.Duration
}

// TicketService issues upload tickets. It is stateless: a ticket that is
// never used leaves no trace, so abandoned uploads cannot pollute the queue.
type TicketService struct {
	signer PolicySigner
	config *sc.Config
}

func NewTicketService(sg PolicySigner, config *sc.Config) *TicketService {
	return &TicketService{signer: sg, config: config}
}

// Issue generates a fresh ticket: a new uuid, a key namespaced by that
// uuid, and a signed policy scoped to exactly that key and the reported
// content-type prefix. Safe to call concurrently; each call is independent.
func (s *TicketService) Issue(ctx context.Context, filename, contentType string, disposition signer.Disposition) (*models.UploadTicket, error) {

	if !validFilename(filename) {
		return nil, fmt.Errorf("%w: invalid filename %q", common.ErrInvalidRequest, filename)
	}
	prefix, err := contentTypePrefix(contentType)
	if err != nil {
		return nil, err
	}

	id := newUUID()
	key := StorageKey(id, filename)

	policy, err := s.signer.Sign(ctx, key, prefix, disposition)
	if err != nil {
		return nil, err
	}

	return &models.UploadTicket{
		UUID:      id,
		Key:       key,
		Policy:    policy,
		ExpiresAt: time.Now().Add(s.signer.Expiry()),
	}, nil
}
