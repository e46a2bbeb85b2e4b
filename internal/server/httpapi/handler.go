package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/A1iAshoor/s3-relay/internal/server/models"
	"github.com/A1iAshoor/s3-relay/internal/server/services"
	"github.com/A1iAshoor/s3-relay/internal/server/signer"
)

type ticketResponse struct {
	UUID     string `json:"uuid"`
	Endpoint string `json:"endpoint"`
	Key      string `json:"key"`

	// Legacy flat aliases of the signature material, kept for form
	// builders that expect them by name.
	AWSAccessKeyID           string `json:"awsaccesskeyid"`
	Policy                   string `json:"policy"`
	Signature                string `json:"signature"`
	XAmzAlgorithm            string `json:"x_amz_algorithm"`
	XAmzCredential           string `json:"x_amz_credential"`
	XAmzDate                 string `json:"x_amz_date"`
	XAmzServerSideEncryption string `json:"x_amz_server_side_encryption"`
	SuccessActionStatus      string `json:"success_action_status"`
	ACL                      string `json:"acl"`
	ContentDisposition       string `json:"content_disposition"`

	// Fields is the complete bundle to submit verbatim before the file
	// part. It is authoritative; the aliases above are a subset.
	Fields    map[string]string `json:"fields"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type completionRequest struct {
	UUID        string `json:"uuid"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	PublicURL   string `json:"public_url"`
	OwnerType   string `json:"owner_type"`
	OwnerID     string `json:"owner_id"`
	OwnerSlot   string `json:"owner_slot"`
}

type completionResponse struct {
	ID         string `json:"id"`
	PrivateURL string `json:"private_url"`
}

type queueEntryResponse struct {
	ID          string     `json:"id"`
	UUID        string     `json:"uuid"`
	OwnerType   string     `json:"owner_type,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	OwnerSlot   string     `json:"owner_slot,omitempty"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	PublicURL   string     `json:"public_url"`
	PrivateURL  string     `json:"private_url"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	ImportedAt  *time.Time `json:"imported_at,omitempty"`
}

func entryToResponse(e *models.QueueEntry) queueEntryResponse {
	return queueEntryResponse{
		ID:          e.ID,
		UUID:        e.UUID,
		OwnerType:   e.Owner.Type,
		OwnerID:     e.Owner.ID,
		OwnerSlot:   e.Owner.Slot,
		Filename:    e.Filename,
		ContentType: e.ContentType,
		PublicURL:   e.PublicURL,
		PrivateURL:  e.PrivateURL,
		State:       e.State,
		CreatedAt:   e.CreatedAt,
		ImportedAt:  e.ImportedAt,
	}
}

// accessKeyID recovers the access key from a v4 credential scope string
// ("AKIA.../20260831/us-east-1/s3/aws4_request").
func accessKeyID(fields map[string]string) string {
	cred := fields["X-Amz-Credential"]
	if cred == "" {
		return ""
	}
	return strings.SplitN(cred, "/", 2)[0]
}

func ticketToResponse(t *models.UploadTicket) ticketResponse {
	f := t.Policy.Fields
	return ticketResponse{
		UUID:                     t.UUID,
		Endpoint:                 t.Policy.URL,
		Key:                      t.Key,
		AWSAccessKeyID:           accessKeyID(f),
		Policy:                   f["policy"],
		Signature:                f["X-Amz-Signature"],
		XAmzAlgorithm:            f["X-Amz-Algorithm"],
		XAmzCredential:           f["X-Amz-Credential"],
		XAmzDate:                 f["X-Amz-Date"],
		XAmzServerSideEncryption: f["x-amz-server-side-encryption"],
		SuccessActionStatus:      f["success_action_status"],
		ACL:                      f["acl"],
		ContentDisposition:       f["Content-Disposition"],
		Fields:                   f,
		ExpiresAt:                t.ExpiresAt,
	}
}

// NewUpload issues a fresh upload ticket for the declared filename and
// content type.
func (s *Server) NewUpload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	disposition, err := signer.ParseDisposition(q.Get("disposition"))
	if err != nil {
		writeError(w, err)
		return
	}

	ticket, err := s.tickets.Issue(r.Context(), q.Get("filename"), q.Get("content_type"), disposition)
	if err != nil {
		s.logger.Error(r.Context(), "ticket issuance failed", "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ticketToResponse(ticket))
}

// CreateUpload records a completed direct upload and enqueues it for
// ingestion.
func (s *Server) CreateUpload(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	report := &services.CompletionReport{
		UUID:        req.UUID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		PublicURL:   req.PublicURL,
		Owner: models.OwnerRef{
			Type: req.OwnerType,
			ID:   req.OwnerID,
			Slot: req.OwnerSlot,
		},
	}

	entry, err := s.uploads.RecordCompletion(r.Context(), ActorID(r.Context()), report)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, completionResponse{ID: entry.ID, PrivateURL: entry.PrivateURL})
}

// PendingUploads lists pending queue entries, optionally scoped to one
// owner via owner_type/owner_id query parameters.
func (s *Server) PendingUploads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var owner *models.OwnerRef
	if q.Get("owner_type") != "" || q.Get("owner_id") != "" {
		owner = &models.OwnerRef{Type: q.Get("owner_type"), ID: q.Get("owner_id")}
	}

	entries, err := s.uploads.Pending(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]queueEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// MarkImported acknowledges that the owning application ingested the entry.
func (s *Server) MarkImported(w http.ResponseWriter, r *http.Request) {
	entry, err := s.uploads.MarkImported(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryToResponse(entry))
}

// DestroyUpload removes a queue entry.
func (s *Server) DestroyUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.uploads.Destroy(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports process liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
