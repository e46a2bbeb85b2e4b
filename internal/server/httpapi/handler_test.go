package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/A1iAshoor/s3-relay/internal/common"
	"github.com/A1iAshoor/s3-relay/internal/logging"
	"github.com/A1iAshoor/s3-relay/internal/server/auth"
	"github.com/A1iAshoor/s3-relay/internal/server/models"
	"github.com/A1iAshoor/s3-relay/internal/server/services"
	"github.com/A1iAshoor/s3-relay/internal/server/signer"
)

// ---- test logger ----

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeTickets struct {
	ticket *models.UploadTicket
	err    error

	gotFilename    string
	gotContentType string
	gotDisposition signer.Disposition
}

func (f *fakeTickets) Issue(ctx context.Context, filename, contentType string, disposition signer.Disposition) (*models.UploadTicket, error) {
	f.gotFilename = filename
	f.gotContentType = contentType
	f.gotDisposition = disposition
	return f.ticket, f.err
}

type fakeUploads struct {
	entry     *models.QueueEntry
	recordErr error

	gotActorID string
	gotReport  *services.CompletionReport

	pending []*models.QueueEntry
	selErr  error

	imported    *models.QueueEntry
	importedErr error
	importedID  string

	destroyErr error
	destroyID  string
}

func (f *fakeUploads) RecordCompletion(ctx context.Context, actorID string, report *services.CompletionReport) (*models.QueueEntry, error) {
	f.gotActorID = actorID
	f.gotReport = report
	return f.entry, f.recordErr
}

func (f *fakeUploads) Pending(ctx context.Context, owner *models.OwnerRef) ([]*models.QueueEntry, error) {
	return f.pending, f.selErr
}

func (f *fakeUploads) MarkImported(ctx context.Context, id string) (*models.QueueEntry, error) {
	f.importedID = id
	return f.imported, f.importedErr
}

func (f *fakeUploads) Destroy(ctx context.Context, id string) error {
	f.destroyID = id
	return f.destroyErr
}

// ---- helpers ----

const testSecret = "super-secret"

func newTestServer(ts TicketIssuer, us UploadRecorder) *Server {
	return &Server{
		address:   "127.0.0.1:0",
		tickets:   ts,
		uploads:   us,
		logger:    nopLogger{},
		jwtSecret: []byte(testSecret),
	}
}

func doAuthed(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken("alice", []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func testTicket() *models.UploadTicket {
	return &models.UploadTicket{
		UUID: "u1",
		Key:  "uploads/u1/a.png",
		Policy: &models.SignedPolicy{
			URL: "http://127.0.0.1:9000/uploads",
			Fields: map[string]string{
				"key":                          "uploads/u1/a.png",
				"policy":                       "cG9saWN5",
				"X-Amz-Algorithm":              "AWS4-HMAC-SHA256",
				"X-Amz-Credential":             "AKIAEXAMPLE/20260831/us-east-1/s3/aws4_request",
				"X-Amz-Date":                   "20260831T000000Z",
				"X-Amz-Signature":              "sig",
				"x-amz-server-side-encryption": "AES256",
				"success_action_status":        "201",
				"acl":                          "private",
				"Content-Disposition":          "attachment",
			},
		},
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
}

// ---- tests ----

func TestNewUpload_OK(t *testing.T) {
	ts := &fakeTickets{ticket: testTicket()}
	s := newTestServer(ts, &fakeUploads{})

	rec := doAuthed(t, s, http.MethodGet, "/uploads/new?filename=a.png&content_type=image/png&disposition=attachment", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if ts.gotFilename != "a.png" || ts.gotContentType != "image/png" || ts.gotDisposition != signer.DispositionAttachment {
		t.Fatalf("issuer got %q %q %q", ts.gotFilename, ts.gotContentType, ts.gotDisposition)
	}

	var resp ticketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.UUID != "u1" || resp.Key != "uploads/u1/a.png" {
		t.Fatalf("unexpected ticket: %+v", resp)
	}
	if resp.Endpoint != "http://127.0.0.1:9000/uploads" {
		t.Fatalf("unexpected endpoint: %q", resp.Endpoint)
	}
	if resp.AWSAccessKeyID != "AKIAEXAMPLE" {
		t.Fatalf("access key not recovered from credential scope: %q", resp.AWSAccessKeyID)
	}
	if resp.Signature != "sig" || resp.Policy != "cG9saWN5" {
		t.Fatalf("signature material missing: %+v", resp)
	}
	if resp.XAmzServerSideEncryption != "AES256" {
		t.Fatalf("encryption directive missing: %+v", resp)
	}
	if resp.XAmzAlgorithm != "AWS4-HMAC-SHA256" || resp.XAmzDate != "20260831T000000Z" {
		t.Fatalf("v4 signature fields missing: %+v", resp)
	}
	if resp.ContentDisposition != "attachment" {
		t.Fatalf("content disposition missing: %+v", resp)
	}
	if resp.Fields["key"] != "uploads/u1/a.png" {
		t.Fatalf("verbatim fields missing: %+v", resp.Fields)
	}
}

func TestNewUpload_BadDisposition(t *testing.T) {
	s := newTestServer(&fakeTickets{}, &fakeUploads{})

	rec := doAuthed(t, s, http.MethodGet, "/uploads/new?filename=a.png&content_type=image/png&disposition=explode", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestNewUpload_SigningError(t *testing.T) {
	ts := &fakeTickets{err: common.ErrSigning}
	s := newTestServer(ts, &fakeUploads{})

	rec := doAuthed(t, s, http.MethodGet, "/uploads/new?filename=a.png&content_type=image/png", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Message != "internal server error" {
		t.Fatalf("internals leaked: %q", body.Message)
	}
}

func TestCreateUpload_OK(t *testing.T) {
	us := &fakeUploads{entry: &models.QueueEntry{ID: "qe1", PrivateURL: "s3://uploads/uploads/u1/a.png"}}
	s := newTestServer(&fakeTickets{}, us)

	body := []byte(`{"uuid":"u1","filename":"a.png","content_type":"image/png","public_url":"http://127.0.0.1:9000/uploads/uploads/u1/a.png","owner_type":"Product","owner_id":"p1","owner_slot":"photo"}`)
	rec := doAuthed(t, s, http.MethodPost, "/uploads", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	if us.gotActorID != "alice" {
		t.Fatalf("actor id not propagated: %q", us.gotActorID)
	}
	if us.gotReport.UUID != "u1" || us.gotReport.Owner.Type != "Product" || us.gotReport.Owner.Slot != "photo" {
		t.Fatalf("unexpected report: %+v", us.gotReport)
	}

	var resp completionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.ID != "qe1" || resp.PrivateURL != "s3://uploads/uploads/u1/a.png" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateUpload_MalformedBody(t *testing.T) {
	s := newTestServer(&fakeTickets{}, &fakeUploads{})

	rec := doAuthed(t, s, http.MethodPost, "/uploads", []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestCreateUpload_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid request", err: common.ErrInvalidRequest, want: http.StatusBadRequest},
		{name: "owner unauthorized", err: common.ErrOwnerUnauthorized, want: http.StatusForbidden},
		{name: "duplicate", err: common.ErrDuplicateUpload, want: http.StatusConflict},
		{name: "url mismatch", err: common.ErrURLMismatch, want: http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeTickets{}, &fakeUploads{recordErr: tc.err})
			rec := doAuthed(t, s, http.MethodPost, "/uploads", []byte(`{"uuid":"u1"}`))
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d", tc.want, rec.Code)
			}

			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if body.Message == "" {
				t.Fatal("error body must carry a message")
			}
		})
	}
}

func TestPendingUploads_OK(t *testing.T) {
	now := time.Now()
	us := &fakeUploads{pending: []*models.QueueEntry{
		{ID: "qe1", UUID: "u1", Filename: "a.png", State: models.StatePending, CreatedAt: now,
			Owner: models.OwnerRef{Type: "Product", ID: "p1"}},
	}}
	s := newTestServer(&fakeTickets{}, us)

	rec := doAuthed(t, s, http.MethodGet, "/uploads/pending?owner_type=Product&owner_id=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var resp []queueEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "qe1" || resp[0].State != models.StatePending {
		t.Fatalf("unexpected entries: %+v", resp)
	}
	if resp[0].OwnerType != "Product" || resp[0].OwnerID != "p1" {
		t.Fatalf("owner not mapped: %+v", resp[0])
	}
}

func TestPendingUploads_EmptyIsArray(t *testing.T) {
	s := newTestServer(&fakeTickets{}, &fakeUploads{})

	rec := doAuthed(t, s, http.MethodGet, "/uploads/pending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("want empty array, got %q", got)
	}
}

func TestMarkImported_OK(t *testing.T) {
	importedAt := time.Now()
	us := &fakeUploads{imported: &models.QueueEntry{ID: "qe1", State: models.StateImported, ImportedAt: &importedAt}}
	s := newTestServer(&fakeTickets{}, us)

	rec := doAuthed(t, s, http.MethodPost, "/uploads/qe1/imported", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if us.importedID != "qe1" {
		t.Fatalf("id not propagated: %q", us.importedID)
	}

	var resp queueEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.State != models.StateImported || resp.ImportedAt == nil {
		t.Fatalf("unexpected entry: %+v", resp)
	}
}

func TestMarkImported_NotFound(t *testing.T) {
	s := newTestServer(&fakeTickets{}, &fakeUploads{importedErr: common.ErrNotFound})

	rec := doAuthed(t, s, http.MethodPost, "/uploads/nope/imported", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestDestroyUpload_OK(t *testing.T) {
	us := &fakeUploads{}
	s := newTestServer(&fakeTickets{}, us)

	rec := doAuthed(t, s, http.MethodDelete, "/uploads/qe1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", rec.Code)
	}
	if us.destroyID != "qe1" {
		t.Fatalf("id not propagated: %q", us.destroyID)
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	s := newTestServer(&fakeTickets{}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
