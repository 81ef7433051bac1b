// Package mirror keeps the per-user remote document approximately in sync
// with local state. Pushes are whole-document field upserts; there is no
// incremental diffing and no conflict detection beyond the reconcile policy.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/notes"
)

const (
	documentPath   = "/users/me/document"
	defaultTimeout = 15 * time.Second
)

var (
	errMissingBaseURL  = errors.New("mirror: base url is required")
	errMissingIdentity = errors.New("mirror: identity is required")
	// ErrRemoteUnavailable wraps transport and server failures.
	ErrRemoteUnavailable = errors.New("mirror: remote store unavailable")
)

// Config bundles the adapter dependencies.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Adapter talks to the remote document store on behalf of one identity at a
// time. All calls are gated by the bearer token carried in the identity.
type Adapter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewAdapter constructs a remote mirror adapter.
func NewAdapter(cfg Config) (*Adapter, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errMissingBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{baseURL: base, client: client, logger: logger}, nil
}

type documentPayload struct {
	Notes json.RawMessage `json:"notes"`
}

// Pull fetches the remote notes snapshot for the identity. Absence of the
// document, or of its notes field, is reported as found=false, not an error.
func (a *Adapter) Pull(ctx context.Context, identity auth.Identity) ([]notes.Note, bool, error) {
	if identity.UserID == "" {
		return nil, false, errMissingIdentity
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+documentPath, http.NoBody)
	if err != nil {
		return nil, false, err
	}
	request.Header.Set("Authorization", "Bearer "+identity.Token)

	response, err := a.client.Do(request)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if response.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: unexpected status %d", ErrRemoteUnavailable, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	var document documentPayload
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, false, fmt.Errorf("mirror: decode document: %w", err)
	}
	if len(document.Notes) == 0 {
		return nil, false, nil
	}

	snapshot, err := notes.DecodeNotes(document.Notes)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

// Push replaces the notes field of the identity's remote document with the
// provided snapshot. Other fields of the document are preserved server-side.
func (a *Adapter) Push(ctx context.Context, identity auth.Identity, snapshot []notes.Note) error {
	if identity.UserID == "" {
		return errMissingIdentity
	}

	encoded, err := notes.EncodeNotes(snapshot)
	if err != nil {
		return err
	}
	body, err := json.Marshal(documentPayload{Notes: encoded})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, a.baseURL+documentPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+identity.Token)
	request.Header.Set("Content-Type", "application/json")

	response, err := a.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: unexpected status %d", ErrRemoteUnavailable, response.StatusCode)
	}
	return nil
}
