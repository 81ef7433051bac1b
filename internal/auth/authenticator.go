package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	anonymousSignInPath   = "/auth/anonymous"
	defaultClientTimeout  = 15 * time.Second
	identityChangedSignIn = "sign-in"
	identityChangedOut    = "sign-out"
)

var (
	errMissingAuthBaseURL = errors.New("auth: base url is required")
	// ErrSignInFailed wraps transport and server failures during sign-in.
	ErrSignInFailed = errors.New("auth: anonymous sign-in failed")
)

// AuthenticatorConfig bundles the client-side authenticator dependencies.
type AuthenticatorConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Authenticator holds the current identity and notifies observers when it
// changes. Observers receive the new identity, or nil on sign-out.
type Authenticator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu        sync.RWMutex
	identity  *Identity
	observers map[int64]func(*Identity)
	nextID    int64
}

// NewAuthenticator constructs the client-side authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errMissingAuthBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		baseURL:   base,
		client:    client,
		logger:    logger,
		observers: make(map[int64]func(*Identity)),
	}, nil
}

type anonymousSignInResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// SignInAnonymous obtains an anonymous identity from the mirror service and
// publishes the identity change to observers.
func (a *Authenticator) SignInAnonymous(ctx context.Context) (Identity, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+anonymousSignInPath, bytes.NewReader([]byte("{}")))
	if err != nil {
		return Identity{}, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := a.client.Do(request)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: unexpected status %d", ErrSignInFailed, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}

	var payload anonymousSignInResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}
	if payload.AccessToken == "" || payload.UserID == "" {
		return Identity{}, fmt.Errorf("%w: incomplete response", ErrSignInFailed)
	}

	identity := Identity{UserID: payload.UserID, Token: payload.AccessToken}
	a.setIdentity(&identity, identityChangedSignIn)
	return identity, nil
}

// SignOut drops the current identity and notifies observers with nil.
func (a *Authenticator) SignOut() {
	a.setIdentity(nil, identityChangedOut)
}

// Identity returns the current identity, if any.
func (a *Authenticator) Identity() (Identity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.identity == nil {
		return Identity{}, false
	}
	return *a.identity, true
}

// OnIdentityChange registers an observer and returns its unsubscribe func.
// The observer is invoked immediately with the current identity state.
func (a *Authenticator) OnIdentityChange(observer func(*Identity)) func() {
	if observer == nil {
		return func() {}
	}
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.observers[id] = observer
	current := a.identity
	a.mu.Unlock()

	observer(cloneIdentity(current))

	return func() {
		a.mu.Lock()
		delete(a.observers, id)
		a.mu.Unlock()
	}
}

func (a *Authenticator) setIdentity(identity *Identity, reason string) {
	a.mu.Lock()
	a.identity = identity
	observers := make([]func(*Identity), 0, len(a.observers))
	for _, observer := range a.observers {
		observers = append(observers, observer)
	}
	a.mu.Unlock()

	a.logger.Info("identity changed", zap.String("reason", reason))
	for _, observer := range observers {
		observer(cloneIdentity(identity))
	}
}

func cloneIdentity(identity *Identity) *Identity {
	if identity == nil {
		return nil
	}
	copied := *identity
	return &copied
}
