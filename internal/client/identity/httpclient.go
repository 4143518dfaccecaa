package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/logging"
)

// accessTokenSlack is how close to expiry an access token may get before
// AccessToken refreshes it proactively.
const accessTokenSlack = 15 * time.Second

// Client implements Provider against the stocklive HTTP API. Tokens live in
// memory; in durable persistence mode the refresh token is additionally
// written to the local cache so the next run can resume the session.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *Cache
	log     logging.Logger

	mu           sync.Mutex
	mode         PersistenceMode
	actor        *models.Actor
	accessToken  string
	refreshToken string

	changes   chan Change
	closeOnce sync.Once
}

// NewClient builds an identity client for the given server base URL,
// e.g. "http://127.0.0.1:8780". The cache backs durable persistence mode.
func NewClient(baseURL string, cache *Cache, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
		log:     log.With("module", "identity_client"),
		mode:    ModeEphemeral,
		changes: make(chan Change, 16),
	}
}

// Start resolves any persisted credentials and emits the initial session
// change: the resumed actor on success, absence otherwise. It always emits
// exactly one Change before returning.
func (c *Client) Start(ctx context.Context) error {
	if err := c.cache.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("cache init: %w", err)
	}

	token, err := c.cache.Get(ctx, cacheKeyRefreshToken)
	if err != nil {
		return fmt.Errorf("cache read: %w", err)
	}
	if token == "" {
		c.emit(Change{})
		return nil
	}

	// A persisted token implies the previous login asked to be remembered.
	c.mu.Lock()
	c.mode = ModeDurable
	c.mu.Unlock()

	actor, err := c.refresh(ctx, token)
	if err != nil {
		c.log.Warn(ctx, "persisted session not resumable", "err", err)
		if err := c.cache.Clear(ctx); err != nil {
			c.log.Error(ctx, "cache clear failed", "err", err)
		}
		c.emit(Change{})
		return nil
	}

	c.emit(Change{Actor: actor})
	return nil
}

// SessionChanges returns the notification stream. The channel is closed by
// Close.
func (c *Client) SessionChanges() <-chan Change {
	return c.changes
}

func (c *Client) CreateAccount(ctx context.Context, email, password, displayName string) (*models.Actor, error) {
	var resp api.AuthResponse
	req := api.SignUpRequest{Email: email, Password: password, DisplayName: displayName}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signup", req, &resp, false); err != nil {
		return nil, err
	}

	actor := actorFromWire(resp.Actor)
	if err := c.adoptSession(ctx, actor, resp.Tokens); err != nil {
		return nil, err
	}
	c.emit(Change{Actor: actor})
	return actor, nil
}

func (c *Client) VerifyCredentials(ctx context.Context, email, password string) (*models.Actor, error) {
	var resp api.AuthResponse
	req := api.LogInRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp, false); err != nil {
		return nil, err
	}

	actor := actorFromWire(resp.Actor)
	if err := c.adoptSession(ctx, actor, resp.Tokens); err != nil {
		return nil, err
	}
	c.emit(Change{Actor: actor})
	return actor, nil
}

// SignOut revokes the refresh token server-side (best effort), drops all
// local credentials and emits an absence change. Calling it while already
// signed out only re-emits absence.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.actor = nil
	c.accessToken = ""
	c.refreshToken = ""
	c.mu.Unlock()

	if refresh != "" {
		req := api.LogOutRequest{RefreshToken: refresh}
		if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/logout", req, nil, false); err != nil {
			c.log.Warn(ctx, "token revocation failed", "err", err)
		}
	}
	if err := c.cache.Clear(ctx); err != nil {
		c.log.Error(ctx, "cache clear failed", "err", err)
	}

	c.emit(Change{})
	return nil
}

// SendReset asks the server to start a password reset. Per the session
// contract every failure surfaces as KindUnknown.
func (c *Client) SendReset(ctx context.Context, email string) error {
	req := api.ResetRequest{Email: email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/reset", req, nil, false); err != nil {
		return NewError(KindUnknown, err)
	}
	return nil
}

func (c *Client) UpdateDisplayName(ctx context.Context, name string) error {
	var resp api.Actor
	req := api.ProfileRequest{DisplayName: name}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/v1/auth/profile", req, &resp, true); err != nil {
		return err
	}

	actor := actorFromWire(resp)
	c.mu.Lock()
	c.actor = actor
	c.mu.Unlock()
	c.emit(Change{Actor: actor})
	return nil
}

// SetPersistenceMode selects where the next login's refresh token lives.
// Must be called before the credential exchange it governs.
func (c *Client) SetPersistenceMode(ctx context.Context, mode PersistenceMode) error {
	if mode != ModeDurable && mode != ModeEphemeral {
		return NewError(KindUnknown, fmt.Errorf("unknown persistence mode %d", mode))
	}
	if mode == ModeDurable {
		// Fail here, not mid-login, when the cache is unusable.
		if err := c.cache.EnsureSchema(ctx); err != nil {
			return NewError(KindUnknown, err)
		}
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	return nil
}

// AccessToken returns a usable access token for authenticated calls,
// refreshing it first when it is about to expire.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.accessToken
	refresh := c.refreshToken
	c.mu.Unlock()

	if token == "" {
		return "", fmt.Errorf("not authenticated")
	}
	if !aboutToExpire(token) {
		return token, nil
	}
	if refresh == "" {
		return token, nil
	}

	if _, err := c.refresh(ctx, refresh); err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}

	c.mu.Lock()
	token = c.accessToken
	c.mu.Unlock()
	return token, nil
}

// Close shuts the change stream down.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.changes) })
	return nil
}

// refresh exchanges a refresh token for a fresh token pair and updates the
// cached actor. The server rotates refresh tokens on every exchange.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*models.Actor, error) {
	var resp api.AuthResponse
	req := api.RefreshRequest{RefreshToken: refreshToken}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh", req, &resp, false); err != nil {
		return nil, err
	}

	actor := actorFromWire(resp.Actor)
	if err := c.adoptSession(ctx, actor, resp.Tokens); err != nil {
		return nil, err
	}
	return actor, nil
}

// adoptSession installs a token pair and actor, persisting or clearing the
// durable copy of the refresh token according to the persistence mode.
func (c *Client) adoptSession(ctx context.Context, actor *models.Actor, tokens api.TokenPair) error {
	c.mu.Lock()
	c.actor = actor
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	mode := c.mode
	c.mu.Unlock()

	if mode == ModeDurable {
		if err := c.cache.Set(ctx, cacheKeyRefreshToken, tokens.RefreshToken); err != nil {
			return fmt.Errorf("persisting refresh token: %w", err)
		}
		return nil
	}
	// Ephemeral logins must not leave an older durable token behind.
	if err := c.cache.Clear(ctx); err != nil {
		c.log.Warn(ctx, "cache clear failed", "err", err)
	}
	return nil
}

// emit delivers a change, coalescing to the latest when the consumer lags.
func (c *Client) emit(ch Change) {
	select {
	case c.changes <- ch:
	default:
		select {
		case <-c.changes:
		default:
		}
		select {
		case c.changes <- ch:
		default:
		}
	}
}

// doJSON performs one JSON request/response round trip. Non-2xx responses
// are decoded into the wire error envelope and classified.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return NewError(KindUnknown, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return NewError(KindUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := c.AccessToken(ctx)
		if err != nil {
			return NewError(KindUnknown, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return NewError(KindUnknown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(KindUnknown, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func classifyResponse(resp *http.Response) error {
	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return NewError(KindUnknown, fmt.Errorf("http %d", resp.StatusCode))
	}
	return NewError(kindForCode(envelope.Error.Code),
		fmt.Errorf("%s (http %d)", envelope.Error.Message, resp.StatusCode))
}

func kindForCode(code string) Kind {
	switch code {
	case api.CodeEmailInUse:
		return KindEmailInUse
	case api.CodeInvalidEmail:
		return KindInvalidEmail
	case api.CodeWeakPassword:
		return KindWeakPassword
	case api.CodeUserDisabled:
		return KindUserDisabled
	case api.CodeUserNotFound:
		return KindUserNotFound
	case api.CodeWrongPassword:
		return KindWrongPassword
	default:
		return KindUnknown
	}
}

func actorFromWire(a api.Actor) *models.Actor {
	return &models.Actor{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

// aboutToExpire reports whether the token's exp claim is within
// accessTokenSlack of now. The claim is read without verification; only the
// server validates signatures.
func aboutToExpire(token string) bool {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Until(exp.Time) < accessTokenSlack
}
