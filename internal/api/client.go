package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kedhare/gallery-cli/internal/session"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "gallery-cli/0.1"
)

// SessionStore is the credential store the client reads and mutates.
// Defined at the consumer per Go convention "accept interfaces, return
// structs"; internal/session provides the real implementation.
type SessionStore interface {
	Load() session.Session
	Save(session.Session) error
	SetAccessToken(token string) error
	Clear()
}

// Client is the HTTP client for the gallery server. Every outbound call
// goes through Do, which attaches the stored access token, detects the
// expired-token status, renews at most once per call (deduplicated
// across concurrent calls), and replays the original call exactly once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	passKey    string
	logger     *slog.Logger

	// renew deduplicates token renewal: concurrent expired calls share
	// one renewal flight, and a failed flight clears the session (and
	// so redirects) exactly once.
	renew singleflight.Group
}

// NewClient creates a gallery server client. passKey is the shared
// password-obfuscation passphrase from configuration.
func NewClient(baseURL string, httpClient *http.Client, store SessionStore, passKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
		passKey:    passKey,
		logger:     logger,
	}
}

// Do executes a request against the server. body may be nil; non-nil
// bodies are sent as JSON unless contentType overrides it via DoTyped.
// On success the caller owns the response body. Non-2xx responses are
// returned as *APIError; of those, only the expired-token status ever
// triggers the renew-and-replay sequence, and only once.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	return c.DoTyped(ctx, method, path, body, contentTypeJSON)
}

// DoTyped is Do with an explicit Content-Type, for multipart uploads.
func (c *Client) DoTyped(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	resp, err := c.dispatch(ctx, method, path, body, contentType, c.store.Load().AccessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != StatusTokenExpired {
		return c.finish(resp, method, path, false)
	}

	// Expired access token: drop this response, renew, replay once.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Debug("access token expired, renewing",
		slog.String("method", method),
		slog.String("path", path),
	)

	token, err := c.renewAccess(ctx)
	if err != nil {
		// The renewal error is surfaced, not the original 493.
		return nil, err
	}

	retried, err := c.dispatch(ctx, method, path, body, contentType, token)
	if err != nil {
		return nil, err
	}

	// The replayed call's outcome is final — a second expired status is
	// classified and returned, never renewed again.
	return c.finish(retried, method, path, true)
}

// dispatch executes a single HTTP request with the given bearer token
// (unauthenticated when empty). body is a byte slice, not a reader, so
// the same call is trivially replayable after renewal.
func (c *Client) dispatch(ctx context.Context, method, path string, body []byte, contentType, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", userAgent)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("dispatching request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", reqID),
		slog.Bool("authenticated", token != ""),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}

	return resp, nil
}

// finish classifies a response. 2xx passes through with the body open;
// anything else is drained, closed, and wrapped in *APIError.
func (c *Client) finish(resp *http.Response, method, path string, replayed bool) (*http.Response, error) {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	if replayed && resp.StatusCode == StatusTokenExpired {
		c.logger.Error("replayed call expired again, giving up",
			slog.String("method", method),
			slog.String("path", path),
		)
	}

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Request.Header.Get("X-Request-ID"),
		Message:    serverMessage(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// renewAccess obtains a fresh access token using the stored refresh
// token. Single-flight: concurrent callers share the first flight's
// outcome. An absent or rejected refresh token cascades to logout —
// exactly once per flight, because the cascade runs inside it.
func (c *Client) renewAccess(ctx context.Context) (string, error) {
	// The flight outlives any one caller's context; a canceled caller
	// must not poison the renewal its peers are waiting on.
	flightCtx := context.WithoutCancel(ctx)

	v, err, shared := c.renew.Do("renew", func() (any, error) {
		sess := c.store.Load()
		if sess.RefreshToken == "" {
			c.logger.Warn("expired access token with no refresh token, logging out")
			c.Logout(flightCtx)

			return nil, ErrNotLoggedIn
		}

		token, refreshErr := c.refreshToken(flightCtx, sess.RefreshToken)
		if refreshErr != nil {
			c.logger.Warn("token renewal failed, logging out",
				slog.String("error", refreshErr.Error()),
			)
			c.Logout(flightCtx)

			return nil, fmt.Errorf("renewing session: %w", refreshErr)
		}

		if saveErr := c.store.SetAccessToken(token); saveErr != nil {
			return nil, fmt.Errorf("persisting renewed token: %w", saveErr)
		}

		c.logger.Info("access token renewed")

		return token, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		c.logger.Debug("joined in-flight token renewal")
	}

	token, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("api: unexpected renewal result type %T", v)
	}

	return token, nil
}

// refreshToken calls the renewal endpoint directly — unauthenticated,
// outside Do, so it can never recurse into another renewal.
func (c *Client) refreshToken(ctx context.Context, refresh string) (string, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return "", fmt.Errorf("api: encoding refresh request: %w", err)
	}

	resp, err := c.dispatch(ctx, http.MethodPost, "/api/auth/refresh-token", body, contentTypeJSON, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(resp.Body)

		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	var parsed struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("api: decoding refresh response: %w", err)
	}

	if parsed.AccessToken == "" {
		return "", fmt.Errorf("api: refresh response missing access token")
	}

	return parsed.AccessToken, nil
}

// getJSON is a convenience wrapper: Do + decode into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decoding %s response: %w", path, err)
	}

	return nil
}

// postJSON marshals in, POSTs it, and decodes into out when non-nil.
func (c *Client) postJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte

	if in != nil {
		var err error

		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encoding %s request: %w", path, err)
		}
	}

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decoding %s response: %w", path, err)
	}

	return nil
}
