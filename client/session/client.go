package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/tbox/dashboard/client/store"
	"github.com/tbox/dashboard/credential"
	"github.com/tbox/dashboard/models"
)

// SignupRequest is the body of POST /signup
type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Tbox     string `json:"tbox,omitempty"`
}

// AuthEvent is one entry of the caller's sign-in activity
type AuthEvent struct {
	Action    string    `json:"action"`
	Channel   string    `json:"channel,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginResponse struct {
	Message string              `json:"message"`
	Token   string              `json:"token"`
	User    credential.Identity `json:"user"`
}

type messageBody struct {
	Message string `json:"message"`
}

// APIClient talks to the dashboard API. Login is the only writer of the
// session record besides the Terminator.
type APIClient struct {
	baseURL  *url.URL
	http     *http.Client
	sessions *store.SessionStore
}

// NewAPIClient creates a client with its own cookie jar
func NewAPIClient(baseURL string, sessions *store.SessionStore, timeout time.Duration) (*APIClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &APIClient{
		baseURL:  u,
		http:     &http.Client{Jar: jar, Timeout: timeout},
		sessions: sessions,
	}, nil
}

// BaseURL returns the API origin
func (c *APIClient) BaseURL() *url.URL {
	return c.baseURL
}

// Jar returns the cookie jar shared by all requests
func (c *APIClient) Jar() http.CookieJar {
	return c.http.Jar
}

// HTTPClient returns the underlying client
func (c *APIClient) HTTPClient() *http.Client {
	return c.http
}

// Verifier returns a RemoteVerifier sharing this client's transport
func (c *APIClient) Verifier() *HTTPVerifier {
	return NewHTTPVerifier(c.baseURL.String(), c.http)
}

// Login exchanges email and password for a credential and saves the session
// record. Every new login replaces the previous record.
func (c *APIClient) Login(ctx context.Context, email, password string) (store.SessionRecord, error) {
	body := map[string]string{"email": email, "password": password}

	var out loginResponse
	status, err := c.do(ctx, http.MethodPost, "/login", body, "", &out)
	if err != nil {
		return store.SessionRecord{}, err
	}
	if status == http.StatusUnauthorized {
		return store.SessionRecord{}, ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return store.SessionRecord{}, &APIError{Status: status, Message: out.Message}
	}
	if out.Token == "" {
		return store.SessionRecord{}, transportError("login response without token")
	}

	record := store.SessionRecord{Token: out.Token, Identity: out.User}
	if err := c.sessions.Save(ctx, record); err != nil {
		return store.SessionRecord{}, fmt.Errorf("failed to save session: %w", err)
	}
	return record, nil
}

// Signup registers a new account
func (c *APIClient) Signup(ctx context.Context, req SignupRequest) error {
	var out messageBody
	status, err := c.do(ctx, http.MethodPost, "/signup", req, "", &out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &APIError{Status: status, Message: out.Message}
	}
	return nil
}

// Vehicle returns the latest telemetry snapshot of a device
func (c *APIClient) Vehicle(ctx context.Context, deviceName string) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := c.authorized(ctx, "/api/vehicle/"+url.PathEscape(deviceName), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User returns an account by id
func (c *APIClient) User(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	if err := c.authorized(ctx, "/get-user/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthEvents returns the caller's most recent auth events
func (c *APIClient) AuthEvents(ctx context.Context, limit int) ([]AuthEvent, error) {
	var out struct {
		Data []AuthEvent `json:"data"`
	}
	path := "/api/auth-events?limit=" + strconv.Itoa(limit)
	if err := c.authorized(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *APIClient) authorized(ctx context.Context, path string, out interface{}) error {
	record, ok, err := c.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return ErrNoSession
	}

	raw := json.RawMessage{}
	status, err := c.do(ctx, http.MethodGet, path, nil, record.Token, &raw)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusUnauthorized:
		return ErrDenied
	case status != http.StatusOK:
		var msg messageBody
		_ = json.Unmarshal(raw, &msg)
		return &APIError{Status: status, Message: msg.Message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return transportError("decode response: %v", err)
	}
	return nil
}

// do sends a JSON request and decodes the JSON reply into out whatever the
// status. Only failures to get a reply are returned as errors.
func (c *APIClient) do(ctx context.Context, method, path string, body interface{}, token string, out interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return 0, fmt.Errorf("invalid path %q: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), reader)
	if err != nil {
		return 0, transportError("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode == http.StatusOK {
		return 0, transportError("decode response: %v", err)
	}
	return resp.StatusCode, nil
}
