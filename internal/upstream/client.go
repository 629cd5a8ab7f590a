package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/caregate/caregate/internal/session"
)

// StatusNetwork is the synthetic status carried by errors for requests that
// never produced an HTTP response.
const StatusNetwork = 0

// Error is the single error shape every upstream failure is normalized into.
// Body keeps the raw response for diagnostics; it is never echoed to users.
type Error struct {
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	if e.Status == StatusNetwork {
		return fmt.Sprintf("upstream: %s", e.Message)
	}
	return fmt.Sprintf("upstream: %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	ue, ok := err.(*Error)
	return ok && ue.Status == http.StatusUnauthorized
}

// Options configures a single request. The zero value is an authenticated
// GET with no body.
type Options struct {
	Method    string
	Body      any
	Anonymous bool // skip the Authorization header
}

// Client talks to the care-platform REST API on behalf of a session. The
// session manager is injected so a 401 can clear the session in one place
// instead of at every call site.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *session.Manager
}

func NewClient(baseURL string, timeout time.Duration, sessions *session.Manager) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		sessions: sessions,
	}
}

// Do issues one request and returns the raw response body. Non-2xx statuses
// and transport failures come back as *Error. On 401 the session's tokens
// are cleared before the error is returned; the caller is expected to send
// the user back to /login.
func (c *Client) Do(ctx context.Context, sess *session.Session, endpoint string, opt Options) ([]byte, error) {
	method := opt.Method
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if opt.Body != nil {
		data, err := json.Marshal(opt.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if !opt.Anonymous && sess.IsAuthenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Status: StatusNetwork, Message: "network error: upstream unreachable"}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: StatusNetwork, Message: "network error: reading upstream response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Status:  resp.StatusCode,
			Message: extractMessage(respBody),
			Body:    respBody,
		}
		if resp.StatusCode == http.StatusUnauthorized && sess != nil {
			// Any 401 means the tokens are no longer valid anywhere.
			if clearErr := c.sessions.ClearTokens(ctx, sess); clearErr != nil {
				log.Printf("clear session %s after 401: %v", sess.ID, clearErr)
			}
		}
		return nil, apiErr
	}

	return respBody, nil
}

// extractMessage pulls the human-readable message out of an error body,
// falling back to a generic one.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "request failed"
}

// Phone is the wire form of a phone number: a two-element array of country
// code and local number.
type Phone struct {
	CountryCode string
	Number      string
}

func (p Phone) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.CountryCode, p.Number})
}

func (p *Phone) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.CountryCode = pair[0]
	p.Number = pair[1]
	return nil
}

// DecodeList normalizes the two list shapes the upstream produces: a bare
// JSON array, or an object wrapping the array under a pluralized key. Each
// service applies it once at the boundary so call sites see one shape.
func DecodeList(body []byte, key string) ([]json.RawMessage, error) {
	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode list: unexpected response shape")
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("decode list: response has no %q field", key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("decode list: %q is not an array", key)
	}
	return items, nil
}
