package signin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finitefield.org/care-portal/internal/portal/login"
)

// HTTPClient matches the subset of http.Client used by the services here.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService posts form-encoded credentials to an authentication endpoint
// that answers with JSON `{"error": "...", "role": "..."}`.
type HTTPService struct {
	endpoint *url.URL
	client   HTTPClient
}

// NewHTTPService constructs an HTTPService. A nil client uses an http.Client
// with the given timeout; zero means no client-side timeout.
func NewHTTPService(endpoint string, client HTTPClient, timeout time.Duration) (*HTTPService, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("signin: endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("signin: parse endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("signin: endpoint must be http or https, got %q", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPService{endpoint: parsed, client: client}, nil
}

// SignIn implements login.Authenticator.
func (s *HTTPService) SignIn(ctx context.Context, creds login.Credentials) (login.Response, error) {
	form := creds.Values()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return login.Response{}, fmt.Errorf("signin: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return login.Response{}, fmt.Errorf("signin: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return login.Response{}, fmt.Errorf("signin: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return login.Response{}, errorFromResponse(resp.StatusCode, body)
	}

	var payload login.Response
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return login.Response{}, fmt.Errorf("signin: decode response: %w", err)
		}
	}
	return payload, nil
}

func errorFromResponse(status int, body []byte) error {
	type errorPayload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	cause := fmt.Errorf("signin: backend status %d", status)

	var payload errorPayload
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		msg := strings.TrimSpace(payload.Error)
		if msg == "" {
			msg = strings.TrimSpace(payload.Message)
		}
		if msg != "" {
			return &login.Rejection{Message: msg, Err: cause}
		}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &login.Rejection{Message: MessageInvalidCredentials, Err: cause}
	}
	return &login.Rejection{Err: cause}
}
