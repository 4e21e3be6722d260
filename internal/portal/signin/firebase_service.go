package signin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"finitefield.org/care-portal/internal/portal/login"
)

const defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseTokenVerifier abstracts the Firebase Admin SDK client for testability.
type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseConfig configures FirebaseService.
type FirebaseConfig struct {
	// APIKey is the web API key of the Firebase project.
	APIKey   string
	Verifier FirebaseTokenVerifier
	Client   HTTPClient
	// IdentityToolkitURL overrides the REST base, e.g. for the auth emulator.
	IdentityToolkitURL string
}

// FirebaseService signs users in with the Identity Toolkit password endpoint
// and reads the role from the verified ID token claims.
type FirebaseService struct {
	apiKey   string
	verifier FirebaseTokenVerifier
	client   HTTPClient
	base     string
}

// NewFirebaseService constructs a FirebaseService.
func NewFirebaseService(cfg FirebaseConfig) (*FirebaseService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("signin: firebase api key is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("signin: firebase token verifier is required")
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.IdentityToolkitURL), "/")
	if base == "" {
		base = defaultIdentityToolkitURL
	}
	return &FirebaseService{
		apiKey:   cfg.APIKey,
		verifier: cfg.Verifier,
		client:   client,
		base:     base,
	}, nil
}

type passwordSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordSignInResponse struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
}

type identityToolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn implements login.Authenticator.
func (s *FirebaseService) SignIn(ctx context.Context, creds login.Credentials) (login.Response, error) {
	idToken, err := s.passwordSignIn(ctx, creds)
	if err != nil {
		return login.Response{}, err
	}

	verified, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return login.Response{}, fmt.Errorf("signin: verify id token: %w", err)
	}

	roles := claimStringSlice(verified.Claims["role"], verified.Claims["roles"])
	resp := login.Response{}
	if len(roles) > 0 {
		resp.Role = roles[0]
	}
	return resp, nil
}

func (s *FirebaseService) passwordSignIn(ctx context.Context, creds login.Credentials) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(passwordSignInRequest{
		Email:             creds.Email,
		Password:          creds.Password,
		ReturnSecureToken: true,
	}); err != nil {
		return "", fmt.Errorf("signin: encode payload: %w", err)
	}

	endpoint := s.base + "/accounts:signInWithPassword?key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("signin: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("signin: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("signin: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var payload identityToolkitError
		_ = json.Unmarshal(body, &payload)
		code := firebaseErrorCode(payload.Error.Message)
		cause := fmt.Errorf("signin: identity toolkit %d: %s", resp.StatusCode, code)
		return "", &login.Rejection{Message: firebaseMessage(code), Err: cause}
	}

	var payload passwordSignInResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("signin: decode response: %w", err)
	}
	if strings.TrimSpace(payload.IDToken) == "" {
		return "", errors.New("signin: identity toolkit returned no id token")
	}
	return payload.IDToken, nil
}

// firebaseErrorCode strips the human readable suffix Identity Toolkit appends
// to some codes ("TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account...").
func firebaseErrorCode(message string) string {
	code, _, _ := strings.Cut(message, ":")
	return strings.TrimSpace(code)
}

func firebaseMessage(code string) string {
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL":
		return MessageInvalidCredentials
	case "USER_DISABLED":
		return MessageAccountDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return MessageTooManyAttempts
	default:
		return ""
	}
}

func claimStringSlice(values ...any) []string {
	seen := make(map[string]struct{})
	var result []string

	appendValue := func(val string) {
		val = strings.TrimSpace(val)
		if val == "" {
			return
		}
		if _, ok := seen[val]; !ok {
			seen[val] = struct{}{}
			result = append(result, val)
		}
	}

	for _, value := range values {
		switch v := value.(type) {
		case string:
			appendValue(v)
		case []string:
			for _, item := range v {
				appendValue(item)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					appendValue(s)
				}
			}
		}
	}
	return result
}
