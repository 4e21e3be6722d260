package signin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/signin"
)

func TestHTTPServicePostsFormEncodedCredentials(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/sign-in/email", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "jane@example.com", r.PostForm.Get("email"))
		require.Equal(t, "secret", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"role": "health_provider"})
	}))
	t.Cleanup(ts.Close)

	svc, err := signin.NewHTTPService(ts.URL+"/auth/sign-in/email", ts.Client(), 0)
	require.NoError(t, err)

	resp, err := svc.SignIn(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, login.Response{Role: "health_provider"}, resp)
}

func TestHTTPServicePassesThroughErrorField(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	t.Cleanup(ts.Close)

	svc, err := signin.NewHTTPService(ts.URL, ts.Client(), 0)
	require.NoError(t, err)

	resp, err := svc.SignIn(context.Background(), login.Credentials{Email: "jane@example.com", Password: "wrong"})
	require.NoError(t, err)
	require.Equal(t, "Invalid credentials", resp.Error)
}

func TestHTTPServiceMapsErrorStatuses(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		status  int
		body    string
		message string
	}{
		"error field":       {status: http.StatusBadRequest, body: `{"error":"Email not verified"}`, message: "Email not verified"},
		"message field":     {status: http.StatusTooManyRequests, body: `{"code":"rate_limited","message":"Slow down"}`, message: "Slow down"},
		"bare unauthorized": {status: http.StatusUnauthorized, body: ``, message: "Invalid credentials"},
		"server error":      {status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: "Failed to login"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(ts.Close)

			svc, err := signin.NewHTTPService(ts.URL, ts.Client(), 0)
			require.NoError(t, err)

			_, err = svc.SignIn(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"})
			require.Error(t, err)

			var rejection *login.Rejection
			require.True(t, errors.As(err, &rejection))
			require.Equal(t, tc.message, login.FailureMessage(err))
		})
	}
}

func TestHTTPServiceTransportFailureUsesFallback(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	svc, err := signin.NewHTTPService(url, nil, 0)
	require.NoError(t, err)

	_, err = svc.SignIn(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"})
	require.Error(t, err)
	require.Equal(t, "Failed to login", login.FailureMessage(err))
}

func TestNewHTTPServiceValidatesEndpoint(t *testing.T) {
	t.Parallel()

	_, err := signin.NewHTTPService("", nil, 0)
	require.Error(t, err)

	_, err = signin.NewHTTPService("ftp://auth.example.com", nil, 0)
	require.Error(t, err)
}
