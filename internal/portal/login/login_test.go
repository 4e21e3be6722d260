package login_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/notify"
	"finitefield.org/care-portal/internal/portal/rbac"
)

type recorder struct {
	mu            sync.Mutex
	notifications []notify.Notification
	pushes        []string
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) Push(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, path)
}

type stubAuthenticator struct {
	mu    sync.Mutex
	calls int
	resp  login.Response
	err   error
	// observe runs inside SignIn, before the response is returned.
	observe func(creds login.Credentials)
}

func (s *stubAuthenticator) SignIn(_ context.Context, creds login.Credentials) (login.Response, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.observe != nil {
		s.observe(creds)
	}
	return s.resp, s.err
}

func (s *stubAuthenticator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func formValues(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestSubmitRejectsInvalidEmailWithoutCallingAuthenticator(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		email   string
		message string
	}{
		"empty":      {email: "", message: "Email is required"},
		"whitespace": {email: "   ", message: "Email is required"},
		"no at sign": {email: "jane.example.com", message: "Please enter a valid email address"},
		"no domain":  {email: "jane@", message: "Please enter a valid email address"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			auth := &stubAuthenticator{resp: login.Response{Role: "admin"}}
			ctrl := login.NewController(login.NewHandler(auth))
			rec := &recorder{}
			state := &login.FormState{}

			result, err := ctrl.Submit(context.Background(), "owner", formValues(tc.email, "secret"), state, rec, rec)
			require.ErrorIs(t, err, login.ErrInvalidForm)
			require.Nil(t, result)
			require.Equal(t, tc.message, state.FieldError("email"))
			require.Zero(t, auth.Calls())
			require.Empty(t, rec.notifications)
			require.Empty(t, rec.pushes)
			require.False(t, state.IsLoading)
		})
	}
}

func TestSubmitRequiresPassword(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{}
	ctrl := login.NewController(login.NewHandler(auth))
	rec := &recorder{}
	state := &login.FormState{}

	_, err := ctrl.Submit(context.Background(), "owner", formValues("jane@example.com", ""), state, rec, rec)
	require.ErrorIs(t, err, login.ErrInvalidForm)
	require.Equal(t, "Password is required", state.FieldError("password"))
	require.Empty(t, state.FieldError("email"))
	require.Equal(t, "jane@example.com", state.Email)
	require.Zero(t, auth.Calls())
}

func TestSubmitClearsPreviousFieldErrors(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{}
	ctrl := login.NewController(login.NewHandler(auth))
	rec := &recorder{}
	state := &login.FormState{FieldErrors: login.FieldErrors{"email": "Email is required"}}

	_, err := ctrl.Submit(context.Background(), "owner", formValues("jane@example.com", "secret"), state, rec, rec)
	require.NoError(t, err)
	require.Empty(t, state.FieldErrors)
	require.Equal(t, 1, auth.Calls())
}

func TestHandlerNavigatesByRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role string
		want string
	}{
		{role: "admin", want: "/admin/dashboard"},
		{role: "ADMIN", want: "/admin/dashboard"},
		{role: "Admin", want: "/admin/dashboard"},
		{role: "health_provider", want: "/healthproviders/dashboard"},
		{role: "HEALTH_PROVIDER", want: "/healthproviders/dashboard"},
		{role: "Health_Provider", want: "/healthproviders/dashboard"},
		{role: "user", want: "/users/profile"},
		{role: "nurse", want: "/users/profile"},
		{role: "", want: "/users/profile"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.role, func(t *testing.T) {
			t.Parallel()

			auth := &stubAuthenticator{resp: login.Response{Role: tc.role}}
			handler := login.NewHandler(auth)
			rec := &recorder{}
			state := &login.FormState{}

			result := handler.Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"}, state, rec, rec)

			success, ok := result.(login.Success)
			require.True(t, ok, "expected success, got %#v", result)
			require.Equal(t, tc.want, success.Destination)
			require.Equal(t, rbac.ParseRole(tc.role), success.Role)
			require.Equal(t, []string{tc.want}, rec.pushes)
			require.Empty(t, state.SubmitError)
		})
	}
}

func TestHandlerReportsResponseError(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{resp: login.Response{Error: "Invalid credentials", Role: "admin"}}
	handler := login.NewHandler(auth)
	rec := &recorder{}
	state := &login.FormState{}

	result := handler.Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "wrong"}, state, rec, rec)

	require.Equal(t, login.Failure{Message: "Invalid credentials"}, result)
	require.Equal(t, "Invalid credentials", state.SubmitError)
	require.Empty(t, rec.pushes)
	require.Equal(t, []notify.Notification{
		{Key: "login", Kind: notify.KindLoading, Message: "Logging in..."},
		{Key: "login", Kind: notify.KindError, Message: "Invalid credentials"},
	}, rec.notifications)
}

func TestHandlerFallsBackToGenericMessage(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"rejection without message": login.Reject(""),
		"untyped error":             errors.New("dial tcp 10.0.0.1:443: connection refused"),
		"wrapped blank rejection":   &login.Rejection{Err: errors.New("status 502")},
	}

	for name, authErr := range cases {
		authErr := authErr
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			auth := &stubAuthenticator{err: authErr}
			rec := &recorder{}
			state := &login.FormState{}

			result := login.NewHandler(auth).Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"}, state, rec, rec)

			require.Equal(t, login.Failure{Message: "Failed to login"}, result)
			require.Equal(t, "Failed to login", state.SubmitError)
			require.Empty(t, rec.pushes)
			last := rec.notifications[len(rec.notifications)-1]
			require.Equal(t, notify.KindError, last.Kind)
			require.Equal(t, "Failed to login", last.Message)
		})
	}
}

func TestHandlerSurfacesRejectionMessage(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{err: &login.Rejection{Message: "Account disabled", Err: errors.New("USER_DISABLED")}}
	state := &login.FormState{}
	rec := &recorder{}

	result := login.NewHandler(auth).Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"}, state, rec, rec)
	require.Equal(t, login.Failure{Message: "Account disabled"}, result)
	require.Equal(t, "Account disabled", state.SubmitError)
}

func TestHandlerRecoversFromAuthenticatorPanic(t *testing.T) {
	t.Parallel()

	auth := login.AuthenticatorFunc(func(context.Context, login.Credentials) (login.Response, error) {
		panic("collaborator exploded")
	})
	state := &login.FormState{}
	rec := &recorder{}

	result := login.NewHandler(auth).Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"}, state, rec, rec)
	require.Equal(t, login.Failure{Message: "Failed to login"}, result)
	require.False(t, state.IsLoading)
}

func TestHandlerLoadingStateSpansTheCall(t *testing.T) {
	t.Parallel()

	for name, auth := range map[string]*stubAuthenticator{
		"success": {resp: login.Response{Role: "admin"}},
		"failure": {resp: login.Response{Error: "Invalid credentials"}},
	} {
		auth := auth
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			state := &login.FormState{SubmitError: "previous failure"}
			var loadingDuringCall bool
			var submitErrorDuringCall string
			auth.observe = func(login.Credentials) {
				loadingDuringCall = state.IsLoading
				submitErrorDuringCall = state.SubmitError
			}

			require.False(t, state.IsLoading)
			login.NewHandler(auth).Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"}, state, &recorder{}, &recorder{})

			require.True(t, loadingDuringCall)
			require.Empty(t, submitErrorDuringCall)
			require.False(t, state.IsLoading)
		})
	}
}

func TestHandlerNotifiesInOrder(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{resp: login.Response{Role: "health_provider"}}
	rec := &recorder{}
	login.NewHandler(auth).Handle(context.Background(), login.Credentials{Email: "jane@example.com", Password: "secret"}, &login.FormState{}, rec, rec)

	require.Equal(t, []notify.Notification{
		{Key: "login", Kind: notify.KindLoading, Message: "Logging in..."},
		{Key: "login", Kind: notify.KindSuccess, Message: "Logged in successfully"},
	}, rec.notifications)

	board := notify.NewBoard(rec.notifications)
	require.Equal(t, 1, board.Len())
}

func TestSubmitRefusesConcurrentAttemptFromSameOwner(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	unblock := make(chan struct{})
	auth := &stubAuthenticator{resp: login.Response{Role: "admin"}}
	auth.observe = func(login.Credentials) {
		close(entered)
		<-unblock
	}
	ctrl := login.NewController(login.NewHandler(auth))

	done := make(chan login.Result, 1)
	go func() {
		result, err := ctrl.Submit(context.Background(), "session-1", formValues("jane@example.com", "secret"), &login.FormState{}, &recorder{}, &recorder{})
		if err != nil {
			done <- nil
			return
		}
		done <- result
	}()

	<-entered
	require.True(t, ctrl.Pending("session-1"))

	second := &login.FormState{}
	_, err := ctrl.Submit(context.Background(), "session-1", formValues("jane@example.com", "secret"), second, &recorder{}, &recorder{})
	require.ErrorIs(t, err, login.ErrSubmissionInFlight)
	require.True(t, second.IsLoading)
	require.Equal(t, "Logging in...", second.SubmitLabel())

	close(unblock)
	result := <-done
	require.IsType(t, login.Success{}, result)
	require.Equal(t, 1, auth.Calls())
	require.False(t, ctrl.Pending("session-1"))
}

func TestSubmitAllowsParallelOwners(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{resp: login.Response{Role: "user"}}
	ctrl := login.NewController(login.NewHandler(auth))

	var wg sync.WaitGroup
	for _, owner := range []string{"a", "b", "c"} {
		owner := owner
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Submit(context.Background(), owner, formValues("jane@example.com", "secret"), &login.FormState{}, &recorder{}, &recorder{})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 3, auth.Calls())
}

func TestCredentialsStringRedactsPassword(t *testing.T) {
	t.Parallel()

	creds := login.Credentials{Email: "jane@example.com", Password: "hunter2"}
	require.NotContains(t, creds.String(), "hunter2")
	require.Equal(t, "hunter2", creds.Values().Get("password"))
}
