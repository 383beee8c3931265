package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Maulana-anjari/account-service/internal/domain"
	"github.com/Maulana-anjari/account-service/internal/repository"
	"github.com/Maulana-anjari/account-service/internal/service"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubAccountService struct {
	signupFn func(name, email, password, dateOfBirth string) (*domain.User, error)
	signinFn func(email, password string) (service.SigninOutcome, *domain.User, error)
	resetFn  func(email, redirectURL string) error
}

func (s *stubAccountService) Signup(_ context.Context, name, email, password, dateOfBirth string) (*domain.User, error) {
	if s.signupFn != nil {
		return s.signupFn(name, email, password, dateOfBirth)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAccountService) Signin(_ context.Context, email, password string) (service.SigninOutcome, *domain.User, error) {
	if s.signinFn != nil {
		return s.signinFn(email, password)
	}
	return service.SigninNotRegistered, nil, errors.New("not implemented")
}

func (s *stubAccountService) RequestPasswordReset(_ context.Context, email, redirectURL string) error {
	if s.resetFn != nil {
		return s.resetFn(email, redirectURL)
	}
	return errors.New("not implemented")
}

type stubTokenValidator struct {
	confirmFn func(ownerID uint, presented string) (service.TokenOutcome, error)
	resetFn   func(ownerID uint, presented, newPassword string) (service.TokenOutcome, error)
}

func (s *stubTokenValidator) ConfirmVerification(_ context.Context, ownerID uint, presented string) (service.TokenOutcome, error) {
	if s.confirmFn != nil {
		return s.confirmFn(ownerID, presented)
	}
	return service.TokenNotFound, errors.New("not implemented")
}

func (s *stubTokenValidator) CompleteReset(_ context.Context, ownerID uint, presented, newPassword string) (service.TokenOutcome, error) {
	if s.resetFn != nil {
		return s.resetFn(ownerID, presented, newPassword)
	}
	return service.TokenNotFound, errors.New("not implemented")
}

func newHandlerForTest(acct *stubAccountService, tokens *stubTokenValidator) *UserHandler {
	if acct == nil {
		acct = &stubAccountService{}
	}
	if tokens == nil {
		tokens = &stubTokenValidator{}
	}
	return NewUserHandler(acct, tokens)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func TestUserHandlerSignup(t *testing.T) {
	t.Run("pending on success", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			signupFn: func(name, email, password, dateOfBirth string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: email}, nil
			},
		}, nil)

		rec := postJSON(t, h.Signup, "/user/signup", map[string]string{
			"name": "Jane Doe", "email": "jane@example.com",
			"password": "LongEnough1", "dateOfBirth": "1990-01-01",
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status %d, want 202", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Status != "PENDING" || env.Message != "Verification email sent" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	})

	t.Run("validation errors map to 400 with legacy message", func(t *testing.T) {
		cases := []struct {
			err     error
			message string
		}{
			{service.ErrEmptyInput, "Empty input fields!"},
			{service.ErrInvalidName, "Invalid name entered!"},
			{service.ErrInvalidEmail, "Invalid email entered!"},
			{service.ErrInvalidDOB, "Invalid date of birth entered!"},
			{service.ErrPasswordLength, "Password is too short!"},
		}
		for _, tc := range cases {
			h := newHandlerForTest(&stubAccountService{
				signupFn: func(string, string, string, string) (*domain.User, error) { return nil, tc.err },
			}, nil)
			rec := postJSON(t, h.Signup, "/user/signup", map[string]string{"name": "x"})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("%v: status %d, want 400", tc.err, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Status != "FAILED" || env.Message != tc.message {
				t.Fatalf("%v: unexpected envelope %+v", tc.err, env)
			}
		}
	})

	t.Run("duplicate email is 409", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			signupFn: func(string, string, string, string) (*domain.User, error) {
				return nil, service.ErrEmailTaken
			},
		}, nil)
		rec := postJSON(t, h.Signup, "/user/signup", map[string]string{"name": "x"})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
	})

	t.Run("delivery failure is 500", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			signupFn: func(string, string, string, string) (*domain.User, error) {
				return nil, service.ErrDeliveryFailure
			},
		}, nil)
		rec := postJSON(t, h.Signup, "/user/signup", map[string]string{"name": "x"})
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status %d, want 500", rec.Code)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		h := newHandlerForTest(nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/user/signup", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		h.Signup(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func verifyRequest(t *testing.T, h *UserHandler, userID, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/user/verify/"+userID+"/"+token, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("userId", userID)
	routeCtx.URLParams.Add("token", token)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)
	return rec
}

func TestUserHandlerVerify(t *testing.T) {
	t.Run("valid redirects to verified page", func(t *testing.T) {
		h := newHandlerForTest(nil, &stubTokenValidator{
			confirmFn: func(ownerID uint, presented string) (service.TokenOutcome, error) {
				if ownerID != 42 || presented != "tok" {
					t.Fatalf("unexpected args %d %q", ownerID, presented)
				}
				return service.TokenValid, nil
			},
		})
		rec := verifyRequest(t, h, "42", "tok")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status %d, want 303", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/user/verified" {
			t.Fatalf("location %q", loc)
		}
	})

	t.Run("expired redirects with message", func(t *testing.T) {
		h := newHandlerForTest(nil, &stubTokenValidator{
			confirmFn: func(uint, string) (service.TokenOutcome, error) {
				return service.TokenExpired, nil
			},
		})
		rec := verifyRequest(t, h, "42", "tok")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status %d, want 303", rec.Code)
		}
		loc := rec.Header().Get("Location")
		if !strings.Contains(loc, "error=true") || !strings.Contains(loc, "expired") {
			t.Fatalf("location %q", loc)
		}
	})

	t.Run("non-numeric user id redirects with error", func(t *testing.T) {
		h := newHandlerForTest(nil, nil)
		rec := verifyRequest(t, h, "abc", "tok")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status %d, want 303", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Location"), "error=true") {
			t.Fatalf("location %q", rec.Header().Get("Location"))
		}
	})
}

func TestUserHandlerVerifiedPage(t *testing.T) {
	h := newHandlerForTest(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/verified", nil)
	rec := httptest.NewRecorder()
	h.VerifiedPage(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Email Verified") {
		t.Fatalf("unexpected page: %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/user/verified?error=true&message=Link+has+expired", nil)
	rec = httptest.NewRecorder()
	h.VerifiedPage(rec, req)
	if !strings.Contains(rec.Body.String(), "Link has expired") {
		t.Fatalf("error message missing: %q", rec.Body.String())
	}
}

func TestUserHandlerSignin(t *testing.T) {
	t.Run("success returns user without password hash", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			signinFn: func(email, password string) (service.SigninOutcome, *domain.User, error) {
				return service.SigninSuccess, &domain.User{ID: 7, Email: email, PasswordHash: "secret"}, nil
			},
		}, nil)
		rec := postJSON(t, h.Signin, "/user/signin", map[string]string{"email": "a@example.com", "password": "x"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Status != "SUCCESS" || env.Message != "Signin successful!" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
		if strings.Contains(string(env.Data), "secret") || strings.Contains(string(env.Data), "password") {
			t.Fatalf("credential material leaked: %s", env.Data)
		}
	})

	t.Run("outcome to status mapping", func(t *testing.T) {
		cases := []struct {
			outcome service.SigninOutcome
			code    int
			message string
		}{
			{service.SigninNotRegistered, http.StatusNotFound, "Email is not registered!"},
			{service.SigninNotVerified, http.StatusForbidden, "Email hasn't been verified yet. Check your inbox!"},
			{service.SigninWrongPassword, http.StatusUnauthorized, "Invalid password entered!"},
		}
		for _, tc := range cases {
			h := newHandlerForTest(&stubAccountService{
				signinFn: func(string, string) (service.SigninOutcome, *domain.User, error) {
					return tc.outcome, nil, nil
				},
			}, nil)
			rec := postJSON(t, h.Signin, "/user/signin", map[string]string{"email": "a@example.com", "password": "x"})
			if rec.Code != tc.code {
				t.Fatalf("outcome %v: status %d, want %d", tc.outcome, rec.Code, tc.code)
			}
			if env := decodeEnvelope(t, rec); env.Message != tc.message {
				t.Fatalf("outcome %v: message %q", tc.outcome, env.Message)
			}
		}
	})

	t.Run("empty credentials", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			signinFn: func(string, string) (service.SigninOutcome, *domain.User, error) {
				return service.SigninNotRegistered, nil, service.ErrEmptyInput
			},
		}, nil)
		rec := postJSON(t, h.Signin, "/user/signin", map[string]string{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func TestUserHandlerRequestPasswordReset(t *testing.T) {
	t.Run("pending on success", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			resetFn: func(email, redirectURL string) error { return nil },
		}, nil)
		rec := postJSON(t, h.RequestPasswordReset, "/user/requestPasswordReset", map[string]string{
			"email": "a@example.com", "redirectUrl": "https://app.example.com/reset",
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status %d, want 202", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != "Password reset mail sent" {
			t.Fatalf("unexpected envelope %+v", env)
		}
	})

	t.Run("unknown account is 404", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			resetFn: func(string, string) error { return repository.ErrUserNotFound },
		}, nil)
		rec := postJSON(t, h.RequestPasswordReset, "/user/requestPasswordReset", map[string]string{
			"email": "a@example.com", "redirectUrl": "https://app.example.com/reset",
		})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rec.Code)
		}
	})

	t.Run("unverified account is 403", func(t *testing.T) {
		h := newHandlerForTest(&stubAccountService{
			resetFn: func(string, string) error { return service.ErrAccountNotVerified },
		}, nil)
		rec := postJSON(t, h.RequestPasswordReset, "/user/requestPasswordReset", map[string]string{
			"email": "a@example.com", "redirectUrl": "https://app.example.com/reset",
		})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("missing fields is 400", func(t *testing.T) {
		h := newHandlerForTest(nil, nil)
		rec := postJSON(t, h.RequestPasswordReset, "/user/requestPasswordReset", map[string]string{"email": "a@example.com"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func TestUserHandlerResetPassword(t *testing.T) {
	body := func() map[string]string {
		return map[string]string{"userId": "7", "resetToken": "tok", "newPassword": "FreshPass123"}
	}

	t.Run("success", func(t *testing.T) {
		h := newHandlerForTest(nil, &stubTokenValidator{
			resetFn: func(ownerID uint, presented, newPassword string) (service.TokenOutcome, error) {
				if ownerID != 7 || presented != "tok" || newPassword != "FreshPass123" {
					t.Fatalf("unexpected args %d %q %q", ownerID, presented, newPassword)
				}
				return service.TokenValid, nil
			},
		})
		rec := postJSON(t, h.ResetPassword, "/user/resetPassword", body())
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != "Password has been reset successfully" {
			t.Fatalf("unexpected envelope %+v", env)
		}
	})

	t.Run("outcome to status mapping", func(t *testing.T) {
		cases := []struct {
			outcome service.TokenOutcome
			code    int
		}{
			{service.TokenExpired, http.StatusGone},
			{service.TokenMismatch, http.StatusUnauthorized},
			{service.TokenNotFound, http.StatusNotFound},
		}
		for _, tc := range cases {
			h := newHandlerForTest(nil, &stubTokenValidator{
				resetFn: func(uint, string, string) (service.TokenOutcome, error) {
					return tc.outcome, nil
				},
			})
			rec := postJSON(t, h.ResetPassword, "/user/resetPassword", body())
			if rec.Code != tc.code {
				t.Fatalf("outcome %v: status %d, want %d", tc.outcome, rec.Code, tc.code)
			}
		}
	})

	t.Run("finalize failure is 500", func(t *testing.T) {
		h := newHandlerForTest(nil, &stubTokenValidator{
			resetFn: func(uint, string, string) (service.TokenOutcome, error) {
				return service.TokenValid, service.ErrFinalizeFailure
			},
		})
		rec := postJSON(t, h.ResetPassword, "/user/resetPassword", body())
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status %d, want 500", rec.Code)
		}
	})

	t.Run("short new password is 400", func(t *testing.T) {
		h := newHandlerForTest(nil, nil)
		b := body()
		b["newPassword"] = "tiny"
		rec := postJSON(t, h.ResetPassword, "/user/resetPassword", b)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != "Password is too short!" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("missing fields is 400", func(t *testing.T) {
		h := newHandlerForTest(nil, nil)
		rec := postJSON(t, h.ResetPassword, "/user/resetPassword", map[string]string{"userId": "7"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}
