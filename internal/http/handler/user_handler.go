package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Maulana-anjari/account-service/internal/http/response"
	"github.com/Maulana-anjari/account-service/internal/observability"
	"github.com/Maulana-anjari/account-service/internal/repository"
	"github.com/Maulana-anjari/account-service/internal/service"
)

const verifiedPagePath = "/user/verified"

type UserHandler struct {
	accountSvc service.AccountServiceInterface
	tokens     service.TokenValidator
}

func NewUserHandler(accountSvc service.AccountServiceInterface, tokens service.TokenValidator) *UserHandler {
	return &UserHandler{accountSvc: accountSvc, tokens: tokens}
}

type signupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAccountRequestDuration(r.Context(), "signup", status, time.Since(start))
	}()

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Invalid request body!")
		return
	}

	user, err := h.accountSvc.Signup(r.Context(), req.Name, req.Email, req.Password, req.DateOfBirth)
	if err != nil {
		status = "failure"
		observability.RecordSignup(r.Context(), "failure")
		switch {
		case errors.Is(err, service.ErrEmptyInput):
			response.Failed(w, r, http.StatusBadRequest, "Empty input fields!")
		case errors.Is(err, service.ErrInvalidName):
			response.Failed(w, r, http.StatusBadRequest, "Invalid name entered!")
		case errors.Is(err, service.ErrInvalidEmail):
			response.Failed(w, r, http.StatusBadRequest, "Invalid email entered!")
		case errors.Is(err, service.ErrInvalidDOB):
			response.Failed(w, r, http.StatusBadRequest, "Invalid date of birth entered!")
		case errors.Is(err, service.ErrPasswordLength):
			response.Failed(w, r, http.StatusBadRequest, "Password is too short!")
		case errors.Is(err, service.ErrEmailTaken):
			observability.Audit(r, "user.signup.duplicate")
			response.Failed(w, r, http.StatusConflict, "User with the provided email already exists!")
		case errors.Is(err, service.ErrHashingFailure):
			response.Failed(w, r, http.StatusInternalServerError, "An error occurred while hashing password!")
		case errors.Is(err, service.ErrDeliveryFailure):
			observability.Audit(r, "user.signup.delivery_failed", "error", err.Error())
			response.Failed(w, r, http.StatusInternalServerError, "Verification email failed!")
		default:
			response.Failed(w, r, http.StatusInternalServerError, "An error occurred while saving new user!")
		}
		return
	}

	observability.Audit(r, "user.signup.pending", "user_id", user.ID)
	observability.RecordSignup(r.Context(), "pending")
	observability.RecordTokenIssue(r.Context(), "verification", "pending")
	response.Pending(w, r, "Verification email sent")
}

// Verify handles the mailed verification link. It answers with redirects to
// the static verified page rather than JSON; the link is opened in a
// browser.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAccountRequestDuration(r.Context(), "verify", status, time.Since(start))
	}()

	userID, err := parseUserID(chi.URLParam(r, "userId"))
	token := chi.URLParam(r, "token")
	if err != nil || token == "" {
		status = "failure"
		redirectVerifiedError(w, r, "Invalid verification details passed. Check your inbox.")
		return
	}

	outcome, err := h.tokens.ConfirmVerification(r.Context(), userID, token)
	observability.RecordTokenValidation(r.Context(), "verification", outcome.String())
	switch {
	case outcome == service.TokenValid && err == nil:
		observability.Audit(r, "user.verify.success", "user_id", userID)
		http.Redirect(w, r, verifiedPagePath, http.StatusSeeOther)
	case outcome == service.TokenValid:
		status = "failure"
		observability.Audit(r, "user.verify.finalize_failed", "user_id", userID, "error", err.Error())
		redirectVerifiedError(w, r, "An error occurred while finalizing successful verification")
	case outcome == service.TokenExpired:
		status = "failure"
		observability.Audit(r, "user.verify.expired", "user_id", userID)
		redirectVerifiedError(w, r, "Link has expired. Please sign up again")
	case outcome == service.TokenMismatch:
		status = "failure"
		observability.Audit(r, "user.verify.mismatch", "user_id", userID)
		redirectVerifiedError(w, r, "Invalid verification details passed. Check your inbox.")
	case err != nil:
		status = "failure"
		observability.Audit(r, "user.verify.error", "user_id", userID, "error", err.Error())
		redirectVerifiedError(w, r, "An error occurred while checking for existing user verification record")
	default: // TokenNotFound
		status = "failure"
		observability.Audit(r, "user.verify.not_found", "user_id", userID)
		redirectVerifiedError(w, r, "Account record doesn't exist or has been verified already. Please sign up or log in.")
	}
}

const verifiedPageHTML = `<!DOCTYPE html>
<html>
<head><title>Email Verification</title></head>
<body>
<h1>Email Verified</h1>
<p>Your email address has been verified. You can now sign in to your account.</p>
</body>
</html>`

const verifiedErrorPageHTML = `<!DOCTYPE html>
<html>
<head><title>Email Verification</title></head>
<body>
<h1>Verification Failed</h1>
<p>%s</p>
</body>
</html>`

func (h *UserHandler) VerifiedPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	q := r.URL.Query()
	if q.Get("error") == "true" {
		// The message was placed in the query by our own redirect; it is
		// still escaped before rendering.
		msg := html.EscapeString(q.Get("message"))
		_, _ = fmt.Fprintf(w, verifiedErrorPageHTML, msg)
		return
	}
	_, _ = w.Write([]byte(verifiedPageHTML))
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAccountRequestDuration(r.Context(), "signin", status, time.Since(start))
	}()

	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Invalid request body!")
		return
	}

	outcome, user, err := h.accountSvc.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		status = "failure"
		if errors.Is(err, service.ErrEmptyInput) {
			response.Failed(w, r, http.StatusBadRequest, "Empty credentials supplied")
			return
		}
		observability.RecordSignin(r.Context(), "error")
		response.Failed(w, r, http.StatusInternalServerError, "An error occurred while checking for existing user")
		return
	}

	switch outcome {
	case service.SigninSuccess:
		observability.Audit(r, "user.signin.success", "user_id", user.ID)
		observability.RecordSignin(r.Context(), "success")
		response.Success(w, r, "Signin successful!", user)
	case service.SigninNotRegistered:
		status = "failure"
		observability.RecordSignin(r.Context(), "not_registered")
		response.Failed(w, r, http.StatusNotFound, "Email is not registered!")
	case service.SigninNotVerified:
		status = "failure"
		observability.RecordSignin(r.Context(), "not_verified")
		response.Failed(w, r, http.StatusForbidden, "Email hasn't been verified yet. Check your inbox!")
	default: // SigninWrongPassword
		status = "failure"
		observability.Audit(r, "user.signin.wrong_password")
		observability.RecordSignin(r.Context(), "wrong_password")
		response.Failed(w, r, http.StatusUnauthorized, "Invalid password entered!")
	}
}

type resetRequestBody struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirectUrl"`
}

func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAccountRequestDuration(r.Context(), "request_password_reset", status, time.Since(start))
	}()

	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Invalid request body!")
		return
	}
	if req.Email == "" || req.RedirectURL == "" {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Empty input fields!")
		return
	}

	err := h.accountSvc.RequestPasswordReset(r.Context(), req.Email, req.RedirectURL)
	if err != nil {
		status = "failure"
		observability.RecordTokenIssue(r.Context(), "reset", "failure")
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.Failed(w, r, http.StatusNotFound, "No account with the supplied email exists!")
		case errors.Is(err, service.ErrAccountNotVerified):
			response.Failed(w, r, http.StatusForbidden, "Email hasn't been verified yet. Check your inbox!")
		case errors.Is(err, service.ErrHashingFailure):
			response.Failed(w, r, http.StatusInternalServerError, "An error occurred while hashing the password reset data!")
		case errors.Is(err, service.ErrDeliveryFailure):
			observability.Audit(r, "user.reset.delivery_failed", "error", err.Error())
			response.Failed(w, r, http.StatusInternalServerError, "Password reset email failed!")
		default:
			response.Failed(w, r, http.StatusInternalServerError, "Couldn't save password reset data!")
		}
		return
	}

	observability.Audit(r, "user.reset.pending")
	observability.RecordTokenIssue(r.Context(), "reset", "pending")
	response.Pending(w, r, "Password reset mail sent")
}

type resetPasswordBody struct {
	UserID      string `json:"userId"`
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAccountRequestDuration(r.Context(), "reset_password", status, time.Since(start))
	}()

	var req resetPasswordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Invalid request body!")
		return
	}
	if req.UserID == "" || req.ResetToken == "" || req.NewPassword == "" {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Empty input fields!")
		return
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Invalid user id supplied!")
		return
	}
	if len(req.NewPassword) < 8 {
		status = "failure"
		response.Failed(w, r, http.StatusBadRequest, "Password is too short!")
		return
	}

	outcome, err := h.tokens.CompleteReset(r.Context(), userID, req.ResetToken, req.NewPassword)
	observability.RecordTokenValidation(r.Context(), "reset", outcome.String())
	switch {
	case outcome == service.TokenValid && err == nil:
		observability.Audit(r, "user.reset.success", "user_id", userID)
		response.Success(w, r, "Password has been reset successfully", nil)
	case outcome == service.TokenValid:
		status = "failure"
		observability.Audit(r, "user.reset.finalize_failed", "user_id", userID, "error", err.Error())
		response.Failed(w, r, http.StatusInternalServerError, "An error occurred while finalizing password reset")
	case outcome == service.TokenExpired:
		status = "failure"
		response.Failed(w, r, http.StatusGone, "Password reset link has expired")
	case outcome == service.TokenMismatch:
		status = "failure"
		observability.Audit(r, "user.reset.mismatch", "user_id", userID)
		response.Failed(w, r, http.StatusUnauthorized, "Invalid password reset details passed")
	case err != nil:
		status = "failure"
		response.Failed(w, r, http.StatusInternalServerError, "Checking for existing password reset record failed.")
	default: // TokenNotFound
		status = "failure"
		response.Failed(w, r, http.StatusNotFound, "Password reset request not found.")
	}
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func redirectVerifiedError(w http.ResponseWriter, r *http.Request, message string) {
	q := url.Values{}
	q.Set("error", "true")
	q.Set("message", message)
	http.Redirect(w, r, verifiedPagePath+"?"+q.Encode(), http.StatusSeeOther)
}
