package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/otp"
	"github.com/galhr/portal/backend/internal/utils"
)

const purposeResetPassword = "reset_password"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email" validate:"required,email,max=254"`
		Password    string `json:"password" validate:"required,min=8,max=72"`
		Name        string `json:"name" validate:"required,max=100"`
		Role        string `json:"role" validate:"required,oneof=EMPLOYEE VOLUNTEER"`
		Department  string `json:"department" validate:"omitempty,max=100"`
		PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		Role:         domain.Role(req.Role),
		Department:   strings.TrimSpace(req.Department),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		PasswordHash: hashedPassword,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			h.errorResponse(w, r, http.StatusConflict, domain.CodeConflict, "email is already registered")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notify(r.Context(), domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   user.Email,
		Data: domain.WelcomeMailData{Name: user.Name, Role: user.Role},
	})

	h.createdResponse(w, r, "registration successful", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, http.StatusUnauthorized, domain.CodeAuthentication, "invalid email or password")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, http.StatusUnauthorized, domain.CodeAuthentication, "invalid email or password")
		return
	}

	token, expiration, err := h.issuer.Issue(user.ID, user.Role)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "login successful", map[string]any{
		"user":      user,
		"token":     token,
		"expiresAt": expiration,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})

	h.successResponse(w, r, "logout successful", nil)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	const sent = "a reset code has been sent if the email is registered"

	user, err := h.store.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// same answer as for a known address so the endpoint cannot probe accounts
			h.successResponse(w, r, sent, nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	code := utils.GenerateRandomOTP()
	ttl := time.Duration(h.config.OTP.Expiration) * time.Second
	if err := h.codes.Set(r.Context(), purposeResetPassword, user.Email, code, ttl); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	msg := domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			Name:       user.Name,
			OTP:        code,
			Expiration: h.config.OTP.Expiration / 60, // minutes in the mail, seconds in config
		},
	}
	if err := h.mail.PublishMail(r.Context(), msg); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, sent, nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,len=6,numeric"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	email := normalizeEmail(req.Email)
	invalidCode := domain.NewValidationError("otp", "code is invalid or has expired")

	stored, err := h.codes.Get(r.Context(), purposeResetPassword, email)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNoCode):
			h.fail(w, r, invalidCode)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.OTP)) != 1 {
		h.fail(w, r, invalidCode)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	user.PasswordHash = hashedPassword

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.codes.Delete(r.Context(), purposeResetPassword, email); err != nil {
		slog.Warn("could not delete used reset code", "email", email, "error", err)
	}

	h.successResponse(w, r, "password has been reset", nil)
}

// notify queues mail whose loss must not fail the request that triggered it.
func (h *Handler) notify(ctx context.Context, msg domain.MailMessage) {
	if err := h.mail.PublishMail(ctx, msg); err != nil {
		slog.Error("could not queue mail", "type", msg.Type, "to", msg.To, "error", err)
	}
}
