package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/utils"
)

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "users loaded", users)
}

// CreateUser adds an account with a generated password that is mailed to the new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email" validate:"required,email,max=254"`
		Name        string `json:"name" validate:"required,max=100"`
		Role        string `json:"role" validate:"required,oneof=ADMIN EMPLOYEE VOLUNTEER"`
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

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := auth.HashPassword(password)
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

	// the password only exists in this mail, so the account is removed again if it cannot be sent
	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			Name:     user.Name,
			Email:    user.Email,
			Password: password,
		},
	}
	if err := h.mail.PublishMail(r.Context(), mailMessage); err != nil {
		if delErr := h.store.DeleteUser(r.Context(), user.ID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.createdResponse(w, r, "user created", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "user loaded", user)
}

// DeleteUser removes the user together with all of their entries.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.successResponse(w, r, "user deleted", nil)
}
