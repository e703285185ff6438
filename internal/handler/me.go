package handler

import (
	"net/http"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "profile loaded", myInfo)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8,max=72,nefield=OldPassword"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	ok, err := auth.CheckPassword(myInfo.PasswordHash, req.OldPassword)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.fail(w, r, domain.NewValidationError("oldPassword", "current password is incorrect"))
		return
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	myInfo.PasswordHash = hashedPassword

	if err := h.store.UpdateUser(r.Context(), myInfo); err != nil {
		h.fail(w, r, err)
		return
	}

	h.successResponse(w, r, "password updated", nil)
}
