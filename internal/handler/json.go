package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/galhr/portal/backend/internal/domain"
)

const maxBodyBytes = 1 << 20

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

// errMalformedBody marks request bodies that could not be decoded at all.
var errMalformedBody = errors.New("malformed request body")

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool                `json:"success"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message"`
	Data    any                 `json:"data"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Code:    code,
		Message: msg,
		Data:    nil,
	})
}

// badRequest reports a body that failed decoding or struct validation.
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		v := &domain.ValidationError{}
		for _, fe := range validationErrors {
			v.Fields = append(v.Fields, domain.FieldError{Field: fe.Field(), Message: fe.Translate(h.translator)})
		}
		h.fail(w, r, v)
		return
	}
	if errors.Is(err, errMalformedBody) {
		h.errorResponse(w, r, http.StatusBadRequest, domain.CodeValidation, errMalformedBody.Error())
		return
	}
	h.fail(w, r, err)
}

// publicErrors are the sentinel errors whose text may be shown to clients.
var publicErrors = []error{
	domain.ErrUnauthenticated,
	domain.ErrForbidden,
	domain.ErrNotFound,
	domain.ErrInvalidState,
	domain.ErrInvalidRange,
	domain.ErrConflict,
	domain.ErrEditConflict,
}

var statusByCode = map[string]int{
	domain.CodeValidation:     http.StatusUnprocessableEntity,
	domain.CodeAuthentication: http.StatusUnauthorized,
	domain.CodeAuthorization:  http.StatusForbidden,
	domain.CodeNotFound:       http.StatusNotFound,
	domain.CodeInvalidState:   http.StatusConflict,
	domain.CodeInvalidRange:   http.StatusUnprocessableEntity,
	domain.CodeConflict:       http.StatusConflict,
}

// fail translates an error from the core into the response envelope. Unknown errors are
// logged and hidden behind a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		h.writeJSON(w, r, http.StatusUnprocessableEntity, Response{
			Success: false,
			Code:    domain.CodeValidation,
			Message: "submission has invalid fields",
			Errors:  verr.Fields,
		})
		return
	}

	code := domain.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		h.internalServerError(w, r, err)
		return
	}

	msg := code
	for _, public := range publicErrors {
		if errors.Is(err, public) {
			msg = public.Error()
			break
		}
	}
	h.errorResponse(w, r, status, code, msg)
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Code:    domain.CodeInternal,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) createdResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
