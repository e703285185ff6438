package handler

import (
	"net/http"
	"strings"

	"github.com/galhr/portal/backend/internal/calendar"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/utils"
)

// entryFilterFrom reads type, status, start and end query parameters.
func entryFilterFrom(r *http.Request) (domain.EntryFilter, error) {
	q := r.URL.Query()
	var f domain.EntryFilter
	var errs []error

	if t := q.Get("type"); t != "" {
		f.Type = domain.EntryType(strings.ToUpper(t))
		if !f.Type.Valid() {
			errs = append(errs, domain.NewValidationError("type", "must be one of WORK_HOURS EXPENSE VACATION TRAVEL"))
		}
	}
	if s := q.Get("status"); s != "" {
		f.Status = domain.EntryStatus(strings.ToUpper(s))
		if !f.Status.Valid() {
			errs = append(errs, domain.NewValidationError("status", "must be one of PENDING APPROVED REJECTED"))
		}
	}

	var err error
	if s := q.Get("start"); s != "" {
		if f.From, err = utils.ParseDateField("start", s); err != nil {
			errs = append(errs, err)
		}
	}
	if s := q.Get("end"); s != "" {
		if f.To, err = utils.ParseDateField("end", s); err != nil {
			errs = append(errs, err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		errs = append(errs, domain.NewValidationError("end", "must be on or after start"))
	}

	return f, utils.MergeValidation(errs...)
}

// windowFrom reads the view and date query parameters; date defaults to today.
func (h *Handler) windowFrom(r *http.Request) (calendar.Window, error) {
	q := r.URL.Query()

	kind, err := calendar.ParseWindowKind(q.Get("view"))
	if err != nil {
		return calendar.Window{}, domain.NewValidationError("view", "must be month or week")
	}

	ref := domain.DateOf(h.now())
	if s := q.Get("date"); s != "" {
		if ref, err = utils.ParseDateField("date", s); err != nil {
			return calendar.Window{}, err
		}
	}
	return calendar.DateWindow(kind, ref), nil
}

func (h *Handler) GetMyEntries(w http.ResponseWriter, r *http.Request) {
	f, err := entryFilterFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Limit, err = listLimit(r); err != nil {
		h.fail(w, r, err)
		return
	}
	me := principal(r.Context()).UserID
	f.OwnerID = &me

	entries, err := h.store.FindEntries(r.Context(), f)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "entries loaded", entries)
}

func (h *Handler) myEntriesIn(r *http.Request, win calendar.Window) ([]*domain.Entry, error) {
	me := principal(r.Context()).UserID
	return h.store.FindEntries(r.Context(), domain.EntryFilter{OwnerID: &me, From: win.Start, To: win.End})
}

func (h *Handler) GetMyCalendar(w http.ResponseWriter, r *http.Request) {
	win, err := h.windowFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.myEntriesIn(r, win)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "calendar loaded", calendar.Summarize(entries, win))
}

func (h *Handler) GetMySummary(w http.ResponseWriter, r *http.Request) {
	win, err := h.windowFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var statuses []domain.EntryStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.EntryStatus(strings.ToUpper(s))
		if !status.Valid() {
			h.fail(w, r, domain.NewValidationError("status", "must be one of PENDING APPROVED REJECTED"))
			return
		}
		statuses = append(statuses, status)
	}

	entries, err := h.myEntriesIn(r, win)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if len(statuses) > 0 {
		entries = calendar.FilterStatus(entries, statuses...)
	}

	h.successResponse(w, r, "summary loaded", map[string]any{
		"window": win,
		"totals": calendar.TotalsOf(entries),
	})
}

func (h *Handler) submitEntry(w http.ResponseWriter, r *http.Request, description string, details domain.EntryDetails) {
	if err := utils.ValidateEntryDetails(details); err != nil {
		h.fail(w, r, err)
		return
	}

	entry := &domain.Entry{
		OwnerID:     principal(r.Context()).UserID,
		Description: strings.TrimSpace(description),
		Details:     details,
	}
	if err := h.store.CreateEntry(r.Context(), entry); err != nil {
		h.fail(w, r, err)
		return
	}

	h.createdResponse(w, r, "entry submitted", entry)
}

func (h *Handler) SubmitWorkHours(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date        string  `json:"date" validate:"required"`
		HoursWorked float64 `json:"hoursWorked" validate:"gt=0,lte=24"`
		Description string  `json:"description" validate:"max=1000"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := utils.ParseDateField("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.submitEntry(w, r, req.Description, domain.WorkHours{Date: date, HoursWorked: req.HoursWorked})
}

func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date        string  `json:"date" validate:"required"`
		Amount      float64 `json:"amount" validate:"gt=0"`
		Category    string  `json:"category" validate:"required,max=100"`
		ReceiptRef  string  `json:"receiptRef" validate:"omitempty,url,max=2048"`
		Description string  `json:"description" validate:"max=1000"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := utils.ParseDateField("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.submitEntry(w, r, req.Description, domain.Expense{
		Date:       date,
		Amount:     req.Amount,
		Category:   strings.TrimSpace(req.Category),
		ReceiptRef: req.ReceiptRef,
	})
}

func (h *Handler) SubmitVacation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate   string `json:"startDate" validate:"required"`
		EndDate     string `json:"endDate" validate:"required"`
		Days        int    `json:"days" validate:"gt=0"`
		Description string `json:"description" validate:"max=1000"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, startErr := utils.ParseDateField("startDate", req.StartDate)
	end, endErr := utils.ParseDateField("endDate", req.EndDate)
	if err := utils.MergeValidation(startErr, endErr); err != nil {
		h.fail(w, r, err)
		return
	}

	h.submitEntry(w, r, req.Description, domain.Vacation{StartDate: start, EndDate: end, Days: req.Days})
}

func (h *Handler) SubmitTravel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TravelDate   string  `json:"travelDate" validate:"required"`
		FromLocation string  `json:"fromLocation" validate:"required,max=200"`
		ToLocation   string  `json:"toLocation" validate:"required,max=200"`
		DistanceKm   float64 `json:"distanceKm" validate:"gt=0"`
		Description  string  `json:"description" validate:"max=1000"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := utils.ParseDateField("travelDate", req.TravelDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.submitEntry(w, r, req.Description, domain.Travel{
		TravelDate:   date,
		FromLocation: strings.TrimSpace(req.FromLocation),
		ToLocation:   strings.TrimSpace(req.ToLocation),
		DistanceKm:   req.DistanceKm,
	})
}

// DeleteMyEntry withdraws one of the caller's entries while it is still pending.
func (h *Handler) DeleteMyEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.store.DeletePendingEntry(r.Context(), id, principal(r.Context()).UserID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.successResponse(w, r, "entry deleted", nil)
}
