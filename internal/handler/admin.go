package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/calendar"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/seed"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// listLimit reads the limit query parameter, defaulting to defaultListLimit.
func listLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit <= 0 || limit > maxListLimit {
		return 0, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", maxListLimit))
	}
	return limit, nil
}

func (h *Handler) GetAllEntries(w http.ResponseWriter, r *http.Request) {
	f, err := entryFilterFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	if s := q.Get("userId"); s != "" {
		userID, err := strconv.ParseInt(s, 10, 64)
		if err != nil || userID <= 0 {
			h.fail(w, r, domain.NewValidationError("userId", "must be a positive integer"))
			return
		}
		f.OwnerID = &userID
	}

	if f.Limit, err = listLimit(r); err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.store.FindEntriesWithOwner(r.Context(), f)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "entries loaded", entries)
}

type decision func(ctx context.Context, p domain.Principal, id int64) (*domain.Entry, error)

func (h *Handler) decideWith(w http.ResponseWriter, r *http.Request, decide decision) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := decide(r.Context(), principal(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.notifyDecision(r.Context(), entry)
	h.successResponse(w, r, "entry "+strings.ToLower(string(entry.Status)), entry)
}

func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	h.decideWith(w, r, h.workflow.Approve)
}

func (h *Handler) RejectEntry(w http.ResponseWriter, r *http.Request) {
	h.decideWith(w, r, h.workflow.Reject)
}

func (h *Handler) DecideEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.decideWith(w, r, func(ctx context.Context, p domain.Principal, id int64) (*domain.Entry, error) {
		return h.workflow.Decide(ctx, p, id, domain.EntryStatus(req.Status))
	})
}

// notifyDecision mails the owner of a freshly decided entry.
func (h *Handler) notifyDecision(ctx context.Context, entry *domain.Entry) {
	owner, err := h.store.GetUserByID(ctx, entry.OwnerID)
	if err != nil {
		return
	}
	h.notify(ctx, domain.MailMessage{
		Type: domain.MailTypeEntryDecision,
		To:   owner.Email,
		Data: domain.EntryDecisionMailData{
			Name:      owner.Name,
			EntryID:   entry.ID,
			EntryType: entry.Type(),
			Status:    entry.Status,
			Summary:   calendar.Label(entry),
		},
	})
}

// ExportEntries streams every entry placed in the requested window as CSV.
func (h *Handler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	win, err := h.windowFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f, err := entryFilterFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f.From, f.To = win.Start, win.End

	entries, err := h.store.FindEntriesWithOwner(r.Context(), f)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("entries_%s_%s.csv", win.Start, win.End)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := seed.WriteCSV(w, entries); err != nil {
		// headers are gone, the client sees a truncated file
		h.logInternalServerError(r, err)
	}
}

type Stats struct {
	UsersByRole           map[domain.Role]int `json:"usersByRole"`
	TotalUsers            int                 `json:"totalUsers"`
	PendingEntries        int                 `json:"pendingEntries"`
	ApprovedThisMonth     int                 `json:"approvedThisMonth"`
	Month                 calendar.Window     `json:"month"`
	ApprovedTotalsInMonth calendar.Totals     `json:"approvedTotalsInMonth"`
}

// GetStats reports current-month figures. ApprovedThisMonth counts entries created this
// month; the totals cover approved entries placed in the month.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()
	month := calendar.DateWindow(calendar.Month, domain.DateOf(now))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	byRole, err := h.store.CountUsersByRole(ctx)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	total := 0
	for _, n := range byRole {
		total += n
	}

	pending, err := h.store.CountEntries(ctx, domain.EntryFilter{Status: domain.StatusPending})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	approvedThisMonth, err := h.store.CountEntries(ctx, domain.EntryFilter{
		Status:      domain.StatusApproved,
		CreatedFrom: monthStart,
		CreatedTo:   monthStart.AddDate(0, 1, 0),
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	approvedInMonth, err := h.store.FindEntries(ctx, domain.EntryFilter{
		Status: domain.StatusApproved,
		From:   month.Start,
		To:     month.End,
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "stats loaded", Stats{
		UsersByRole:           byRole,
		TotalUsers:            total,
		PendingEntries:        pending,
		ApprovedThisMonth:     approvedThisMonth,
		Month:                 month,
		ApprovedTotalsInMonth: calendar.TotalsOf(approvedInMonth),
	})
}
