package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/galhr/portal/backend/internal/domain"
)

// Store is the part of the entry store the workflow needs.
type Store interface {
	GetEntry(ctx context.Context, id int64) (*domain.Entry, error)
	// UpdateEntryStatus moves entry id from status from to status to only if it is still in
	// from, returning domain.ErrInvalidState otherwise.
	UpdateEntryStatus(ctx context.Context, id int64, from, to domain.EntryStatus, reviewerID int64, at time.Time) (*domain.Entry, error)
}

type Workflow struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Workflow {
	return &Workflow{store: store, now: time.Now}
}

func (w *Workflow) Approve(ctx context.Context, p domain.Principal, id int64) (*domain.Entry, error) {
	return w.decide(ctx, p, id, domain.StatusApproved)
}

func (w *Workflow) Reject(ctx context.Context, p domain.Principal, id int64) (*domain.Entry, error) {
	return w.decide(ctx, p, id, domain.StatusRejected)
}

// Decide applies a terminal status given by name, as sent by PATCH requests.
func (w *Workflow) Decide(ctx context.Context, p domain.Principal, id int64, to domain.EntryStatus) (*domain.Entry, error) {
	if !to.Terminal() {
		return nil, domain.NewValidationError("status", "must be one of APPROVED REJECTED")
	}
	return w.decide(ctx, p, id, to)
}

func (w *Workflow) decide(ctx context.Context, p domain.Principal, id int64, to domain.EntryStatus) (*domain.Entry, error) {
	if p.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	// role first: a non-admin learns nothing about the entry
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	entry, err := w.store.GetEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load entry %d: %w", id, err)
	}
	if entry.Status != domain.StatusPending {
		return nil, fmt.Errorf("entry %d is %s: %w", id, entry.Status, domain.ErrInvalidState)
	}

	updated, err := w.store.UpdateEntryStatus(ctx, id, domain.StatusPending, to, p.UserID, w.now())
	if err != nil {
		return nil, fmt.Errorf("set entry %d to %s: %w", id, to, err)
	}

	slog.Info("entry reviewed",
		slog.Int64("entryID", id),
		slog.Int64("reviewerID", p.UserID),
		slog.String("status", string(to)),
	)
	return updated, nil
}
