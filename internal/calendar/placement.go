package calendar

import (
	"fmt"
	"log/slog"

	"github.com/galhr/portal/backend/internal/domain"
)

// Placement returns the days an entry occupies in order. Single-day variants occupy their
// one date, a vacation occupies every day of [StartDate, EndDate].
func Placement(e *domain.Entry) ([]domain.Date, error) {
	switch d := e.Details.(type) {
	case domain.WorkHours:
		return single(d.Date), nil
	case domain.Expense:
		return single(d.Date), nil
	case domain.Travel:
		return single(d.TravelDate), nil
	case domain.Vacation:
		if d.StartDate.IsZero() || d.EndDate.IsZero() {
			return nil, nil
		}
		if d.EndDate.Before(d.StartDate) {
			return nil, fmt.Errorf("vacation %s..%s: %w", d.StartDate, d.EndDate, domain.ErrInvalidRange)
		}
		return span(d.StartDate, d.EndDate), nil
	default:
		return nil, nil
	}
}

// PlacementDates is Placement for display paths: an invalid range is logged and the entry
// is placed on no day.
func PlacementDates(e *domain.Entry) []domain.Date {
	dates, err := Placement(e)
	if err != nil {
		slog.Warn("skipping entry with unplaceable dates", slog.Int64("entryID", e.ID), slog.String("error", err.Error()))
		return []domain.Date{}
	}
	if dates == nil {
		return []domain.Date{}
	}
	return dates
}

func single(d domain.Date) []domain.Date {
	if d.IsZero() {
		return nil
	}
	return []domain.Date{d}
}

// span lists every day from start to end inclusive. end must not be before start.
func span(start, end domain.Date) []domain.Date {
	days := make([]domain.Date, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
