package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/domain"
)

type WindowKind string

const (
	Month WindowKind = "month"
	Week  WindowKind = "week"
)

// ParseWindowKind reads a view query parameter; an empty value means Month.
func ParseWindowKind(s string) (WindowKind, error) {
	switch WindowKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", Month:
		return Month, nil
	case Week:
		return Week, nil
	default:
		return "", fmt.Errorf("unknown view %q, expected month or week", s)
	}
}

// Window is an inclusive range of days.
type Window struct {
	Kind  WindowKind  `json:"kind"`
	Start domain.Date `json:"start"`
	End   domain.Date `json:"end"`
}

// DateWindow returns the month containing ref, or the Sunday to Saturday week containing ref.
func DateWindow(kind WindowKind, ref domain.Date) Window {
	switch kind {
	case Week:
		start := ref.AddDays(-int(ref.Weekday()))
		return Window{Kind: Week, Start: start, End: start.AddDays(6)}
	default:
		start := domain.NewDate(ref.Year(), ref.Month(), 1)
		end := domain.DateOf(start.Time().AddDate(0, 1, -1))
		return Window{Kind: Month, Start: start, End: end}
	}
}

// Days lists every day of the window in order.
func (w Window) Days() []domain.Date {
	if w.Start.IsZero() || w.End.Before(w.Start) {
		return []domain.Date{}
	}
	return span(w.Start, w.End)
}

func (w Window) Contains(d domain.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) Next() Window {
	if w.Kind == Week {
		return DateWindow(Week, w.Start.AddDays(7))
	}
	return DateWindow(Month, w.End.AddDays(1))
}

func (w Window) Prev() Window {
	if w.Kind == Week {
		return DateWindow(Week, w.Start.AddDays(-7))
	}
	return DateWindow(Month, w.Start.AddDays(-1))
}

// Overlaps reports whether e is placed on at least one day of w. Vacations are compared by
// their bounds, so a vacation that starts before the window and ends inside it overlaps.
func (w Window) Overlaps(e *domain.Entry) bool {
	switch d := e.Details.(type) {
	case domain.WorkHours:
		return w.Contains(d.Date)
	case domain.Expense:
		return w.Contains(d.Date)
	case domain.Travel:
		return w.Contains(d.TravelDate)
	case domain.Vacation:
		// an inverted vacation is placed on no day
		if d.EndDate.Before(d.StartDate) {
			return false
		}
		return !d.StartDate.After(w.End) && !d.EndDate.Before(w.Start)
	default:
		return false
	}
}

// Today is the current day on the local clock.
func Today() domain.Date {
	return domain.DateOf(time.Now())
}
