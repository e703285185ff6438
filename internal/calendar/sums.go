package calendar

import "github.com/galhr/portal/backend/internal/domain"

// The sums apply no status filtering; use FilterStatus first for approved-only totals.

func SumHours(entries []*domain.Entry) float64 {
	var total float64
	for _, e := range entries {
		if d, ok := e.Details.(domain.WorkHours); ok {
			total += d.HoursWorked
		}
	}
	return total
}

func SumExpenses(entries []*domain.Entry) float64 {
	var total float64
	for _, e := range entries {
		if d, ok := e.Details.(domain.Expense); ok {
			total += d.Amount
		}
	}
	return total
}

func SumVacationDays(entries []*domain.Entry) int {
	var total int
	for _, e := range entries {
		if d, ok := e.Details.(domain.Vacation); ok {
			total += d.Days
		}
	}
	return total
}

func SumDistance(entries []*domain.Entry) float64 {
	var total float64
	for _, e := range entries {
		if d, ok := e.Details.(domain.Travel); ok {
			total += d.DistanceKm
		}
	}
	return total
}

// FilterStatus keeps the entries whose status is one of statuses, preserving order.
func FilterStatus(entries []*domain.Entry, statuses ...domain.EntryStatus) []*domain.Entry {
	out := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		for _, s := range statuses {
			if e.Status == s {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
