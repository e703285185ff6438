package calendar

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/galhr/portal/backend/internal/domain"
)

type Totals struct {
	Entries      int     `json:"entries"`
	Hours        float64 `json:"hours"`
	Expenses     float64 `json:"expenses"`
	VacationDays int     `json:"vacationDays"`
	DistanceKm   float64 `json:"distanceKm"`
}

func TotalsOf(entries []*domain.Entry) Totals {
	return Totals{
		Entries:      len(entries),
		Hours:        SumHours(entries),
		Expenses:     SumExpenses(entries),
		VacationDays: SumVacationDays(entries),
		DistanceKm:   SumDistance(entries),
	}
}

type DayEntry struct {
	*domain.Entry
	Label string `json:"label"`
}

func (d DayEntry) MarshalJSON() ([]byte, error) {
	base, err := d.Entry.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	m["label"], _ = json.Marshal(d.Label)
	return json.Marshal(m)
}

type Day struct {
	Date    domain.Date        `json:"date"`
	Types   []domain.EntryType `json:"types"`
	Entries []DayEntry         `json:"entries"`
}

// Summary is the calendar view of a window: one Day per day of the window plus totals over
// every entry overlapping it.
type Summary struct {
	Window Window `json:"window"`
	Prev   Window `json:"prev"`
	Next   Window `json:"next"`
	Days   []Day  `json:"days"`
	Totals Totals `json:"totals"`
}

// Summarize restricts entries to those overlapping w, then buckets and totals them.
func Summarize(entries []*domain.Entry, w Window) Summary {
	inWindow := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if w.Overlaps(e) {
			inWindow = append(inWindow, e)
		}
	}

	buckets := GroupByDate(inWindow)
	days := make([]Day, 0, 31)
	for _, d := range w.Days() {
		placed := buckets.EntriesForDate(d)
		day := Day{Date: d, Types: buckets.TypesForDate(d), Entries: make([]DayEntry, 0, len(placed))}
		for _, e := range placed {
			day.Entries = append(day.Entries, DayEntry{Entry: e, Label: Label(e)})
		}
		days = append(days, day)
	}

	return Summary{
		Window: w,
		Prev:   w.Prev(),
		Next:   w.Next(),
		Days:   days,
		Totals: TotalsOf(inWindow),
	}
}

// Label is the short display form of an entry's quantity.
func Label(e *domain.Entry) string {
	switch d := e.Details.(type) {
	case domain.WorkHours:
		return formatNumber(d.HoursWorked) + "h"
	case domain.Expense:
		return fmt.Sprintf("$%.2f", d.Amount)
	case domain.Vacation:
		return strconv.Itoa(d.Days) + "d"
	case domain.Travel:
		return formatNumber(d.DistanceKm) + "km"
	default:
		return ""
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
