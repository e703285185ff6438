package calendar

import "github.com/galhr/portal/backend/internal/domain"

// Buckets maps a yyyy-MM-dd key to the entries placed on that day, in input order.
type Buckets map[string][]*domain.Entry

// GroupByDate places every entry on each of its days. A vacation appears in the bucket of
// every day it spans; the input slice is not modified.
func GroupByDate(entries []*domain.Entry) Buckets {
	b := make(Buckets)
	for _, e := range entries {
		for _, d := range PlacementDates(e) {
			key := d.String()
			b[key] = append(b[key], e)
		}
	}
	return b
}

func (b Buckets) EntriesForDate(d domain.Date) []*domain.Entry {
	if entries, ok := b[d.String()]; ok {
		return entries
	}
	return []*domain.Entry{}
}

func (b Buckets) HasEntries(d domain.Date) bool {
	return len(b[d.String()]) > 0
}

// TypesForDate lists the distinct entry types on d in first-seen order.
func (b Buckets) TypesForDate(d domain.Date) []domain.EntryType {
	seen := make(map[domain.EntryType]bool)
	types := []domain.EntryType{}
	for _, e := range b[d.String()] {
		t := e.Type()
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}
