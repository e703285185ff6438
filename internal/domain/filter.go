package domain

import "time"

// EntryFilter selects entries. Zero fields do not constrain.
type EntryFilter struct {
	OwnerID *int64
	Type    EntryType
	Status  EntryStatus

	// From and To select entries placed on at least one day of [From, To].
	From Date
	To   Date

	// CreatedFrom and CreatedTo bound CreatedAt to [CreatedFrom, CreatedTo).
	CreatedFrom time.Time
	CreatedTo   time.Time

	Limit int
}
