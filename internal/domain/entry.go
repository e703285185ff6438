package domain

import (
	"encoding/json"
	"time"
)

type EntryType string

const (
	EntryTypeWorkHours EntryType = "WORK_HOURS"
	EntryTypeExpense   EntryType = "EXPENSE"
	EntryTypeVacation  EntryType = "VACATION"
	EntryTypeTravel    EntryType = "TRAVEL"
)

var EntryTypes = []EntryType{EntryTypeWorkHours, EntryTypeExpense, EntryTypeVacation, EntryTypeTravel}

func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeWorkHours, EntryTypeExpense, EntryTypeVacation, EntryTypeTravel:
		return true
	}
	return false
}

type EntryStatus string

const (
	StatusPending  EntryStatus = "PENDING"
	StatusApproved EntryStatus = "APPROVED"
	StatusRejected EntryStatus = "REJECTED"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s EntryStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// EntryDetails holds the fields of exactly one entry variant.
type EntryDetails interface {
	Type() EntryType
	isEntryDetails()
}

type WorkHours struct {
	Date        Date    `json:"date"`
	HoursWorked float64 `json:"hoursWorked"`
}

type Expense struct {
	Date       Date    `json:"date"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	ReceiptRef string  `json:"receiptRef,omitempty"`
}

type Vacation struct {
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
	Days      int  `json:"days"`
}

type Travel struct {
	TravelDate   Date    `json:"travelDate"`
	FromLocation string  `json:"fromLocation"`
	ToLocation   string  `json:"toLocation"`
	DistanceKm   float64 `json:"distanceKm"`
}

func (WorkHours) Type() EntryType { return EntryTypeWorkHours }
func (Expense) Type() EntryType   { return EntryTypeExpense }
func (Vacation) Type() EntryType  { return EntryTypeVacation }
func (Travel) Type() EntryType    { return EntryTypeTravel }

func (WorkHours) isEntryDetails() {}
func (Expense) isEntryDetails()   {}
func (Vacation) isEntryDetails()  {}
func (Travel) isEntryDetails()    {}

type Entry struct {
	ID          int64
	OwnerID     int64
	Status      EntryStatus
	Description string
	CreatedAt   time.Time
	ReviewedBy  *int64
	ReviewedAt  *time.Time
	Details     EntryDetails
}

func (e *Entry) Type() EntryType {
	if e.Details == nil {
		return ""
	}
	return e.Details.Type()
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          int64        `json:"id"`
		OwnerID     int64        `json:"ownerId"`
		Type        EntryType    `json:"type"`
		Status      EntryStatus  `json:"status"`
		Description string       `json:"description,omitempty"`
		CreatedAt   time.Time    `json:"createdAt"`
		ReviewedBy  *int64       `json:"reviewedBy,omitempty"`
		ReviewedAt  *time.Time   `json:"reviewedAt,omitempty"`
		Details     EntryDetails `json:"details"`
	}{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Type:        e.Type(),
		Status:      e.Status,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		ReviewedBy:  e.ReviewedBy,
		ReviewedAt:  e.ReviewedAt,
		Details:     e.Details,
	})
}

// Clone returns a copy that shares nothing mutable with e.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.ReviewedBy != nil {
		v := *e.ReviewedBy
		c.ReviewedBy = &v
	}
	if e.ReviewedAt != nil {
		v := *e.ReviewedAt
		c.ReviewedAt = &v
	}
	return &c
}

// EntryWithOwner is an entry joined with a public view of its owner, used by admin listings.
type EntryWithOwner struct {
	*Entry
	Owner *UserSummary `json:"owner,omitempty"`
}

func (e EntryWithOwner) MarshalJSON() ([]byte, error) {
	base, err := e.Entry.MarshalJSON()
	if err != nil || e.Owner == nil {
		return base, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	owner, err := json.Marshal(e.Owner)
	if err != nil {
		return nil, err
	}
	m["owner"] = owner
	return json.Marshal(m)
}
