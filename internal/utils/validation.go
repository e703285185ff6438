package utils

import (
	"errors"
	"strings"

	"github.com/galhr/portal/backend/internal/domain"
)

const MaxHoursPerDay = 24

// ParseDateField parses a submitted day, reporting failure against field.
func ParseDateField(field, value string) (domain.Date, error) {
	if strings.TrimSpace(value) == "" {
		return domain.Date{}, domain.NewValidationError(field, "is required")
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, domain.NewValidationError(field, "must be a date in yyyy-MM-dd format")
	}
	return d, nil
}

// ValidateEntryDetails checks the field constraints of one entry variant and reports every
// violation at once.
func ValidateEntryDetails(details domain.EntryDetails) error {
	v := &domain.ValidationError{}
	add := func(field, msg string) {
		v.Fields = append(v.Fields, domain.FieldError{Field: field, Message: msg})
	}

	switch d := details.(type) {
	case domain.WorkHours:
		if d.Date.IsZero() {
			add("date", "is required")
		}
		if d.HoursWorked <= 0 {
			add("hoursWorked", "must be greater than 0")
		} else if d.HoursWorked > MaxHoursPerDay {
			add("hoursWorked", "must be 24 or less")
		}
	case domain.Expense:
		if d.Date.IsZero() {
			add("date", "is required")
		}
		if d.Amount <= 0 {
			add("amount", "must be greater than 0")
		}
		if strings.TrimSpace(d.Category) == "" {
			add("category", "is required")
		}
	case domain.Vacation:
		if d.StartDate.IsZero() {
			add("startDate", "is required")
		}
		if d.EndDate.IsZero() {
			add("endDate", "is required")
		}
		if !d.StartDate.IsZero() && !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
			add("endDate", "must be on or after startDate")
		}
		if d.Days <= 0 {
			add("days", "must be greater than 0")
		}
	case domain.Travel:
		if d.TravelDate.IsZero() {
			add("travelDate", "is required")
		}
		if strings.TrimSpace(d.FromLocation) == "" {
			add("fromLocation", "is required")
		}
		if strings.TrimSpace(d.ToLocation) == "" {
			add("toLocation", "is required")
		}
		if d.DistanceKm <= 0 {
			add("distanceKm", "must be greater than 0")
		}
	case nil:
		return errors.New("entry has no details")
	}

	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

// MergeValidation joins the field errors of several validation failures. Any other error is
// returned as is.
func MergeValidation(errs ...error) error {
	merged := &domain.ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var v *domain.ValidationError
		if !errors.As(err, &v) {
			return err
		}
		merged.Fields = append(merged.Fields, v.Fields...)
	}
	if len(merged.Fields) == 0 {
		return nil
	}
	return merged
}
