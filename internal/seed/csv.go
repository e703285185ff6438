// Package seed moves entries in and out of CSV files. An export from one instance can be
// imported into another as seed data.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/utils"
)

var Header = []string{
	"id", "owner_email", "owner_name", "type", "status", "description", "created_at",
	"date", "hours_worked", "amount", "category", "receipt_ref",
	"start_date", "end_date", "days",
	"travel_date", "from_location", "to_location", "distance_km",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes entries with a header row. Columns of other variants are left empty.
func WriteCSV(w io.Writer, entries []*domain.EntryWithOwner) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, e := range entries {
		row := make(map[string]string, len(Header))
		row["id"] = strconv.FormatInt(e.ID, 10)
		if e.Owner != nil {
			row["owner_email"] = e.Owner.Email
			row["owner_name"] = e.Owner.Name
		}
		row["type"] = string(e.Type())
		row["status"] = string(e.Status)
		row["description"] = e.Description
		row["created_at"] = e.CreatedAt.UTC().Format(time.RFC3339)

		switch d := e.Details.(type) {
		case domain.WorkHours:
			row["date"] = d.Date.String()
			row["hours_worked"] = formatFloat(d.HoursWorked)
		case domain.Expense:
			row["date"] = d.Date.String()
			row["amount"] = formatFloat(d.Amount)
			row["category"] = d.Category
			row["receipt_ref"] = d.ReceiptRef
		case domain.Vacation:
			row["start_date"] = d.StartDate.String()
			row["end_date"] = d.EndDate.String()
			row["days"] = strconv.Itoa(d.Days)
		case domain.Travel:
			row["travel_date"] = d.TravelDate.String()
			row["from_location"] = d.FromLocation
			row["to_location"] = d.ToLocation
			row["distance_km"] = formatFloat(d.DistanceKm)
		}

		record := make([]string, len(Header))
		for i, col := range Header {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Record is one imported row.
type Record struct {
	Line        int
	OwnerEmail  string
	OwnerName   string
	Status      domain.EntryStatus
	Description string
	Details     domain.EntryDetails
}

// ReadCSV parses rows written by WriteCSV. Columns are matched by header name, so extra or
// reordered columns are fine; owner_email and type are required. The first bad row stops the
// read with its line number.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(headers[i], "\uFEFF")))
	}
	for _, required := range []string{"owner_email", "type"} {
		found := false
		for _, h := range headers {
			found = found || h == required
		}
		if !found {
			return nil, fmt.Errorf("csv is missing the %s column", required)
		}
	}

	records := make([]Record, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make(map[string]string, len(headers))
		for i, value := range row {
			if i < len(headers) {
				values[headers[i]] = strings.TrimSpace(value)
			}
		}

		record, err := parseRecord(values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		record.Line = line
		records = append(records, record)
	}
	return records, nil
}

func parseRecord(values map[string]string) (Record, error) {
	record := Record{
		OwnerEmail:  strings.ToLower(values["owner_email"]),
		OwnerName:   values["owner_name"],
		Status:      domain.EntryStatus(strings.ToUpper(values["status"])),
		Description: values["description"],
	}
	if record.OwnerEmail == "" {
		return Record{}, domain.NewValidationError("owner_email", "is required")
	}
	if record.Status == "" {
		record.Status = domain.StatusPending
	}
	if !record.Status.Valid() {
		return Record{}, domain.NewValidationError("status", "must be one of PENDING APPROVED REJECTED")
	}

	var errs []error
	date := func(col string) domain.Date {
		d, err := utils.ParseDateField(col, values[col])
		errs = append(errs, err)
		return d
	}
	number := func(col string) float64 {
		v, err := strconv.ParseFloat(values[col], 64)
		if err != nil {
			errs = append(errs, domain.NewValidationError(col, "must be a number"))
		}
		return v
	}

	switch domain.EntryType(strings.ToUpper(values["type"])) {
	case domain.EntryTypeWorkHours:
		record.Details = domain.WorkHours{Date: date("date"), HoursWorked: number("hours_worked")}
	case domain.EntryTypeExpense:
		record.Details = domain.Expense{
			Date:       date("date"),
			Amount:     number("amount"),
			Category:   values["category"],
			ReceiptRef: values["receipt_ref"],
		}
	case domain.EntryTypeVacation:
		days, err := strconv.Atoi(values["days"])
		if err != nil {
			errs = append(errs, domain.NewValidationError("days", "must be a whole number"))
		}
		record.Details = domain.Vacation{StartDate: date("start_date"), EndDate: date("end_date"), Days: days}
	case domain.EntryTypeTravel:
		record.Details = domain.Travel{
			TravelDate:   date("travel_date"),
			FromLocation: values["from_location"],
			ToLocation:   values["to_location"],
			DistanceKm:   number("distance_km"),
		}
	default:
		return Record{}, domain.NewValidationError("type", "must be one of WORK_HOURS EXPENSE VACATION TRAVEL")
	}

	if err := utils.MergeValidation(errs...); err != nil {
		return Record{}, err
	}
	if err := utils.ValidateEntryDetails(record.Details); err != nil {
		return Record{}, err
	}
	return record, nil
}
