package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/domain"
)

const entryColumns = `
	e.id, e.owner_id, e.type, e.status, e.description, e.created_at, e.reviewed_by, e.reviewed_at,
	e.date, e.hours_worked, e.amount, e.category, e.receipt_ref,
	e.start_date, e.end_date, e.days,
	e.travel_date, e.from_location, e.to_location, e.distance_km`

// entryRow mirrors the wide entries table; toEntry narrows it to one variant.
type entryRow struct {
	id          int64
	ownerID     int64
	typ         domain.EntryType
	status      domain.EntryStatus
	description sql.NullString
	createdAt   time.Time
	reviewedBy  sql.NullInt64
	reviewedAt  sql.NullTime

	date        domain.Date
	hoursWorked sql.NullFloat64
	amount      sql.NullFloat64
	category    sql.NullString
	receiptRef  sql.NullString

	startDate domain.Date
	endDate   domain.Date
	days      sql.NullInt32

	travelDate   domain.Date
	fromLocation sql.NullString
	toLocation   sql.NullString
	distanceKm   sql.NullFloat64
}

func (row *entryRow) dst() []any {
	return []any{
		&row.id, &row.ownerID, &row.typ, &row.status, &row.description, &row.createdAt, &row.reviewedBy, &row.reviewedAt,
		&row.date, &row.hoursWorked, &row.amount, &row.category, &row.receiptRef,
		&row.startDate, &row.endDate, &row.days,
		&row.travelDate, &row.fromLocation, &row.toLocation, &row.distanceKm,
	}
}

func (row *entryRow) toEntry() (*domain.Entry, error) {
	e := &domain.Entry{
		ID:          row.id,
		OwnerID:     row.ownerID,
		Status:      row.status,
		Description: row.description.String,
		CreatedAt:   row.createdAt,
	}
	if row.reviewedBy.Valid {
		v := row.reviewedBy.Int64
		e.ReviewedBy = &v
	}
	if row.reviewedAt.Valid {
		v := row.reviewedAt.Time
		e.ReviewedAt = &v
	}

	missing := func(col string) error {
		return fmt.Errorf("entry %d of type %s has no %s", row.id, row.typ, col)
	}

	switch row.typ {
	case domain.EntryTypeWorkHours:
		if row.date.IsZero() || !row.hoursWorked.Valid {
			return nil, missing("date/hours_worked")
		}
		e.Details = domain.WorkHours{Date: row.date, HoursWorked: row.hoursWorked.Float64}
	case domain.EntryTypeExpense:
		if row.date.IsZero() || !row.amount.Valid || !row.category.Valid {
			return nil, missing("date/amount/category")
		}
		e.Details = domain.Expense{Date: row.date, Amount: row.amount.Float64, Category: row.category.String, ReceiptRef: row.receiptRef.String}
	case domain.EntryTypeVacation:
		if row.startDate.IsZero() || row.endDate.IsZero() || !row.days.Valid {
			return nil, missing("start_date/end_date/days")
		}
		e.Details = domain.Vacation{StartDate: row.startDate, EndDate: row.endDate, Days: int(row.days.Int32)}
	case domain.EntryTypeTravel:
		if row.travelDate.IsZero() || !row.fromLocation.Valid || !row.toLocation.Valid || !row.distanceKm.Valid {
			return nil, missing("travel_date/from_location/to_location/distance_km")
		}
		e.Details = domain.Travel{TravelDate: row.travelDate, FromLocation: row.fromLocation.String, ToLocation: row.toLocation.String, DistanceKm: row.distanceKm.Float64}
	default:
		return nil, fmt.Errorf("entry %d has unknown type %q", row.id, row.typ)
	}

	return e, nil
}

// variantArgs returns the values of the per-variant columns in entryColumns order.
func variantArgs(d domain.EntryDetails) ([]any, error) {
	var (
		date, startDate, endDate, travelDate  any
		hoursWorked, amount, distanceKm, days any
		category, receiptRef, from, to        any
	)
	switch v := d.(type) {
	case domain.WorkHours:
		date, hoursWorked = v.Date, v.HoursWorked
	case domain.Expense:
		date, amount, category, receiptRef = v.Date, v.Amount, v.Category, nullString(v.ReceiptRef)
	case domain.Vacation:
		startDate, endDate, days = v.StartDate, v.EndDate, v.Days
	case domain.Travel:
		travelDate, from, to, distanceKm = v.TravelDate, v.FromLocation, v.ToLocation, v.DistanceKm
	default:
		return nil, fmt.Errorf("unsupported entry details %T", d)
	}
	return []any{date, hoursWorked, amount, category, receiptRef, startDate, endDate, days, travelDate, from, to, distanceKm}, nil
}

// CreateEntry inserts e as PENDING and fills in its ID, Status and CreatedAt.
func (r *Repository) CreateEntry(ctx context.Context, e *domain.Entry) error {
	query := `
		INSERT INTO entries (
			owner_id, type, status, description,
			date, hours_worked, amount, category, receipt_ref,
			start_date, end_date, days,
			travel_date, from_location, to_location, distance_km
		)
		VALUES ($1, $2, 'PENDING', $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, status, created_at
	`

	variant, err := variantArgs(e.Details)
	if err != nil {
		return err
	}
	args := append([]any{e.OwnerID, e.Type(), nullString(e.Description)}, variant...)

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.Status, &e.CreatedAt); err != nil {
		return translate(err)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries e WHERE e.id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var row entryRow
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(row.dst()...); err != nil {
		return nil, translate(err)
	}
	return row.toEntry()
}

// FindEntries returns matching entries, newest first.
func (r *Repository) FindEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.Entry, error) {
	w := filterClause(f)
	query := `SELECT ` + entryColumns + ` FROM entries e` + w.sql() + ` ORDER BY e.created_at DESC, e.id DESC` + limitClause(f.Limit)

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.dst()...); err != nil {
			return nil, err
		}
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// FindEntriesWithOwner is FindEntries joined with the owner's public fields.
func (r *Repository) FindEntriesWithOwner(ctx context.Context, f domain.EntryFilter) ([]*domain.EntryWithOwner, error) {
	w := filterClause(f)
	query := `SELECT ` + entryColumns + `, u.name, u.email, u.role, u.department
		FROM entries e JOIN users u ON u.id = e.owner_id` + w.sql() + `
		ORDER BY e.created_at DESC, e.id DESC` + limitClause(f.Limit)

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.EntryWithOwner, 0)
	for rows.Next() {
		var row entryRow
		owner := &domain.UserSummary{}
		var department sql.NullString
		dst := append(row.dst(), &owner.Name, &owner.Email, &owner.Role, &department)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		owner.ID = e.OwnerID
		owner.Department = department.String
		entries = append(entries, &domain.EntryWithOwner{Entry: e, Owner: owner})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repository) CountEntries(ctx context.Context, f domain.EntryFilter) (int, error) {
	w := filterClause(f)
	query := `SELECT COUNT(*) FROM entries e` + w.sql()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var n int
	if err := r.dbpool.QueryRowContext(ctx, query, w.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateEntryStatus moves the entry from one status to another only while it still holds
// from. Losing the race leaves the row untouched and reports domain.ErrInvalidState.
func (r *Repository) UpdateEntryStatus(ctx context.Context, id int64, from, to domain.EntryStatus, reviewerID int64, at time.Time) (*domain.Entry, error) {
	query := `
		UPDATE entries e
		SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE e.id = $4 AND e.status = $5
		RETURNING ` + entryColumns

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var row entryRow
	err := r.dbpool.QueryRowContext(ctx, query, to, reviewerID, at, id, from).Scan(row.dst()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missOrState(ctx, id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toEntry()
}

// DeletePendingEntry removes an entry for its owner while it is still PENDING.
func (r *Repository) DeletePendingEntry(ctx context.Context, id, ownerID int64) error {
	query := `DELETE FROM entries WHERE id = $1 AND owner_id = $2 AND status = 'PENDING'`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var owner int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT owner_id FROM entries WHERE id = $1`, id).Scan(&owner); err != nil {
		return translate(err)
	}
	if owner != ownerID {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidState
}

func (r *Repository) missOrState(ctx context.Context, id int64) error {
	var exists bool
	if err := r.dbpool.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidState
}

type whereClause struct {
	clauses []string
	args    []any
}

// add appends a condition; each ? is replaced by the next positional parameter.
func (w *whereClause) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, cond)
}

func (w *whereClause) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func filterClause(f domain.EntryFilter) *whereClause {
	w := &whereClause{}
	if f.OwnerID != nil {
		w.add("e.owner_id = ?", *f.OwnerID)
	}
	if f.Type != "" {
		w.add("e.type = ?", f.Type)
	}
	if f.Status != "" {
		w.add("e.status = ?", f.Status)
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		cond, args := placementOverlap(f.From, f.To)
		w.add(cond, args...)
	}
	if !f.CreatedFrom.IsZero() {
		w.add("e.created_at >= ?", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		w.add("e.created_at < ?", f.CreatedTo)
	}
	return w
}

// placementOverlap matches entries placed on at least one day of [from, to]; a zero bound
// is open.
func placementOverlap(from, to domain.Date) (string, []any) {
	var args []any
	bounds := func(lowCol, highCol string) string {
		var parts []string
		if !from.IsZero() {
			parts = append(parts, highCol+" >= ?")
			args = append(args, from)
		}
		if !to.IsZero() {
			parts = append(parts, lowCol+" <= ?")
			args = append(args, to)
		}
		return strings.Join(parts, " AND ")
	}

	single := bounds("e.date", "e.date")
	travel := bounds("e.travel_date", "e.travel_date")
	vacation := bounds("e.start_date", "e.end_date")

	cond := `((e.type IN ('WORK_HOURS', 'EXPENSE') AND ` + single + `)` +
		` OR (e.type = 'TRAVEL' AND ` + travel + `)` +
		` OR (e.type = 'VACATION' AND ` + vacation + `))`
	return cond, args
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}
