package seed

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/domain"
)

// SampleCSV is a small demo data set in the export format.
//
//go:embed data/sample.csv
var SampleCSV string

// Store is the subset of the user and entry store that imports write to.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	CreateEntry(ctx context.Context, e *domain.Entry) error
	UpdateEntryStatus(ctx context.Context, id int64, from, to domain.EntryStatus, reviewerID int64, at time.Time) (*domain.Entry, error)
}

type Options struct {
	// PasswordHash is given to every user the import has to create.
	PasswordHash string
	// ReviewerID is recorded as the reviewer of imported decided entries.
	ReviewerID int64
}

type Result struct {
	Users   int
	Entries int
	Skipped int
}

// Import inserts records, creating missing owners as employees. Entries always go in as
// pending and are then moved to their recorded status. A failing row is logged and skipped;
// only a cancelled context stops the import.
func Import(ctx context.Context, store Store, records []Record, opts Options) (Result, error) {
	var res Result
	owners := make(map[string]int64)

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ownerID, ok := owners[record.OwnerEmail]
		if !ok {
			user, created, err := ensureUser(ctx, store, record, opts.PasswordHash)
			if err != nil {
				slog.Error("could not load or create entry owner", "line", record.Line, "email", record.OwnerEmail, "error", err)
				res.Skipped++
				continue
			}
			if created {
				res.Users++
			}
			ownerID = user.ID
			owners[record.OwnerEmail] = ownerID
		}

		entry := &domain.Entry{OwnerID: ownerID, Description: record.Description, Details: record.Details}
		if err := store.CreateEntry(ctx, entry); err != nil {
			slog.Error("could not insert entry", "line", record.Line, "error", err)
			res.Skipped++
			continue
		}
		res.Entries++

		if record.Status.Terminal() {
			if opts.ReviewerID == 0 {
				slog.Warn("no reviewer given, decided entry left pending", "line", record.Line, "entryID", entry.ID)
				continue
			}
			if _, err := store.UpdateEntryStatus(ctx, entry.ID, domain.StatusPending, record.Status, opts.ReviewerID, time.Now()); err != nil {
				slog.Error("could not restore entry status", "line", record.Line, "entryID", entry.ID, "error", err)
			}
		}
	}

	slog.Info("import finished", "users", res.Users, "entries", res.Entries, "skipped", res.Skipped)
	return res, nil
}

func ensureUser(ctx context.Context, store Store, record Record, passwordHash string) (*domain.User, bool, error) {
	user, err := store.GetUserByEmail(ctx, record.OwnerEmail)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	name := record.OwnerName
	if name == "" {
		name, _, _ = strings.Cut(record.OwnerEmail, "@")
	}
	user = &domain.User{
		Email:        record.OwnerEmail,
		Name:         name,
		Role:         domain.RoleEmployee,
		PasswordHash: passwordHash,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}
