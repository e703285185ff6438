package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/config"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/repository"
	"github.com/galhr/portal/backend/internal/seed"
	"github.com/galhr/portal/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var days int
	var file string

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random users, 2: insert random entries, 3: import entries from CSV)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.IntVar(&days, "days", 60, "random entries are placed within this many days before today")
	flag.StringVar(&file, "file", "", "CSV file to import with -op 3 (default: built-in sample data)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("could not load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	dbpool, err := repository.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("could not open database", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)
	ctx := context.Background()

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("number of users must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("could not generate user", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(ctx, user); err != nil {
				slog.Error("could not insert user", slog.String("email", user.Email), slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("users inserted", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("number of entries must be positive")
			return
		}

		users, err := repo.ListUsers(ctx)
		if err != nil {
			slog.Error("could not list users", slog.String("error", err.Error()))
			return
		}

		var owners []int64
		for _, u := range users {
			if u.Role != domain.RoleAdmin {
				owners = append(owners, u.ID)
			}
		}
		if len(owners) == 0 {
			slog.Error("no employees or volunteers to own entries, run -op 1 first")
			return
		}

		today := domain.DateOf(time.Now())
		cnt := 0
		for i := 0; i < n; i++ {
			entry := utils.GenerateRandomEntry(owners[rand.Intn(len(owners))], today, days)
			if err := repo.CreateEntry(ctx, entry); err != nil {
				slog.Error("could not insert entry", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("entries inserted", slog.Int("count", cnt))
	case 3:
		var src io.Reader = strings.NewReader(seed.SampleCSV)
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				slog.Error("could not open CSV file", slog.String("error", err.Error()))
				return
			}
			defer f.Close()
			src = f
		}

		records, err := seed.ReadCSV(src)
		if err != nil {
			slog.Error("could not read CSV", slog.String("error", err.Error()))
			return
		}

		hash, err := auth.HashPassword(cfg.Seed.User.Password)
		if err != nil {
			slog.Error("could not hash seed password", slog.String("error", err.Error()))
			return
		}

		// decided rows are attributed to the initial admin when it exists
		opts := seed.Options{PasswordHash: hash}
		if admin, err := repo.GetUserByEmail(ctx, cfg.InitialAdmin.Email); err == nil {
			opts.ReviewerID = admin.ID
		} else {
			slog.Warn("initial admin not found, decided rows stay pending", slog.String("email", cfg.InitialAdmin.Email))
		}

		res, err := seed.Import(ctx, repo, records, opts)
		if err != nil {
			slog.Error("import stopped", slog.String("error", err.Error()))
		}
		slog.Info("import finished", slog.Int("users", res.Users), slog.Int("entries", res.Entries), slog.Int("skipped", res.Skipped))
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}
