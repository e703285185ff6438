package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/config"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/repository"
)

type userStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
}

// openStore connects to the configured database; tests swap it for an in-memory store.
var openStore = func(ctx context.Context) (userStore, func() error, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Backend != config.StoreBackendPostgres {
		return nil, nil, fmt.Errorf("adduser needs STORE_BACKEND=postgres, got %q", cfg.Store.Backend)
	}
	db, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRepository(cfg, db), db.Close, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address used to sign in")
	name := fs.String("name", "", "Display name (default: the part of the email before @)")
	role := fs.String("role", string(domain.RoleAdmin), "Role: ADMIN, EMPLOYEE or VOLUNTEER")
	department := fs.String("department", "", "Department (optional)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-name <name>] [-role <role>] [-password <password>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	user := &domain.User{
		Email:      strings.ToLower(strings.TrimSpace(*email)),
		Name:       strings.TrimSpace(*name),
		Role:       domain.Role(strings.ToUpper(strings.TrimSpace(*role))),
		Department: strings.TrimSpace(*department),
	}
	if user.Name == "" {
		// keep the case the address was typed in
		user.Name, _, _ = strings.Cut(strings.TrimSpace(*email), "@")
	}

	validate := validator.New()
	if err := validate.Var(user.Email, "email,max=254"); err != nil {
		return fmt.Errorf("invalid email %q", *email)
	}
	if err := validate.Var(string(user.Role), "oneof=ADMIN EMPLOYEE VOLUNTEER"); err != nil {
		return fmt.Errorf("invalid role %q", *role)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if err := validate.Var(password, "min=8,max=72"); err != nil {
		return fmt.Errorf("password must be 8 to 72 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	ctx := context.Background()
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStore()

	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("user %s already exists", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s (%s) created successfully with ID %d\n", user.Email, user.Role, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
