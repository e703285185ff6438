package handler

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/config"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/moderation"
	"github.com/galhr/portal/backend/internal/storage"
)

// Store is the user and entry store behind the API. Both the Postgres repository and the
// in-memory store satisfy it.
type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*domain.UserWithEntryCount, error)
	CountUsersByRole(ctx context.Context) (map[domain.Role]int, error)

	CreateEntry(ctx context.Context, e *domain.Entry) error
	GetEntry(ctx context.Context, id int64) (*domain.Entry, error)
	FindEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.Entry, error)
	FindEntriesWithOwner(ctx context.Context, f domain.EntryFilter) ([]*domain.EntryWithOwner, error)
	CountEntries(ctx context.Context, f domain.EntryFilter) (int, error)
	UpdateEntryStatus(ctx context.Context, id int64, from, to domain.EntryStatus, reviewerID int64, at time.Time) (*domain.Entry, error)
	DeletePendingEntry(ctx context.Context, id, ownerID int64) error
}

type MailPublisher interface {
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

// CodeStore keeps one-time codes, see package otp.
type CodeStore interface {
	Set(ctx context.Context, purpose, subject, code string, ttl time.Duration) error
	Get(ctx context.Context, purpose, subject string) (string, error)
	Delete(ctx context.Context, purpose, subject string) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	store      Store
	translator ut.Translator
	issuer     *auth.Issuer
	workflow   *moderation.Workflow
	mail       MailPublisher
	codes      CodeStore
	files      *storage.Store
	now        func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, store Store, mail MailPublisher, codes CodeStore, files *storage.Store) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		store:      store,
		translator: trans,
		issuer:     auth.NewIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Second),
		workflow:   moderation.New(store),
		mail:       mail,
		codes:      codes,
		files:      files,
		now:        time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/health", h.Health)
	h.Mux.Get("/files/{name}", h.GetFile)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// everything below needs a signed-in user that still exists
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.GetMyEntries)
			r.Get("/calendar", h.GetMyCalendar)
			r.Get("/summary", h.GetMySummary)
			r.Post("/work-hours", h.SubmitWorkHours)
			r.Post("/expenses", h.SubmitExpense)
			r.Post("/vacations", h.SubmitVacation)
			r.Post("/travels", h.SubmitTravel)
			r.Delete("/{id}", h.DeleteMyEntry)
		})

		r.Post("/uploads", h.Upload)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", h.GetAllEntries)
				r.Get("/export", h.ExportEntries)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", h.DecideEntry)
					r.Post("/approve", h.ApproveEntry)
					r.Post("/reject", h.RejectEntry)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.GetAllUserInfo)
				r.Post("/", h.CreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.userInfo)
					r.Get("/", h.GetUserInfo)
					r.With(h.preventOperateInitialAdmin).With(h.preventOperateSelf).Delete("/", h.DeleteUser)
				})
			})

			r.Get("/stats", h.GetStats)
		})
	})
}
