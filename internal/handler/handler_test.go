package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/config"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/memstore"
	"github.com/galhr/portal/backend/internal/otp"
	"github.com/galhr/portal/backend/internal/storage"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent []domain.MailMessage
	err  error
}

func (p *fakePublisher) PublishMail(_ context.Context, msg domain.MailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *fakePublisher) last(t *testing.T, mailType string) domain.MailMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.sent) - 1; i >= 0; i-- {
		if p.sent[i].Type == mailType {
			return p.sent[i]
		}
	}
	t.Fatalf("no %s mail was published", mailType)
	return domain.MailMessage{}
}

type envelope struct {
	Success bool                `json:"success"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  []domain.FieldError `json:"errors"`
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.InitialAdmin.Email = "root@example.com"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.OTP.Expiration = 900
	cfg.NewUser.PasswordLength = 12
	cfg.Storage.MaxUploadSize = 1 << 20
	return cfg
}

func newTestHandler(t *testing.T, store Store) (*Handler, *fakePublisher) {
	t.Helper()
	cfg := testConfig()
	files, err := storage.New(t.TempDir(), "http://localhost/files", cfg.Storage.MaxUploadSize)
	require.NoError(t, err)

	mail := &fakePublisher{}
	h, err := NewHandler(cfg, store, mail, otp.NewMemoryStore(), files)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h, mail
}

type HandlerSuite struct {
	suite.Suite
	store *memstore.Store
	mail  *fakePublisher
	h     *Handler

	rootToken  string
	rootID     int64
	staffToken string
	staffID    int64
}

func (s *HandlerSuite) SetupTest() {
	s.store = memstore.New()
	s.h, s.mail = newTestHandler(s.T(), s.store)
	s.h.now = func() time.Time { return time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC) }

	s.rootID = s.addUser("root@example.com", "root-password", domain.RoleAdmin)
	s.staffID = s.addUser("staff@example.com", "staff-password", domain.RoleEmployee)
	s.rootToken = s.login("root@example.com", "root-password")
	s.staffToken = s.login("staff@example.com", "staff-password")
}

func (s *HandlerSuite) addUser(email, password string, role domain.Role) int64 {
	hash, err := auth.HashPassword(password)
	s.Require().NoError(err)
	u := &domain.User{Email: email, Name: strings.Split(email, "@")[0], Role: role, PasswordHash: hash}
	s.Require().NoError(s.store.CreateUser(context.Background(), u))
	return u.ID
}

func (s *HandlerSuite) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *HandlerSuite) login(email, password string) string {
	rec, env := s.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data.Token
}

func (s *HandlerSuite) submitHours(token, date string, hours float64) int64 {
	rec, env := s.do(http.MethodPost, "/entries/work-hours", map[string]any{"date": date, "hoursWorked": hours}, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var e struct {
		ID int64 `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &e))
	return e.ID
}

func fieldNames(errs []domain.FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func (s *HandlerSuite) TestHealth() {
	rec, env := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.True(env.Success)
}

func (s *HandlerSuite) TestAuthRequired() {
	rec, env := s.do(http.MethodGet, "/me", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(domain.CodeAuthentication, env.Code)

	rec, _ = s.do(http.MethodGet, "/me", nil, "not-a-token")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestLoginSetsCookie() {
	rec, _ := s.do(http.MethodPost, "/auth/login", map[string]string{"email": "STAFF@example.com", "password": "staff-password"}, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	s.Require().NotNil(session)
	s.True(session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(session)
	me := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(me, req)
	s.Equal(http.StatusOK, me.Code)
	s.Contains(me.Body.String(), "staff@example.com")
	s.NotContains(me.Body.String(), "$2a$")
}

func (s *HandlerSuite) TestLoginRejectsBadPassword() {
	rec, env := s.do(http.MethodPost, "/auth/login", map[string]string{"email": "staff@example.com", "password": "nope"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(domain.CodeAuthentication, env.Code)

	rec, _ = s.do(http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": "nope"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestRegister() {
	body := map[string]string{"email": "New@Example.com", "password": "long-enough", "name": "New Person", "role": "VOLUNTEER"}
	rec, _ := s.do(http.MethodPost, "/auth/register", body, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("new@example.com", s.mail.last(s.T(), domain.MailTypeWelcome).To)

	rec, env := s.do(http.MethodPost, "/auth/register", body, "")
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(domain.CodeConflict, env.Code)

	body["email"] = "boss@example.com"
	body["role"] = "ADMIN"
	rec, env = s.do(http.MethodPost, "/auth/register", body, "")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"role"}, fieldNames(env.Errors))
}

func (s *HandlerSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSubmitEntriesValidation() {
	rec, env := s.do(http.MethodPost, "/entries/work-hours", map[string]any{"date": "2024-01-15", "hoursWorked": 25}, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal(domain.CodeValidation, env.Code)
	s.Equal([]string{"hoursWorked"}, fieldNames(env.Errors))

	rec, env = s.do(http.MethodPost, "/entries/vacations", map[string]any{"startDate": "2024-01-16", "endDate": "2024-01-14", "days": 1}, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"endDate"}, fieldNames(env.Errors))

	rec, env = s.do(http.MethodPost, "/entries/expenses", map[string]any{"date": "2024-01-15", "amount": 0, "receiptRef": "not a url"}, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.ElementsMatch([]string{"amount", "category", "receiptRef"}, fieldNames(env.Errors))

	rec, env = s.do(http.MethodPost, "/entries/travels", map[string]any{"travelDate": "yesterday", "fromLocation": "A", "toLocation": "B", "distanceKm": 3}, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"travelDate"}, fieldNames(env.Errors))
}

func (s *HandlerSuite) TestSubmitAllVariants() {
	bodies := map[string]map[string]any{
		"/entries/work-hours": {"date": "2024-01-15", "hoursWorked": 7.5, "description": "support desk"},
		"/entries/expenses":   {"date": "2024-01-15", "amount": 12.3, "category": "Meals", "receiptRef": "http://localhost/files/a.png"},
		"/entries/vacations":  {"startDate": "2024-01-20", "endDate": "2024-01-22", "days": 3},
		"/entries/travels":    {"travelDate": "2024-01-15", "fromLocation": "Office", "toLocation": "Client", "distanceKm": 42},
	}
	for path, body := range bodies {
		rec, env := s.do(http.MethodPost, path, body, s.staffToken)
		s.Require().Equal(http.StatusCreated, rec.Code, path+": "+rec.Body.String())
		var e struct {
			OwnerID int64  `json:"ownerId"`
			Status  string `json:"status"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &e))
		s.Equal(s.staffID, e.OwnerID)
		s.Equal("PENDING", e.Status)
	}

	rec, env := s.do(http.MethodGet, "/entries?type=expense", nil, s.staffToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Len(list, 1)

	// other users see none of them
	rec, env = s.do(http.MethodGet, "/entries", nil, s.rootToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Empty(list)
}

func (s *HandlerSuite) TestModeration() {
	id := s.submitHours(s.staffToken, "2024-01-15", 8)
	path := "/admin/entries/" + itoa(id)

	rec, env := s.do(http.MethodPost, path+"/approve", nil, s.staffToken)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(domain.CodeAuthorization, env.Code)

	rec, env = s.do(http.MethodPost, path+"/approve", nil, s.rootToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var e struct {
		Status     string `json:"status"`
		ReviewedBy int64  `json:"reviewedBy"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &e))
	s.Equal("APPROVED", e.Status)
	s.Equal(s.rootID, e.ReviewedBy)

	notice := s.mail.last(s.T(), domain.MailTypeEntryDecision)
	s.Equal("staff@example.com", notice.To)
	s.Equal(domain.StatusApproved, notice.Data.(domain.EntryDecisionMailData).Status)

	rec, env = s.do(http.MethodPost, path+"/reject", nil, s.rootToken)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(domain.CodeInvalidState, env.Code)

	rec, env = s.do(http.MethodPost, "/admin/entries/9999/approve", nil, s.rootToken)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(domain.CodeNotFound, env.Code)

	rec, _ = s.do(http.MethodPost, "/admin/entries/abc/approve", nil, s.rootToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *HandlerSuite) TestDecideByPatch() {
	id := s.submitHours(s.staffToken, "2024-01-15", 8)
	path := "/admin/entries/" + itoa(id)

	rec, env := s.do(http.MethodPatch, path, map[string]string{"status": "PENDING"}, s.rootToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"status"}, fieldNames(env.Errors))

	rec, _ = s.do(http.MethodPatch, path, map[string]string{"status": "REJECTED"}, s.rootToken)
	s.Equal(http.StatusOK, rec.Code)

	entry, err := s.store.GetEntry(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, entry.Status)
}

func (s *HandlerSuite) TestAdminEntryList() {
	s.submitHours(s.staffToken, "2024-01-15", 8)
	s.submitHours(s.rootToken, "2024-01-16", 4)

	rec, env := s.do(http.MethodGet, "/admin/entries?status=PENDING&userId="+itoa(s.staffID), nil, s.rootToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []struct {
		Owner struct {
			Email string `json:"email"`
		} `json:"owner"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Require().Len(list, 1)
	s.Equal("staff@example.com", list[0].Owner.Email)

	rec, _ = s.do(http.MethodGet, "/admin/entries?status=DONE", nil, s.rootToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	rec, _ = s.do(http.MethodGet, "/admin/entries", nil, s.staffToken)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestMyEntriesLimit() {
	ctx := context.Background()
	start := domain.NewDate(2024, time.January, 1)
	for i := 0; i < defaultListLimit+5; i++ {
		e := &domain.Entry{OwnerID: s.staffID, Details: domain.WorkHours{Date: start.AddDays(i % 28), HoursWorked: 1}}
		s.Require().NoError(s.store.CreateEntry(ctx, e))
	}

	count := func(path string) int {
		rec, env := s.do(http.MethodGet, path, nil, s.staffToken)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var list []json.RawMessage
		s.Require().NoError(json.Unmarshal(env.Data, &list))
		return len(list)
	}

	s.Equal(defaultListLimit, count("/entries"))
	s.Equal(5, count("/entries?limit=5"))

	rec, env := s.do(http.MethodGet, "/entries?limit=0", nil, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"limit"}, fieldNames(env.Errors))
}

func (s *HandlerSuite) TestCalendarWeek() {
	s.submitHours(s.staffToken, "2024-01-15", 8)
	rec, _ := s.do(http.MethodPost, "/entries/vacations", map[string]any{"startDate": "2024-01-14", "endDate": "2024-01-16", "days": 3}, s.staffToken)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec, env := s.do(http.MethodGet, "/entries/calendar?view=week&date=2024-01-17", nil, s.staffToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var cal struct {
		Window struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"window"`
		Next struct {
			Start string `json:"start"`
		} `json:"next"`
		Days []struct {
			Date    string   `json:"date"`
			Types   []string `json:"types"`
			Entries []struct {
				Label string `json:"label"`
			} `json:"entries"`
		} `json:"days"`
		Totals struct {
			Hours        float64 `json:"hours"`
			VacationDays int     `json:"vacationDays"`
		} `json:"totals"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &cal))

	s.Equal("2024-01-14", cal.Window.Start)
	s.Equal("2024-01-20", cal.Window.End)
	s.Equal("2024-01-21", cal.Next.Start)
	s.Require().Len(cal.Days, 7)
	s.Equal([]string{"VACATION"}, cal.Days[0].Types)
	s.ElementsMatch([]string{"VACATION", "WORK_HOURS"}, cal.Days[1].Types)
	s.Equal([]string{"VACATION"}, cal.Days[2].Types)
	s.Empty(cal.Days[3].Types)
	s.Equal(8.0, cal.Totals.Hours)
	s.Equal(3, cal.Totals.VacationDays)

	labels := []string{}
	for _, e := range cal.Days[1].Entries {
		labels = append(labels, e.Label)
	}
	s.ElementsMatch([]string{"8h", "3d"}, labels)

	rec, _ = s.do(http.MethodGet, "/entries/calendar?view=year", nil, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *HandlerSuite) TestSummaryByStatus() {
	approved := s.submitHours(s.staffToken, "2024-01-10", 8)
	s.submitHours(s.staffToken, "2024-01-11", 3)
	_, err := s.h.workflow.Approve(context.Background(), domain.Principal{UserID: s.rootID, Role: domain.RoleAdmin}, approved)
	s.Require().NoError(err)

	var out struct {
		Totals struct {
			Entries int     `json:"entries"`
			Hours   float64 `json:"hours"`
		} `json:"totals"`
	}

	_, env := s.do(http.MethodGet, "/entries/summary?date=2024-01-01", nil, s.staffToken)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Equal(11.0, out.Totals.Hours)

	_, env = s.do(http.MethodGet, "/entries/summary?date=2024-01-01&status=approved", nil, s.staffToken)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Equal(1, out.Totals.Entries)
	s.Equal(8.0, out.Totals.Hours)
}

func (s *HandlerSuite) TestDeleteOwnEntry() {
	pending := s.submitHours(s.staffToken, "2024-01-15", 8)
	decided := s.submitHours(s.staffToken, "2024-01-16", 8)
	_, err := s.h.workflow.Reject(context.Background(), domain.Principal{UserID: s.rootID, Role: domain.RoleAdmin}, decided)
	s.Require().NoError(err)

	rec, _ := s.do(http.MethodDelete, "/entries/"+itoa(pending), nil, s.rootToken)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/entries/"+itoa(pending), nil, s.staffToken)
	s.Equal(http.StatusOK, rec.Code)

	rec, env := s.do(http.MethodDelete, "/entries/"+itoa(decided), nil, s.staffToken)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(domain.CodeInvalidState, env.Code)
}

func (s *HandlerSuite) TestAdminUsers() {
	rec, _ := s.do(http.MethodPost, "/admin/users", map[string]string{"email": "hire@example.com", "name": "Hire", "role": "EMPLOYEE"}, s.rootToken)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	created := s.mail.last(s.T(), domain.MailTypeCreateUser).Data.(domain.CreateUserMailData)
	s.Len(created.Password, 12)
	s.login("hire@example.com", created.Password)

	rec, _ = s.do(http.MethodPost, "/admin/users", map[string]string{"email": "hire@example.com", "name": "Hire", "role": "EMPLOYEE"}, s.rootToken)
	s.Equal(http.StatusConflict, rec.Code)

	rec, env := s.do(http.MethodGet, "/admin/users", nil, s.rootToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var users []map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &users))
	s.Len(users, 3)
	s.NotContains(string(env.Data), "passwordHash")
}

func (s *HandlerSuite) TestDeleteUser() {
	s.submitHours(s.staffToken, "2024-01-15", 8)

	rec, _ := s.do(http.MethodDelete, "/admin/users/"+itoa(s.rootID), nil, s.rootToken)
	s.Equal(http.StatusForbidden, rec.Code)

	other := s.addUser("second@example.com", "second-password", domain.RoleAdmin)
	otherToken := s.login("second@example.com", "second-password")
	rec, _ = s.do(http.MethodDelete, "/admin/users/"+itoa(other), nil, otherToken)
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/admin/users/"+itoa(s.staffID), nil, otherToken)
	s.Require().Equal(http.StatusOK, rec.Code)

	n, err := s.store.CountEntries(context.Background(), domain.EntryFilter{})
	s.Require().NoError(err)
	s.Zero(n)

	// the deleted user's token no longer works
	rec, _ = s.do(http.MethodGet, "/me", nil, s.staffToken)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/admin/users/"+itoa(s.staffID), nil, otherToken)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestPasswordReset() {
	rec, _ := s.do(http.MethodPost, "/auth/reset-password/require", map[string]string{"email": "ghost@example.com"}, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(s.mail.sent)

	rec, _ = s.do(http.MethodPost, "/auth/reset-password/require", map[string]string{"email": "staff@example.com"}, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	code := s.mail.last(s.T(), domain.MailTypeResetPassword).Data.(domain.ResetPasswordMailData).OTP

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec, env := s.do(http.MethodPost, "/auth/reset-password/confirm", map[string]string{"email": "staff@example.com", "otp": wrong, "password": "brand-new-pass"}, "")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"otp"}, fieldNames(env.Errors))

	rec, _ = s.do(http.MethodPost, "/auth/reset-password/confirm", map[string]string{"email": "staff@example.com", "otp": code, "password": "brand-new-pass"}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.login("staff@example.com", "brand-new-pass")

	// codes are single use
	rec, _ = s.do(http.MethodPost, "/auth/reset-password/confirm", map[string]string{"email": "staff@example.com", "otp": code, "password": "another-pass"}, "")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *HandlerSuite) TestChangePassword() {
	rec, env := s.do(http.MethodPatch, "/me/password", map[string]string{"oldPassword": "wrong", "newPassword": "changed-pass"}, s.staffToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"oldPassword"}, fieldNames(env.Errors))

	rec, _ = s.do(http.MethodPatch, "/me/password", map[string]string{"oldPassword": "staff-password", "newPassword": "changed-pass"}, s.staffToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.login("staff@example.com", "changed-pass")
}

func (s *HandlerSuite) TestUploadAndServe() {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	upload := func(content []byte) (*httptest.ResponseRecorder, envelope) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "receipt.bin")
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
		s.Require().NoError(mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.staffToken)
		rec := httptest.NewRecorder()
		s.h.Mux.ServeHTTP(rec, req)

		var env envelope
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
		return rec, env
	}

	rec, env := upload(png)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var obj storage.Object
	s.Require().NoError(json.Unmarshal(env.Data, &obj))
	s.Equal("image/png", obj.ContentType)
	s.True(strings.HasPrefix(obj.URL, "http://localhost/files/"))

	get := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/files/"+obj.Name, nil))
	s.Equal(http.StatusOK, get.Code)
	s.Equal("image/png", get.Header().Get("Content-Type"))
	s.Equal(png, get.Body.Bytes())

	rec, env = upload([]byte("plain text is not a receipt"))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal([]string{"file"}, fieldNames(env.Errors))

	missing := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/files/../../etc/passwd", nil))
	s.NotEqual(http.StatusOK, missing.Code)
}

func (s *HandlerSuite) TestExportCSV() {
	s.submitHours(s.staffToken, "2024-01-15", 8)
	s.submitHours(s.staffToken, "2024-02-15", 8)

	req := httptest.NewRequest(http.MethodGet, "/admin/entries/export?view=month&date=2024-01-01", nil)
	req.Header.Set("Authorization", "Bearer "+s.rootToken)
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Content-Disposition"), "entries_2024-01-01_2024-01-31.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	s.Require().Len(lines, 2)
	s.True(strings.HasPrefix(lines[0], "id,owner_email"))
	s.Contains(lines[1], "staff@example.com")
	s.Contains(lines[1], "2024-01-15")
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestStatsWithFixtures(t *testing.T) {
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	store := memstore.New()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	store.LoadFixtures(hash, now)

	h, _ := newTestHandler(t, store)
	h.now = func() time.Time { return now }

	admin, err := store.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	token, _, err := h.issuer.Issue(admin.ID, admin.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	stats := env.Data

	assert.Equal(t, 8, stats.TotalUsers)
	assert.Equal(t, 1, stats.UsersByRole[domain.RoleAdmin])
	assert.Equal(t, 5, stats.UsersByRole[domain.RoleEmployee])
	assert.Equal(t, 2, stats.UsersByRole[domain.RoleVolunteer])
	assert.Equal(t, 5, stats.PendingEntries)
	assert.Equal(t, 13, stats.ApprovedThisMonth)
	assert.InDelta(t, 72.5, stats.ApprovedTotalsInMonth.Hours, 1e-9)
	assert.InDelta(t, 384.99, stats.ApprovedTotalsInMonth.Expenses, 1e-9)
	assert.InDelta(t, 120.5, stats.ApprovedTotalsInMonth.DistanceKm, 1e-9)
	assert.Equal(t, 0, stats.ApprovedTotalsInMonth.VacationDays)
	assert.Equal(t, "2024-03-01", stats.Month.Start.String())
}

func (s *HandlerSuite) TestDecisionSurvivesMailFailure() {
	id := s.submitHours(s.staffToken, "2024-01-15", 8)
	s.mail.err = io.ErrClosedPipe

	rec, _ := s.do(http.MethodPost, "/admin/entries/"+itoa(id)+"/approve", nil, s.rootToken)
	s.Equal(http.StatusOK, rec.Code)

	// a generated password that cannot be delivered must not leave a usable account behind
	rec, env := s.do(http.MethodPost, "/admin/users", map[string]string{"email": "lost@example.com", "name": "Lost", "role": "EMPLOYEE"}, s.rootToken)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(domain.CodeInternal, env.Code)

	_, err := s.store.GetUserByEmail(context.Background(), "lost@example.com")
	s.ErrorIs(err, domain.ErrNotFound)
}
