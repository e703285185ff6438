package memstore

import (
	"time"

	"github.com/galhr/portal/backend/internal/domain"
)

type fixtureUser struct {
	name, email, department, phone string
	role                           domain.Role
	joinedDaysAgo                  int
}

var fixtureUsers = []fixtureUser{
	{"Admin User", "admin@example.com", "Management", "+1234567890", domain.RoleAdmin, 365},
	{"John Doe", "john@example.com", "Engineering", "+1234567891", domain.RoleEmployee, 180},
	{"Jane Smith", "jane@example.com", "Marketing", "+1234567892", domain.RoleEmployee, 150},
	{"Bob Johnson", "bob@example.com", "Sales", "+1234567893", domain.RoleEmployee, 120},
	{"Alice Williams", "alice@example.com", "Engineering", "+1234567894", domain.RoleEmployee, 90},
	{"Charlie Brown", "charlie@example.com", "", "+1234567895", domain.RoleVolunteer, 60},
	{"Diana Prince", "diana@example.com", "HR", "+1234567896", domain.RoleEmployee, 45},
	{"Eva Martinez", "eva@example.com", "", "+1234567897", domain.RoleVolunteer, 30},
}

type fixtureEntry struct {
	owner          int // index into fixtureUsers
	status         domain.EntryStatus
	createdDaysAgo int
	description    string
	details        func(today domain.Date) domain.EntryDetails
}

func workHours(daysAgo int, h float64) func(domain.Date) domain.EntryDetails {
	return func(today domain.Date) domain.EntryDetails {
		return domain.WorkHours{Date: today.AddDays(-daysAgo), HoursWorked: h}
	}
}

func expense(daysAgo int, amount float64, category string) func(domain.Date) domain.EntryDetails {
	return func(today domain.Date) domain.EntryDetails {
		return domain.Expense{Date: today.AddDays(-daysAgo), Amount: amount, Category: category}
	}
}

func vacation(fromOffset, toOffset, days int) func(domain.Date) domain.EntryDetails {
	return func(today domain.Date) domain.EntryDetails {
		return domain.Vacation{StartDate: today.AddDays(fromOffset), EndDate: today.AddDays(toOffset), Days: days}
	}
}

func travel(daysAgo int, from, to string, km float64) func(domain.Date) domain.EntryDetails {
	return func(today domain.Date) domain.EntryDetails {
		return domain.Travel{TravelDate: today.AddDays(-daysAgo), FromLocation: from, ToLocation: to, DistanceKm: km}
	}
}

var fixtureEntries = []fixtureEntry{
	{1, domain.StatusPending, 1, "Worked on new feature implementation", workHours(1, 8)},
	{2, domain.StatusPending, 2, "Lunch with potential client", expense(2, 125.50, "Client Meeting")},
	{3, domain.StatusPending, 1, "Sales presentation", travel(1, "Main Office", "Client Site Downtown", 45.5)},
	{4, domain.StatusPending, 3, "Family vacation to Hawaii", vacation(14, 18, 5)},
	{5, domain.StatusPending, 2, "Community event organization", workHours(2, 4)},

	{1, domain.StatusApproved, 5, "Code review and bug fixes", workHours(5, 8.5)},
	{1, domain.StatusApproved, 6, "Sprint planning and development", workHours(6, 9)},
	{2, domain.StatusApproved, 4, "Marketing campaign planning", workHours(4, 7.5)},
	{2, domain.StatusApproved, 7, "Marketing materials and supplies", expense(7, 89.99, "Office Supplies")},
	{3, domain.StatusApproved, 3, "Client calls and proposal writing", workHours(3, 8)},
	{3, domain.StatusApproved, 8, "Dinner with major client", expense(8, 250, "Client Meeting")},
	{4, domain.StatusApproved, 4, "Database optimization", workHours(4, 7)},
	{6, domain.StatusApproved, 5, "Employee onboarding and training", workHours(5, 8)},
	{6, domain.StatusApproved, 10, "HR forms and folders", expense(10, 45, "Office Supplies")},
	{3, domain.StatusApproved, 9, "Quarterly sales meeting", travel(9, "Main Office", "Regional Office", 120.5)},

	{2, domain.StatusRejected, 12, "Personal laptop purchase", expense(12, 500, "Equipment")},
	{5, domain.StatusRejected, 3, "Last minute vacation request", vacation(-2, 3, 5)},

	{1, domain.StatusApproved, 10, "Feature development", workHours(10, 8)},
	{4, domain.StatusApproved, 11, "System maintenance", workHours(11, 9)},
	{6, domain.StatusApproved, 12, "Policy documentation", workHours(12, 7.5)},
}

// LoadFixtures fills the store with a demo organisation relative to now. Every fixture user
// gets passwordHash. Decided entries are recorded as reviewed by the fixture admin.
func (s *Store) LoadFixtures(passwordHash string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := domain.DateOf(now)
	ids := make([]int64, len(fixtureUsers))
	for i, fu := range fixtureUsers {
		u := &domain.User{
			ID:           s.id(),
			Email:        fu.email,
			Name:         fu.name,
			Role:         fu.role,
			Department:   fu.department,
			PhoneNumber:  fu.phone,
			PasswordHash: passwordHash,
			CreatedAt:    now.AddDate(0, 0, -fu.joinedDaysAgo),
			Version:      1,
		}
		s.users[u.ID] = u
		ids[i] = u.ID
	}

	admin := ids[0]
	for _, fe := range fixtureEntries {
		created := now.AddDate(0, 0, -fe.createdDaysAgo)
		e := &domain.Entry{
			ID:          s.id(),
			OwnerID:     ids[fe.owner],
			Status:      fe.status,
			Description: fe.description,
			CreatedAt:   created,
			Details:     fe.details(today),
		}
		if fe.status.Terminal() {
			reviewer := admin
			reviewedAt := created.Add(time.Hour)
			e.ReviewedBy = &reviewer
			e.ReviewedAt = &reviewedAt
		}
		s.entries[e.ID] = e
	}
}
