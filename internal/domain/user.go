package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleEmployee  Role = "EMPLOYEE"
	RoleVolunteer Role = "VOLUNTEER"
)

var Roles = []Role{RoleAdmin, RoleEmployee, RoleVolunteer}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

type UserSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

type UserWithEntryCount struct {
	*User
	EntryCount int `json:"entryCount"`
}

// Principal is the verified identity behind a request.
type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
