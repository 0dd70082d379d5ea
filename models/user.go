package models

import (
	"strings"
	"time"
)

// UserType separates back-office accounts from public ones.
type UserType string

const (
	UserTypeAdmin    UserType = "admin"
	UserTypeFrontend UserType = "frontend"
)

// UserCategory is the user's role in the organisation. It is exposed in
// JSON as "type".
type UserCategory string

const (
	CategoryStudent    UserCategory = "student"
	CategoryTeacher    UserCategory = "teacher"
	CategoryRecruiter  UserCategory = "recruiter"
	CategoryAdmin      UserCategory = "admin"
	CategorySuperAdmin UserCategory = "superadmin"
)

// User is an account inside one tenant database.
type User struct {
	Base
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	UserType     UserType     `json:"user_type"`
	Category     UserCategory `json:"type"`
	IsActive     bool         `json:"is_active"`
	LastLoginAt  *time.Time   `json:"last_login_at"`
	LastLoginIP  *string      `json:"last_login_ip"`
}

func (u *User) TableName() string { return "users" }

func (u *User) Columns() []string {
	return []string{
		"first_name", "last_name", "email", "password_hash", "user_type",
		"category", "is_active", "last_login_at", "last_login_ip",
	}
}

func (u *User) Values() []any {
	return []any{
		u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.UserType),
		string(u.Category), u.IsActive, u.LastLoginAt, u.LastLoginIP,
	}
}

func (u *User) Fields() []any {
	return []any{
		&u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.UserType,
		&u.Category, &u.IsActive, &u.LastLoginAt, &u.LastLoginIP,
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	FirstName string       `json:"first_name" validate:"required,max=100"`
	LastName  string       `json:"last_name" validate:"max=100"`
	Email     string       `json:"email" validate:"required,email"`
	Password  string       `json:"password" validate:"required,min=6,maxbytes=72"`
	UserType  UserType     `json:"user_type" validate:"required,oneof=admin frontend"`
	Category  UserCategory `json:"type" validate:"required,oneof=student teacher recruiter admin superadmin"`
}

// Normalize trims names and lowercases the email before validation.
func (r *RegisterRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the body of POST /users/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,maxbytes=72"`
}

// UserStatusRequest is the body of PATCH /users/{id}/status.
type UserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
