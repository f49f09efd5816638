// Package models defines the domain types shared by the repository,
// service and handler layers.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Roles. Moderators and admins may delete anyone's messages; admins may
// additionally post to rooms their permission list does not cover.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleVolunteer = "volunteer"
)

// Chat capabilities. A user's permission list controls which fixed rooms
// they can read, post to and receive notifications for.
const (
	PermGeneralChat     = "general_chat"
	PermCommitteeChat   = "committee_chat"
	PermHostChat        = "host_chat"
	PermDriverChat      = "driver_chat"
	PermRecipientChat   = "recipient_chat"
	PermCoreTeamChat    = "core_team_chat"
	PermDirectMessages  = "direct_messages"
	PermGroupMessages   = "group_messages"
	PermModerateMessage = "moderate_messages"
)

// User is a platform account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasPermission reports whether the user's permission list contains perm.
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// CanModerate reports whether the user may delete other users' messages.
func (u *User) CanModerate() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator || u.HasPermission(PermModerateMessage)
}

// Name returns the user's display name, falling back to first/last name
// and finally to the email address.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Email
}

// RegisterRequest is the signup payload. The password is hashed in the
// service layer; it never reaches a repository.
type RegisterRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

// Validate normalizes and checks the signup payload.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if utf8.RuneCountInString(r.DisplayName) > 64 {
		return fmt.Errorf("display name must be at most 64 characters")
	}
	return nil
}

// LoginRequest is the signin payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the signin payload.
func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
