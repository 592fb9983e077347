package models

import (
	"fmt"
	"strings"
	"time"
)

func (u *User) Validate() error {
	return validate.Struct(u)
}

func (u *User) BeforeCreate() {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) String() string {
	return u.Username
}

func (g *Group) Validate() error {
	return validate.Struct(g)
}

func (g *Group) String() string {
	return g.Title
}

func (f *Follow) Validate() error {
	return validate.Struct(f)
}

func (f *Follow) BeforeCreate() {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
}

func (f *Follow) String() string {
	user, author := fmt.Sprint(f.UserID), fmt.Sprint(f.AuthorID)
	if f.User != nil {
		user = f.User.Username
	}
	if f.Author != nil {
		author = f.Author.Username
	}
	return user + " follows " + author
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
