package forms

import (
	"net/http"
	"strings"
)

// SignupForm registers a new account.
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password1 string `form:"password1" validate:"required,min=8,maxbytes=72"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`

	Errors Errors `form:"-" validate:"-"`
}

func ParseSignupForm(r *http.Request) *SignupForm {
	return &SignupForm{
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
		Errors:    Errors{},
	}
}

func (f *SignupForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	bind(f, f.Errors)
	return !f.Errors.Any()
}

// UsernameTaken records a uniqueness failure found after validation.
func (f *SignupForm) UsernameTaken() {
	f.Errors.Add("username", msgUsernameUsed)
}

// PasswordTooLong records a password the hasher refused.
func (f *SignupForm) PasswordTooLong() {
	f.Errors.Add("password1", msgTooLong)
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next" validate:"-"`

	Errors Errors `form:"-" validate:"-"`
}

func ParseLoginForm(r *http.Request) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Next:     r.FormValue("next"),
		Errors:   Errors{},
	}
}

func (f *LoginForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	bind(f, f.Errors)
	return !f.Errors.Any()
}

// InvalidCredentials records a failed authentication.
func (f *LoginForm) InvalidCredentials() {
	f.Errors.Add(NonField, msgBadLogin)
}
