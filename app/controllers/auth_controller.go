package controllers

import (
	"net/http"
	"time"

	"yatube/app/forms"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AuthController handles sign-up, login and logout.
type AuthController struct {
	users         *services.UserService
	render        *Renderer
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthController(users *services.UserService, render *Renderer, secureCookies bool, logger *zap.Logger) *AuthController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthController{users: users, render: render, secureCookies: secureCookies, logger: logger}
}

// Signup registers an account and logs it in.
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ac.render.HTML(w, r, http.StatusOK, "users/signup", ViewData{"Form": &forms.SignupForm{Errors: forms.Errors{}}})
		return
	}

	form := forms.ParseSignupForm(r)
	if !form.Validate() {
		ac.render.HTML(w, r, http.StatusOK, "users/signup", ViewData{"Form": form})
		return
	}
	user, err := ac.users.Signup(services.SignupInput{
		Username:  form.Username,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password1,
	})
	if errors.Is(err, repositories.ErrConflict) {
		form.UsernameTaken()
		ac.render.HTML(w, r, http.StatusOK, "users/signup", ViewData{"Form": form})
		return
	}
	if errors.Is(err, services.ErrPasswordTooLong) {
		form.PasswordTooLong()
		ac.render.HTML(w, r, http.StatusOK, "users/signup", ViewData{"Form": form})
		return
	}
	if err != nil {
		ac.render.Error(w, r, err)
		return
	}
	if err := ac.login(w, user); err != nil {
		ac.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Login checks credentials, sets the session cookie and follows next.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		form := &forms.LoginForm{Next: r.URL.Query().Get("next"), Errors: forms.Errors{}}
		ac.render.HTML(w, r, http.StatusOK, "users/login", ViewData{"Form": form})
		return
	}

	form := forms.ParseLoginForm(r)
	if !form.Validate() {
		ac.render.HTML(w, r, http.StatusOK, "users/login", ViewData{"Form": form})
		return
	}
	user, err := ac.users.Authenticate(form.Username, form.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		ac.logger.Info("login failed", zap.String("username", form.Username))
		form.InvalidCredentials()
		ac.render.HTML(w, r, http.StatusOK, "users/login", ViewData{"Form": form})
		return
	}
	if err != nil {
		ac.render.Error(w, r, err)
		return
	}
	if err := ac.login(w, user); err != nil {
		ac.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, middleware.SafeNext(form.Next, "/"), http.StatusFound)
}

// Logout ends the session and shows the goodbye page.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := ac.users.EndSession(cookie.Value); err != nil {
			ac.logger.Warn("ending session", zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ac.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	// The page is rendered for an anonymous visitor.
	r = r.WithContext(middleware.WithUser(r.Context(), nil))
	ac.render.HTML(w, r, http.StatusOK, "users/logged_out", nil)
}

func (ac *AuthController) login(w http.ResponseWriter, user *models.User) error {
	session, err := ac.users.StartSession(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   ac.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	ac.logger.Info("user logged in", zap.String("username", user.Username))
	return nil
}
