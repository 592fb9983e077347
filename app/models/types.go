package models

import (
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var validate = NewValidator()

// NewValidator returns a validator with the slug, username and maxbytes tags
// registered. maxbytes limits the UTF-8 length, where max counts runes.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// User is an account that can author posts and comments and follow authors.
type User struct {
	ID           int       `json:"id" validate:"gte=0"`
	Username     string    `json:"username" validate:"required,max=150,username"`
	FirstName    string    `json:"first_name,omitempty" validate:"max=150"`
	LastName     string    `json:"last_name,omitempty" validate:"max=150"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email"`
	PasswordHash string    `json:"password_hash"`
	DateJoined   time.Time `json:"date_joined"`
}

// Group is a named category posts may belong to.
type Group struct {
	ID          int    `json:"id" validate:"gte=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=50,slug"`
	Description string `json:"description"`
}

// Post is a single authored entry. GroupID is zero when the post has no group.
type Post struct {
	ID        int       `json:"id" validate:"gte=0"`
	Text      string    `json:"text" validate:"required"`
	CreatedAt time.Time `json:"pub_date" validate:"required"`
	AuthorID  int       `json:"author_id" validate:"required,gt=0"`
	GroupID   int       `json:"group_id,omitempty" validate:"gte=0"`
	Image     string    `json:"image,omitempty"`

	Author   *User      `json:"-" validate:"-"`
	Group    *Group     `json:"-" validate:"-"`
	Comments []*Comment `json:"-" validate:"-"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        int       `json:"id" validate:"gte=0"`
	PostID    int       `json:"post_id" validate:"required,gt=0"`
	AuthorID  int       `json:"author_id" validate:"required,gt=0"`
	Text      string    `json:"text" validate:"required"`
	CreatedAt time.Time `json:"created" validate:"required"`

	Author *User `json:"-" validate:"-"`
	Post   *Post `json:"-" validate:"-"`
}

// Follow is a directed subscription from UserID to AuthorID.
type Follow struct {
	ID        int       `json:"id" validate:"gte=0"`
	UserID    int       `json:"user_id" validate:"required,gt=0"`
	AuthorID  int       `json:"author_id" validate:"required,gt=0,nefield=UserID"`
	CreatedAt time.Time `json:"created"`

	User   *User `json:"-" validate:"-"`
	Author *User `json:"-" validate:"-"`
}

// Session is a server-side login record referenced by a cookie token.
type Session struct {
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
