package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		user    *User
		wantErr bool
	}{
		{name: "plain username", user: &User{Username: "leo"}},
		{name: "allowed punctuation", user: &User{Username: "leo.t@home+1-x_y"}},
		{name: "with email", user: &User{Username: "leo", Email: "leo@example.com"}},
		{name: "empty username", user: &User{Username: ""}, wantErr: true},
		{name: "space in username", user: &User{Username: "leo tolstoy"}, wantErr: true},
		{name: "cyrillic username", user: &User{Username: "Лев_Толстой1828"}},
		{name: "symbol in username", user: &User{Username: "leo#1"}, wantErr: true},
		{name: "bad email", user: &User{Username: "leo", Email: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "leo", (&User{Username: "leo"}).FullName())
	assert.Equal(t, "Lev Tolstoy", (&User{Username: "leo", FirstName: "Lev", LastName: "Tolstoy"}).FullName())
}

func TestGroupValidation(t *testing.T) {
	assert.NoError(t, (&Group{Title: "Cats", Slug: "cats_and-dogs2"}).Validate())
	assert.Error(t, (&Group{Title: "Cats", Slug: "cats and dogs"}).Validate())
	assert.Error(t, (&Group{Title: "", Slug: "cats"}).Validate())
}

func TestFollowValidation(t *testing.T) {
	assert.NoError(t, (&Follow{UserID: 1, AuthorID: 2}).Validate())
	assert.Error(t, (&Follow{UserID: 1, AuthorID: 1}).Validate())
	assert.Error(t, (&Follow{UserID: 1}).Validate())
}

func TestFollowString(t *testing.T) {
	follow := &Follow{UserID: 1, AuthorID: 2}
	assert.Equal(t, "1 follows 2", follow.String())

	follow.User = &User{Username: "anna"}
	follow.Author = &User{Username: "leo"}
	assert.Equal(t, "anna follows leo", follow.String())
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	session := &Session{Token: "t", UserID: 1, ExpiresAt: now.Add(time.Minute)}
	assert.False(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(time.Minute)))
}
