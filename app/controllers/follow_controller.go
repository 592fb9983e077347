package controllers

import (
	"net/http"

	"yatube/app/middleware"
	"yatube/app/services"

	"github.com/gorilla/mux"
)

// FollowController subscribes and unsubscribes the current user.
type FollowController struct {
	follows *services.FollowService
	render  *Renderer
}

func NewFollowController(follows *services.FollowService, render *Renderer) *FollowController {
	return &FollowController{follows: follows, render: render}
}

func (fc *FollowController) Follow(w http.ResponseWriter, r *http.Request) {
	author, err := fc.follows.Follow(middleware.CurrentUser(r.Context()), mux.Vars(r)["username"])
	if err != nil {
		fc.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(author.Username), http.StatusFound)
}

func (fc *FollowController) Unfollow(w http.ResponseWriter, r *http.Request) {
	author, err := fc.follows.Unfollow(middleware.CurrentUser(r.Context()), mux.Vars(r)["username"])
	if err != nil {
		fc.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(author.Username), http.StatusFound)
}
