package controllers

import (
	"net/http"
	"strconv"

	"yatube/app/forms"
	"yatube/app/middleware"
	"yatube/app/services"

	"go.uber.org/zap"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	comments *services.CommentService
	render   *Renderer
	logger   *zap.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService, render *Renderer, logger *zap.Logger) *CommentController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentController{comments: comments, render: render, logger: logger}
}

// Create adds a comment and returns to the post. An invalid comment is
// dropped without feedback.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		cc.render.Error(w, r, err)
		return
	}
	detail := "/posts/" + strconv.Itoa(id) + "/"

	form := forms.ParseCommentForm(r)
	if !form.Validate() {
		cc.logger.Debug("comment rejected", zap.Int("post_id", id), zap.Any("errors", form.Errors))
		http.Redirect(w, r, detail, http.StatusFound)
		return
	}

	user := middleware.CurrentUser(r.Context())
	if _, err := cc.comments.AddComment(user.ID, id, form.Text); err != nil {
		cc.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, detail, http.StatusFound)
}
