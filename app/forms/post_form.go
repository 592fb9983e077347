package forms

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"yatube/app/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// MaxUploadSize bounds a whole multipart submission.
const MaxUploadSize = 10 << 20

// Upload is a file received with a form.
type Upload struct {
	Filename    string
	ContentType string
	Extension   string
	Data        []byte
}

// PostForm carries the fields of the post create and edit pages.
type PostForm struct {
	Text       string  `form:"text" validate:"required"`
	Group      string  `form:"group" validate:"omitempty,number"`
	Image      *Upload `form:"-" validate:"-"`
	ClearImage bool    `form:"-" validate:"-"`

	Errors Errors `form:"-" validate:"-"`
}

// NewPostForm prefills the form from an existing post, for the edit page.
func NewPostForm(post *models.Post) *PostForm {
	f := &PostForm{Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID > 0 {
			f.Group = strconv.Itoa(post.GroupID)
		}
	}
	return f
}

// ParsePostForm reads a urlencoded or multipart submission.
func ParsePostForm(r *http.Request) (*PostForm, error) {
	f := &PostForm{Errors: Errors{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			return nil, errors.Wrap(err, "parsing multipart form")
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(err, "parsing form")
	}

	f.Text = strings.TrimSpace(r.PostFormValue("text"))
	f.Group = strings.TrimSpace(r.PostFormValue("group"))
	f.ClearImage = r.PostFormValue("image-clear") != ""

	if r.MultipartForm != nil && len(r.MultipartForm.File["image"]) > 0 {
		header := r.MultipartForm.File["image"][0]
		src, err := header.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening upload")
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, errors.Wrap(err, "reading upload")
		}
		if len(data) > 0 {
			f.Image = &Upload{Filename: header.Filename, Data: data}
		}
	}
	return f, nil
}

// GroupID is the selected group, 0 when none.
func (f *PostForm) GroupID() int {
	id, _ := strconv.Atoi(f.Group)
	return id
}

// Validate checks the fields. groups are the valid choices for the group field.
func (f *PostForm) Validate(groups []*models.Group) bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	bind(f, f.Errors)

	if f.Group != "" && !f.Errors.Has("group") {
		found := false
		for _, g := range groups {
			if g.ID == f.GroupID() {
				found = true
				break
			}
		}
		if !found {
			f.Errors.Add("group", msgBadChoice)
		}
	}

	if f.Image != nil {
		mt := mimetype.Detect(f.Image.Data)
		// SVG is markup and can carry script.
		if !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") {
			f.Errors.Add("image", msgNotImage)
		} else {
			f.Image.ContentType = mt.String()
			f.Image.Extension = mt.Extension()
		}
	}
	return !f.Errors.Any()
}

// CommentForm is the single-field comment box under a post.
type CommentForm struct {
	Text string `form:"text" validate:"required"`

	Errors Errors `form:"-" validate:"-"`
}

func ParseCommentForm(r *http.Request) *CommentForm {
	return &CommentForm{Text: strings.TrimSpace(r.PostFormValue("text")), Errors: Errors{}}
}

func (f *CommentForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	bind(f, f.Errors)
	return !f.Errors.Any()
}
