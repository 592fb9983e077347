package controllers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"yatube/app/middleware"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/storage"
	"yatube/app/views"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ViewData is the context a page template is executed with.
type ViewData map[string]interface{}

// Renderer executes page templates and writes error pages and JSON.
type Renderer struct {
	templates map[string]*template.Template
	logger    *zap.Logger
	now       func() time.Time
}

// NewRenderer parses the embedded templates. Image links resolve through media.
func NewRenderer(media storage.Storage, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	templates, err := views.Load(templateFuncs(media))
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates, logger: logger, now: time.Now}, nil
}

func templateFuncs(media storage.Storage) template.FuncMap {
	return template.FuncMap{
		"humanize": humanize.Time,
		"date": func(t time.Time) string {
			return t.Format("02.01.2006 15:04")
		},
		"linebreaksbr": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
		"media": func(name string) string {
			if name == "" {
				return ""
			}
			return media.URL(name)
		},
		"itoa": strconv.Itoa,
	}
}

// HTML renders the named page. The current user, year and CSRF field are
// added to data.
func (rd *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, name string, data ViewData) {
	t, ok := rd.templates[name]
	if !ok {
		rd.ServerError(w, r, errors.Errorf("unknown template %s", name))
		return
	}
	if data == nil {
		data = ViewData{}
	}
	data["Year"] = rd.now().Year()
	data["User"] = middleware.CurrentUser(r.Context())
	data["CSRFField"] = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		if name == "core/500" {
			rd.logger.Error("rendering error page", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		rd.ServerError(w, r, errors.Wrapf(err, "rendering %s", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.HTML(w, r, http.StatusNotFound, "core/404", ViewData{"Path": r.URL.Path})
}

func (rd *Renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	rd.HTML(w, r, http.StatusForbidden, "core/403", nil)
}

// CSRFFailure is installed as the CSRF protection's error handler.
func (rd *Renderer) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	rd.logger.Warn("csrf check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
	rd.HTML(w, r, http.StatusForbidden, "core/403csrf", nil)
}

func (rd *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rd.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	rd.HTML(w, r, http.StatusInternalServerError, "core/500", nil)
}

// Error maps service and repository errors to status pages.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		rd.NotFound(w, r)
	case errors.Is(err, services.ErrForbidden):
		rd.Forbidden(w, r)
	default:
		rd.ServerError(w, r, err)
	}
}

// JSON writes v with status.
func (rd *Renderer) JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rd.logger.Warn("encoding json response", zap.Error(err))
	}
}

// JSONError writes {"error": message}, mapping err to a status code.
func (rd *Renderer) JSONError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		rd.JSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, services.ErrForbidden):
		rd.JSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		rd.logger.Error("api request failed", zap.String("path", r.URL.Path), zap.Error(err))
		rd.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
