// Package views embeds the HTML templates.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
)

//go:embed layout.html includes/*.html posts/*.html users/*.html about/*.html core/*.html
var files embed.FS

// FS exposes the embedded templates.
func FS() fs.FS {
	return files
}

// Pages lists every page template. Each is parsed with the layout and includes.
var Pages = []string{
	"posts/index.html",
	"posts/group_list.html",
	"posts/profile.html",
	"posts/follow.html",
	"posts/post_detail.html",
	"posts/create_post.html",
	"users/signup.html",
	"users/login.html",
	"users/logged_out.html",
	"about/author.html",
	"about/tech.html",
	"core/403.html",
	"core/403csrf.html",
	"core/404.html",
	"core/500.html",
}

// Load parses every page into its own set keyed by name without ".html",
// e.g. "posts/index".
func Load(funcs template.FuncMap) (map[string]*template.Template, error) {
	includes, err := fs.Glob(files, "includes/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "listing includes")
	}
	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		patterns := append([]string{"layout.html"}, includes...)
		patterns = append(patterns, page)
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, patterns...)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", page)
		}
		templates[strings.TrimSuffix(page, ".html")] = t
	}
	return templates, nil
}
