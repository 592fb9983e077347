package controllers

import (
	"net/http"
	"time"

	"yatube/app/models"
	"yatube/app/pagination"
	"yatube/app/repositories"
	"yatube/app/services"

	"github.com/gorilla/mux"
)

// APIController serves read-only JSON views of posts.
type APIController struct {
	posts  *services.PostService
	groups *services.GroupService
	render *Renderer
}

func NewAPIController(posts *services.PostService, groups *services.GroupService, render *Renderer) *APIController {
	return &APIController{posts: posts, groups: groups, render: render}
}

type authorJSON struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type groupJSON struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type commentJSON struct {
	ID      int         `json:"id"`
	Author  *authorJSON `json:"author"`
	Text    string      `json:"text"`
	Created time.Time   `json:"created"`
}

type postJSON struct {
	ID       int            `json:"id"`
	Text     string         `json:"text"`
	PubDate  time.Time      `json:"pub_date"`
	Author   *authorJSON    `json:"author"`
	Group    *groupJSON     `json:"group"`
	Image    string         `json:"image,omitempty"`
	Comments []*commentJSON `json:"comments,omitempty"`
}

type pageJSON struct {
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	NumPages int         `json:"num_pages"`
	Next     *int        `json:"next"`
	Previous *int        `json:"previous"`
	Results  []*postJSON `json:"results"`
}

func toAuthorJSON(u *models.User) *authorJSON {
	if u == nil {
		return nil
	}
	return &authorJSON{Username: u.Username, FullName: u.FullName()}
}

func (ac *APIController) toPostJSON(p *models.Post) *postJSON {
	out := &postJSON{
		ID:      p.ID,
		Text:    p.Text,
		PubDate: p.CreatedAt,
		Author:  toAuthorJSON(p.Author),
	}
	if p.Group != nil {
		out.Group = &groupJSON{Title: p.Group.Title, Slug: p.Group.Slug}
	}
	if p.Image != "" {
		out.Image = ac.posts.ImageURL(p.Image)
	}
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, &commentJSON{
			ID:      c.ID,
			Author:  toAuthorJSON(c.Author),
			Text:    c.Text,
			Created: c.CreatedAt,
		})
	}
	return out
}

func (ac *APIController) toPageJSON(page *pagination.Page[*models.Post]) *pageJSON {
	out := &pageJSON{
		Count:    page.Count,
		Page:     page.Number,
		NumPages: page.NumPages,
		Results:  make([]*postJSON, 0, len(page.Items)),
	}
	if page.HasNext() {
		n := page.NextPageNumber()
		out.Next = &n
	}
	if page.HasPrevious() {
		p := page.PreviousPageNumber()
		out.Previous = &p
	}
	for _, post := range page.Items {
		out.Results = append(out.Results, ac.toPostJSON(post))
	}
	return out
}

// ListPosts handles GET /api/posts
func (ac *APIController) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := ac.posts.Feed(repositories.PostFilter{}, pageParam(r))
	if err != nil {
		ac.render.JSONError(w, r, err)
		return
	}
	ac.render.JSON(w, http.StatusOK, ac.toPageJSON(page))
}

// GetPost handles GET /api/posts/{id}
func (ac *APIController) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		ac.render.JSONError(w, r, err)
		return
	}
	post, err := ac.posts.GetPost(id)
	if err != nil {
		ac.render.JSONError(w, r, err)
		return
	}
	ac.render.JSON(w, http.StatusOK, ac.toPostJSON(post))
}

// GroupPosts handles GET /api/groups/{slug}/posts
func (ac *APIController) GroupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := ac.groups.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		ac.render.JSONError(w, r, err)
		return
	}
	page, err := ac.posts.Feed(repositories.PostFilter{GroupID: group.ID}, pageParam(r))
	if err != nil {
		ac.render.JSONError(w, r, err)
		return
	}
	ac.render.JSON(w, http.StatusOK, ac.toPageJSON(page))
}
