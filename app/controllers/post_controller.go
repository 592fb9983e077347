package controllers

import (
	"net/http"
	"net/url"
	"strconv"

	"yatube/app/forms"
	"yatube/app/middleware"
	"yatube/app/repositories"
	"yatube/app/services"

	"github.com/gorilla/mux"
)

// PostController handles the feeds and the post pages.
type PostController struct {
	posts   *services.PostService
	groups  *services.GroupService
	users   *services.UserService
	follows *services.FollowService
	render  *Renderer
}

// NewPostController creates a new PostController
func NewPostController(
	posts *services.PostService,
	groups *services.GroupService,
	users *services.UserService,
	follows *services.FollowService,
	render *Renderer,
) *PostController {
	return &PostController{posts: posts, groups: groups, users: users, follows: follows, render: render}
}

func pageParam(r *http.Request) string {
	return r.URL.Query().Get("page")
}

// postID reads the {id} route variable. Malformed ids are treated as missing posts.
func postID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, repositories.ErrNotFound
	}
	return id, nil
}

// Index lists every post, newest first.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	page, err := pc.posts.Feed(repositories.PostFilter{}, pageParam(r))
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	pc.render.HTML(w, r, http.StatusOK, "posts/index", ViewData{"Page": page})
}

// GroupPosts lists the posts of one group.
func (pc *PostController) GroupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := pc.groups.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	page, err := pc.posts.Feed(repositories.PostFilter{GroupID: group.ID}, pageParam(r))
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	pc.render.HTML(w, r, http.StatusOK, "posts/group_list", ViewData{"Group": group, "Page": page})
}

// Profile lists an author's posts with their post count and follow state.
func (pc *PostController) Profile(w http.ResponseWriter, r *http.Request) {
	author, err := pc.users.GetByUsername(mux.Vars(r)["username"])
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	following, err := pc.follows.IsFollowing(middleware.CurrentUser(r.Context()), author)
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	page, err := pc.posts.Feed(repositories.PostFilter{AuthorID: author.ID}, pageParam(r))
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	pc.render.HTML(w, r, http.StatusOK, "posts/profile", ViewData{
		"Author":    author,
		"Page":      page,
		"PostsNum":  page.Count,
		"Following": following,
	})
}

// FollowIndex lists posts by authors the current user follows.
func (pc *PostController) FollowIndex(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	page, err := pc.posts.Feed(repositories.PostFilter{FollowerID: user.ID}, pageParam(r))
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	pc.render.HTML(w, r, http.StatusOK, "posts/follow", ViewData{"Page": page})
}

// Detail shows one post with its comments and the comment form.
func (pc *PostController) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	post, err := pc.posts.GetPost(id)
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	postsNum, err := pc.posts.CountByAuthor(post.AuthorID)
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	pc.render.HTML(w, r, http.StatusOK, "posts/post_detail", ViewData{
		"Post":     post,
		"Comments": post.Comments,
		"Form":     &forms.CommentForm{Errors: forms.Errors{}},
		"PostsNum": postsNum,
	})
}

// Create shows the new post form and stores valid submissions.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	groups, err := pc.groups.List()
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	if r.Method != http.MethodPost {
		pc.render.HTML(w, r, http.StatusOK, "posts/create_post", ViewData{
			"Form":   forms.NewPostForm(nil),
			"Groups": groups,
		})
		return
	}

	form, err := forms.ParsePostForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !form.Validate(groups) {
		pc.render.HTML(w, r, http.StatusOK, "posts/create_post", ViewData{"Form": form, "Groups": groups})
		return
	}

	user := middleware.CurrentUser(r.Context())
	if _, err := pc.posts.CreatePost(user.ID, postInput(form)); err != nil {
		pc.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
}

// Edit lets the author change a post. Anyone else is sent back to the post.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	post, err := pc.posts.GetPost(id)
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	user := middleware.CurrentUser(r.Context())
	detail := "/posts/" + strconv.Itoa(id) + "/"
	if post.AuthorID != user.ID {
		http.Redirect(w, r, detail, http.StatusFound)
		return
	}

	groups, err := pc.groups.List()
	if err != nil {
		pc.render.Error(w, r, err)
		return
	}
	if r.Method != http.MethodPost {
		pc.render.HTML(w, r, http.StatusOK, "posts/create_post", ViewData{
			"Form":   forms.NewPostForm(post),
			"Groups": groups,
			"Post":   post,
			"IsEdit": true,
		})
		return
	}

	form, err := forms.ParsePostForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !form.Validate(groups) {
		pc.render.HTML(w, r, http.StatusOK, "posts/create_post", ViewData{
			"Form":   form,
			"Groups": groups,
			"Post":   post,
			"IsEdit": true,
		})
		return
	}
	if _, err := pc.posts.UpdatePost(user.ID, id, postInput(form)); err != nil {
		pc.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, detail, http.StatusFound)
}

func postInput(form *forms.PostForm) services.PostInput {
	return services.PostInput{
		Text:       form.Text,
		GroupID:    form.GroupID(),
		Image:      form.Image,
		ClearImage: form.ClearImage,
	}
}

// profileURL escapes username, which may hold non-ASCII letters.
func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
