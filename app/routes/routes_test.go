package routes

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/app/config"
	"yatube/app/forms"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const postMarker = `<article class="post">`

type testServer struct {
	app  *App
	repo *repositories.Repository
	cfg  *config.Config
}

func setupTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.MediaRoot = t.TempDir()
	for _, m := range mutate {
		m(cfg)
	}

	repo, err := repositories.NewRepository("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	media, err := storage.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
	require.NoError(t, err)

	app, err := SetupRoutes(cfg, repo, media, nil)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	app.Users.SetHashCost(bcrypt.MinCost)

	return &testServer{app: app, repo: repo, cfg: cfg}
}

func (s *testServer) user(t *testing.T, name string) (*models.User, *http.Cookie) {
	t.Helper()
	u, err := s.app.Users.Signup(services.SignupInput{Username: name, Password: "password-" + name})
	require.NoError(t, err)
	session, err := s.app.Users.StartSession(u)
	require.NoError(t, err)
	return u, &http.Cookie{Name: middleware.SessionCookie, Value: session.Token}
}

func (s *testServer) post(t *testing.T, author *models.User, text string, groupID int) *models.Post {
	t.Helper()
	p, err := s.app.Posts.CreatePost(author.ID, services.PostInput{Text: text, GroupID: groupID})
	require.NoError(t, err)
	return p
}

func (s *testServer) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.app.Handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.app.Handler.ServeHTTP(w, req)
	return w
}

func TestIndexPagination(t *testing.T) {
	s := setupTestServer(t)
	leo, _ := s.user(t, "leo")
	for i := 0; i < 13; i++ {
		s.post(t, leo, "post text", 0)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/", 10},
		{"/?page=2", 3},
		{"/?page=99", 3},
		{"/?page=abc", 10},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.get(tt.path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, strings.Count(w.Body.String(), postMarker))
		})
	}
}

func TestIndexIsCached(t *testing.T) {
	s := setupTestServer(t)
	leo, _ := s.user(t, "leo")
	p := s.post(t, leo, "soon gone", 0)

	w := s.get("/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "soon gone")

	require.NoError(t, s.repo.Posts.Delete(p.ID))

	w = s.get("/", nil)
	assert.Contains(t, w.Body.String(), "soon gone")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	s.app.Cache.Clear()
	w = s.get("/", nil)
	assert.NotContains(t, w.Body.String(), "soon gone")
}

func TestGroupAndProfilePages(t *testing.T) {
	s := setupTestServer(t)
	leo, _ := s.user(t, "leo")
	maxUser, _ := s.user(t, "max")
	cats, err := s.app.Groups.Create("Cats", "cats", "about cats")
	require.NoError(t, err)
	_, err = s.app.Groups.Create("Dogs", "dogs", "")
	require.NoError(t, err)

	s.post(t, leo, "meow", cats.ID)
	s.post(t, maxUser, "hello from max", 0)

	w := s.get("/group/cats/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "meow")
	assert.NotContains(t, w.Body.String(), "hello from max")

	w = s.get("/group/dogs/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "meow")

	w = s.get("/group/birds/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.get("/profile/leo/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Всего постов: 1")
	assert.Equal(t, 1, strings.Count(w.Body.String(), postMarker))

	w = s.get("/profile/nobody/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowFeed(t *testing.T) {
	s := setupTestServer(t)
	leo, leoCookie := s.user(t, "leo")
	maxUser, _ := s.user(t, "max")
	_, annaCookie := s.user(t, "anna")
	s.post(t, maxUser, "max writes", 0)

	w := s.get("/profile/max/follow/", leoCookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/max/", w.Header().Get("Location"))

	// Following twice keeps a single subscription.
	s.get("/profile/max/follow/", leoCookie)
	n, err := s.repo.Follows.CountByUser(leo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w = s.get("/follow/", leoCookie)
	assert.Contains(t, w.Body.String(), "max writes")

	w = s.get("/follow/", annaCookie)
	assert.NotContains(t, w.Body.String(), "max writes")

	w = s.get("/profile/max/", leoCookie)
	assert.Contains(t, w.Body.String(), "/profile/max/unfollow/")

	w = s.get("/profile/max/unfollow/", leoCookie)
	assert.Equal(t, http.StatusFound, w.Code)
	w = s.get("/follow/", leoCookie)
	assert.NotContains(t, w.Body.String(), "max writes")

	w = s.get("/profile/leo/follow/", leoCookie)
	assert.Equal(t, http.StatusFound, w.Code)
	n, err = s.repo.Follows.CountByUser(leo.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLoginRequiredRoutes(t *testing.T) {
	s := setupTestServer(t)
	leo, _ := s.user(t, "leo")
	s.post(t, leo, "text", 0)

	for _, path := range []string{"/create/", "/follow/", "/posts/1/edit/", "/profile/leo/follow/"} {
		t.Run(path, func(t *testing.T) {
			w := s.get(path, nil)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/auth/login/?next="+path, w.Header().Get("Location"))
		})
	}

	w := s.postForm("/posts/1/comment/", url.Values{"text": {"hi"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/posts/1/comment/", w.Header().Get("Location"))
}

func TestCommentFlow(t *testing.T) {
	s := setupTestServer(t)
	leo, cookie := s.user(t, "leo")
	p := s.post(t, leo, "commentable", 0)

	w := s.postForm("/posts/1/comment/", url.Values{"text": {"first!"}}, cookie)
	assert.Equal(t, http.StatusFound, w.Code)

	w = s.get("/posts/1/", nil)
	assert.Contains(t, w.Body.String(), "first!")

	comments, err := s.repo.Comments.ListByPost(p.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestUnknownPage(t *testing.T) {
	s := setupTestServer(t)
	w := s.get("/unexisting_page/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Custom 404")
	assert.Contains(t, w.Body.String(), "/unexisting_page/")
}

func TestStaticPages(t *testing.T) {
	s := setupTestServer(t)
	for _, path := range []string{"/about/author/", "/about/tech/", "/auth/login/", "/auth/signup/"} {
		w := s.get(path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMediaIsServed(t *testing.T) {
	s := setupTestServer(t)
	leo, _ := s.user(t, "leo")
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	p, err := s.app.Posts.CreatePost(leo.ID, services.PostInput{
		Text:  "with picture",
		Image: &forms.Upload{Filename: "small.gif", ContentType: "image/gif", Extension: ".gif", Data: gif},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p.Image, services.PostImageDir+"/"))

	w := s.get("/posts/1/", nil)
	assert.Contains(t, w.Body.String(), `src="/media/`+p.Image+`"`)

	w = s.get("/media/"+p.Image, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Equal(t, gif, body)
}

func TestUploadNameComesFromContent(t *testing.T) {
	s := setupTestServer(t)
	_, cookie := s.user(t, "leo")

	payload := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), []byte("<script>alert(1)</script>")...)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "sneaky"))
	part, err := mw.CreateFormFile("image", "evil.html")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	s.app.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	p, err := s.app.Posts.GetPost(1)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p.Image, ".png"), p.Image)
	assert.NotContains(t, p.Image, ".html")

	w = s.get("/media/"+p.Image, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAPIRoutes(t *testing.T) {
	s := setupTestServer(t)
	leo, _ := s.user(t, "leo")
	cats, err := s.app.Groups.Create("Cats", "cats", "")
	require.NoError(t, err)
	s.post(t, leo, "api post", cats.ID)

	for _, path := range []string{"/api/posts", "/api/posts/1", "/api/groups/cats/posts"} {
		w := s.get(path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"), path)
		assert.Contains(t, w.Body.String(), "api post", path)
	}

	w := s.get("/api/groups/dogs/posts", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	s := setupTestServer(t)
	s.get("/about/tech/", nil)

	w := s.get("/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/about/tech/"`)
}

func TestCSRFProtection(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.CSRFKey = "0123456789abcdef0123456789abcdef"
	})
	s.user(t, "leo")

	w := s.postForm("/auth/login/", url.Values{"username": {"leo"}, "password": {"password-leo"}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.get("/auth/login/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="gorilla.csrf.Token"`)
}
