package routes

import (
	"net/http"
	"strconv"

	"yatube/app/cache"
	"yatube/app/config"
	"yatube/app/controllers"
	"yatube/app/middleware"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/storage"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const pageCacheBytes = 64 << 20

var errPanic = errors.New("handler panicked")

// App is the wired HTTP application.
type App struct {
	Handler http.Handler
	Router  *mux.Router
	Cache   *cache.PageCache
	Limiter *middleware.RateLimiter
	Metrics *middleware.Metrics

	Users   *services.UserService
	Posts   *services.PostService
	Groups  *services.GroupService
	Follows *services.FollowService
}

// Close releases the page cache.
func (a *App) Close() {
	a.Cache.Close()
}

// SetupRoutes builds the services and controllers over repo and registers
// every route.
func SetupRoutes(cfg *config.Config, repo *repositories.Repository, media storage.Storage, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	users := services.NewUserService(repo.Users, repo.Sessions, cfg.SessionTTL, logger)
	groups := services.NewGroupService(repo.Groups)
	posts := services.NewPostService(repo.Posts, repo.Comments, repo.Users, repo.Groups, media, cfg.PageSize, logger)
	comments := services.NewCommentService(repo.Comments, repo.Posts)
	follows := services.NewFollowService(repo.Follows, repo.Users, logger)

	render, err := controllers.NewRenderer(media, logger)
	if err != nil {
		return nil, err
	}
	pageCache, err := cache.New(cfg.IndexCacheTTL, pageCacheBytes, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Router:  mux.NewRouter(),
		Cache:   pageCache,
		Limiter: middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst, logger),
		Metrics: middleware.NewMetrics(),
		Users:   users,
		Posts:   posts,
		Groups:  groups,
		Follows: follows,
	}

	postController := controllers.NewPostController(posts, groups, users, follows, render)
	commentController := controllers.NewCommentController(comments, render, logger)
	followController := controllers.NewFollowController(follows, render)
	authController := controllers.NewAuthController(users, render, cfg.SecureCookies, logger)
	aboutController := controllers.NewAboutController(render)
	apiController := controllers.NewAPIController(posts, groups, render)

	authenticate := middleware.Authenticate(users.UserForSession, logger)

	router := app.Router
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.ServerError(w, r, errPanic)
	})))
	router.Use(app.Metrics.Instrument)
	router.Use(authenticate)
	// Route middleware does not run for unmatched paths.
	router.NotFoundHandler = authenticate(http.HandlerFunc(render.NotFound))

	router.Handle("/metrics", app.Metrics.Handler()).Methods("GET")
	if local, ok := media.(*storage.LocalStorage); ok {
		router.PathPrefix(cfg.MediaURL).Handler(nosniff(
			http.StripPrefix(cfg.MediaURL, http.FileServer(http.Dir(local.Root()))),
		)).Methods("GET")
	}

	// Posts
	router.Handle("/", pageCache.Handler(indexCacheKey, http.HandlerFunc(postController.Index))).Methods("GET")
	router.HandleFunc("/group/{slug}/", postController.GroupPosts).Methods("GET")
	router.HandleFunc("/profile/{username}/", postController.Profile).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}/", postController.Detail).Methods("GET")
	router.Handle("/create/", loginRequired(postController.Create)).Methods("GET", "POST")
	router.Handle("/posts/{id:[0-9]+}/edit/", loginRequired(postController.Edit)).Methods("GET", "POST")
	router.Handle("/posts/{id:[0-9]+}/comment/", loginRequired(commentController.Create)).Methods("POST")

	// Follows
	router.Handle("/follow/", loginRequired(postController.FollowIndex)).Methods("GET")
	router.Handle("/profile/{username}/follow/", loginRequired(followController.Follow)).Methods("GET")
	router.Handle("/profile/{username}/unfollow/", loginRequired(followController.Unfollow)).Methods("GET")

	// Accounts
	auth := router.PathPrefix("/auth").Subrouter()
	auth.Handle("/signup/", app.Limiter.Handler(http.HandlerFunc(authController.Signup))).Methods("GET", "POST")
	auth.Handle("/login/", app.Limiter.Handler(http.HandlerFunc(authController.Login))).Methods("GET", "POST")
	auth.HandleFunc("/logout/", authController.Logout).Methods("GET")

	router.HandleFunc("/about/author/", aboutController.Author).Methods("GET")
	router.HandleFunc("/about/tech/", aboutController.Tech).Methods("GET")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.HandleFunc("/posts", apiController.ListPosts).Methods("GET")
	api.HandleFunc("/posts/{id:[0-9]+}", apiController.GetPost).Methods("GET")
	api.HandleFunc("/groups/{slug}/posts", apiController.GroupPosts).Methods("GET")

	app.Handler = router
	if cfg.CSRFKey != "" {
		protect := csrf.Protect([]byte(cfg.CSRFKey),
			csrf.Secure(cfg.SecureCookies),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(render.CSRFFailure)),
		)
		app.Handler = protect(router)
		if !cfg.SecureCookies {
			app.Handler = plaintext(app.Handler)
		}
	}
	return app, nil
}

func loginRequired(h http.HandlerFunc) http.Handler {
	return middleware.LoginRequired(h)
}

// indexCacheKey keys the index per page and per viewer so the header shows
// the right account.
func indexCacheKey(r *http.Request) string {
	uid := 0
	if user := middleware.CurrentUser(r.Context()); user != nil {
		uid = user.ID
	}
	return strconv.Itoa(uid) + "|" + r.URL.RequestURI()
}

// nosniff stops browsers from second-guessing the type of uploaded files.
func nosniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// plaintext marks requests as served over HTTP so the CSRF check does not
// demand an HTTPS referer.
func plaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
