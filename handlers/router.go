package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/service"
)

type Options struct {
	Store         Store
	Sessions      *service.ReaderSessions
	Exports       Exporter
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	CORSOrigins   []string
}

// NewRouter wires every API route.
func NewRouter(o Options) http.Handler {
	nav := o.Sessions.Navigator()
	authHandler := &AuthHandler{Users: o.Store, Sessions: o.Sessions, JWTSecret: o.JWTSecret}
	readerHandler := &ReaderHandler{Sessions: o.Sessions, Bookmarks: o.Store, Progress: o.Store}
	storyHandler := &StoryHandler{Nav: nav}
	bookmarksHandler := &BookmarksHandler{Bookmarks: o.Store, Nav: nav}
	profileHandler := &ProfileHandler{Users: o.Store}
	prefsHandler := &PreferencesHandler{Prefs: o.Store, Nav: nav}
	adminHandler := &AdminHandler{PageViews: o.Store, Exports: o.Exports}

	r := chi.NewRouter()
	r.Use(middleware.CORS(o.CORSOrigins))
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to stories."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/story", storyHandler.Get)
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(o.JWTSecret))
			r.Post("/auth/signout", authHandler.Signout)
			r.Get("/auth/session", authHandler.Session)

			r.Route("/reader/sessions", func(r chi.Router) {
				r.Post("/", readerHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", readerHandler.Get)
					r.Delete("/", readerHandler.Delete)
					r.Post("/next", readerHandler.Next)
					r.Post("/prev", readerHandler.Prev)
					r.Post("/jump", readerHandler.Jump)
					r.Post("/navigation", readerHandler.Navigation)
					r.Post("/dismiss-signup", readerHandler.DismissSignup)
					r.Post("/bookmark", readerHandler.Bookmark)
					r.Post("/resume", readerHandler.Resume)
				})
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(o.JWTSecret))
			r.Get("/bookmark", bookmarksHandler.Get)
			r.Put("/bookmark", bookmarksHandler.Put)
			r.Get("/profile", profileHandler.Get)
			r.Patch("/profile", profileHandler.Update)
			r.Get("/preferences", prefsHandler.Get)
			r.Patch("/preferences", prefsHandler.Update)
			r.Put("/preferences/progress", prefsHandler.Progress)
		})

		if o.AdminEmail == "" || o.AdminPassword == "" {
			log.Println("warning: ADMIN_EMAIL or ADMIN_PASSWORD not set; admin routes disabled")
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(chimw.BasicAuth("stories-admin", map[string]string{o.AdminEmail: o.AdminPassword}))
			r.Get("/analytics", adminHandler.Analytics)
			r.Post("/analytics/export", adminHandler.Export)
		})
	})
	return r
}
