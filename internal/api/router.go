package api

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	// StaticDir is served under /static when it exists.
	StaticDir string
}

func NewRouter(apiHandler *APIHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // The frontend posts to /users/
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", apiHandler.RootHandler)
	r.Get("/favicon.ico", apiHandler.FaviconHandler)
	r.Get("/health", apiHandler.HealthHandler)

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
		} else {
			log.Printf("[HTTP] static directory %q not found, /static disabled", opts.StaticDir)
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/contact-methods", apiHandler.ContactMethodsHandler)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", apiHandler.CreateUserHandler)
			r.Get("/{userID}", apiHandler.GetUserHandler)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", apiHandler.CreateConversationHandler)
			r.Get("/", apiHandler.ListConversationsHandler)
			r.Get("/user/{userID}", apiHandler.ListUserConversationsHandler)
			r.Get("/{conversationID}", apiHandler.GetConversationHandler)
			r.Put("/{conversationID}", apiHandler.UpdateConversationHandler)
			r.Delete("/{conversationID}", apiHandler.DeleteConversationHandler)
		})

		r.Post("/chat/send-message", apiHandler.SendMessageHandler)
	})

	return r
}
