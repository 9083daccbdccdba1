package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tribithub/portal/backend/internal/auth"
	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/mail"
	"github.com/tribithub/portal/backend/internal/middleware"
	"github.com/tribithub/portal/backend/internal/ticket"
	"github.com/tribithub/portal/backend/internal/wiki"
)

type routerDeps struct {
	corsOrigins []string
	users       identity.Provider
	profiles    middleware.ProfileReader
	auth        *auth.Handler
	magicLink   *auth.MagicLinkHandler // nil when the provider cannot mint links
	tickets     *ticket.Handler
	wiki        *wiki.Handler
	upload      *wiki.UploadHandler
	emails      *mail.Handler // nil without a delivery log
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireUser := middleware.RequireUser(d.users)
	requireAdmin := middleware.RequireAdmin(d.users, d.profiles)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Accounts (public)
	r.Post("/login", d.auth.AdminLogin)
	r.Route("/api", func(r chi.Router) {
		r.Post("/send-code", d.auth.SendCode)
		r.Post("/register", d.auth.Register)
		r.Post("/password/send-reset-code", d.auth.SendResetCode)
		r.Post("/password/reset", d.auth.ResetPassword)
		r.Post("/login/password", d.auth.LoginPassword)
		r.With(requireUser).Post("/logout", d.auth.Logout)
		if d.magicLink != nil {
			r.Post("/auth/magic-link", d.magicLink.Send)
		}

		r.With(requireUser).Post("/tickets", d.tickets.Submit)
		r.With(requireAdmin).Get("/tickets", d.tickets.List)

		r.Get("/wiki/list", d.wiki.Index)
		r.Get("/wiki/content", d.wiki.Index)
		r.Get("/wiki/article/{slug}", d.wiki.Article)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/wiki/categories", d.wiki.ListCategories)
			r.Post("/wiki/categories", d.wiki.CreateCategory)
			r.Delete("/wiki/categories/{id}", d.wiki.DeleteCategory)

			r.Get("/wiki/articles", d.wiki.ListArticles)
			r.Post("/wiki/articles", d.wiki.CreateArticle)
			r.Get("/wiki/articles/{id}", d.wiki.GetArticle)
			r.Put("/wiki/articles/{id}", d.wiki.UpdateArticle)
			r.Delete("/wiki/articles/{id}", d.wiki.DeleteArticle)

			r.Post("/wiki/upload-image", d.upload.Upload)

			if d.emails != nil {
				r.Get("/emails", d.emails.List)
			}
		})
	})

	return r
}
