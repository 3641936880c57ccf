package routes

import (
	"github.com/BradenHooton/studyhub/internal/auth"
	"github.com/BradenHooton/studyhub/internal/handlers"
	"github.com/BradenHooton/studyhub/internal/middleware"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted under /admin.
type Handlers struct {
	Moderation *handlers.ModerationHandler
	Accounts   *handlers.AccountHandler
	Audit      *handlers.AuditHandler
	Dashboard  *handlers.AdminHandler
}

// Guards holds what the admin middleware chain needs to authorise a request.
type Guards struct {
	Tokens   *auth.TokenManager
	Gate     auth.LoginChecker
	Accounts auth.AccountReader
	// mutating endpoints only
	RateLimit middleware.RateLimitConfig
}

// RegisterRoutes mounts the moderation API. Every route requires a valid
// access token from an ADMIN account that is itself allowed to log in.
func RegisterRoutes(router chi.Router, h Handlers, g Guards) {
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(g.Tokens))
		r.Use(middleware.RecordActor)
		r.Use(auth.RequireLoginEligible(g.Gate))
		r.Use(auth.RequireRole(g.Accounts, models.RoleAdmin))

		// reads
		r.Get("/dashboard/overview", h.Dashboard.GetOverview)
		r.Get("/accounts", h.Accounts.ListAccounts)
		r.Get("/accounts/{id}", h.Accounts.GetAccount)
		r.Get("/accounts/{id}/audit", h.Audit.GetAccountAuditTrail)
		r.Get("/audit", h.Audit.ListByAction)

		// moderation actions
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByAdmin(g.RateLimit))

			r.Post("/accounts/{id}/suspend", h.Moderation.Suspend)
			r.Post("/accounts/{id}/unsuspend", h.Moderation.Unsuspend)
			r.Post("/accounts/{id}/ban", h.Moderation.Ban)
			r.Post("/accounts/{id}/unban", h.Moderation.Unban)
			r.Post("/accounts/{id}/soft-delete", h.Moderation.SoftDelete)
			r.Post("/accounts/{id}/restore", h.Moderation.Restore)
			r.Post("/accounts/{id}/permanent-delete", h.Moderation.PermanentDelete)
			r.Put("/accounts/{id}/role", h.Moderation.UpdateRole)
			r.Post("/accounts/{id}/disable-login", h.Moderation.DisableLogin)
			r.Post("/accounts/{id}/enable-login", h.Moderation.EnableLogin)

			r.Post("/accounts/{id}/expert/verify", h.Moderation.VerifyExpert)
			r.Post("/accounts/{id}/expert/reject", h.Moderation.RejectExpert)
			r.Post("/accounts/{id}/expert/revoke", h.Moderation.RevokeExpertVerification)

			r.Delete("/groups/{id}", h.Moderation.DeleteGroup)
		})
	})
}
