package routes

import (
	"net/http"

	"github.com/Dosada05/league-system/handlers"
	"github.com/Dosada05/league-system/middleware"
	"github.com/Dosada05/league-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Team      *handlers.TeamHandler
	Offer     *handlers.OfferHandler
	Season    *handlers.SeasonHandler
	Game      *handlers.GameHandler
	Webhook   *handlers.WebhookHandler
	WebSocket *handlers.WebSocketHandler
	Dashboard *handlers.DashboardHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/confirm-email", h.Auth.ConfirmEmail)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/reset-password", h.Auth.ResetPassword)
	})

	router.Route("/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", h.User.GetMe)
		r.Patch("/", h.User.UpdateMe)
		r.Delete("/", h.User.DeleteMe)
		r.Post("/avatar", h.User.UploadAvatar)
		r.Get("/offers", h.Offer.ListMine)
		r.Post("/seasons/{seasonID}/waiver", h.User.ResendWaiver)
	})

	router.Route("/seasons", func(r chi.Router) {
		r.Get("/", h.Season.List)
		r.Get("/current", h.Season.Current)
		r.Get("/{seasonID}", h.Season.Get)
		r.Get("/{seasonID}/teams", h.Season.ListTeams)
		r.Get("/{seasonID}/games", h.Game.ListForSeason)
		r.Get("/{seasonID}/standings", h.Game.Standings)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{seasonID}/join", h.Season.Join)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", h.Season.Create)
			r.Post("/{seasonID}/schedule", h.Game.GenerateSchedule)
			r.Post("/{seasonID}/finalize", h.Game.Finalize)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", h.Team.Get)
		r.Get("/{teamID}/games", h.Game.ListForTeam)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Team.Create)
			r.Patch("/{teamID}", h.Team.Update)
			r.Delete("/{teamID}", h.Team.Delete)
			r.Post("/{teamID}/logo", h.Team.UploadLogo)
			r.Get("/{teamID}/offers", h.Offer.ListForTeam)
			r.Delete("/{teamID}/members/{userID}", h.Team.RemoveMember)
			r.Put("/{teamID}/members/{userID}/captain", h.Team.SetCaptain)
		})
	})

	router.Route("/offers", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", h.Offer.Create)
		r.Post("/{offerID}/accept", h.Offer.Accept)
		r.Post("/{offerID}/decline", h.Offer.Decline)
	})

	router.Route("/games", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Put("/{gameID}/result", h.Game.RecordResult)
		})
	})

	router.Route("/webhooks", func(r chi.Router) {
		// Authenticated by HMAC signature, not JWT.
		r.Post("/payments", h.Webhook.PaymentCompleted)
		r.Post("/signatures", h.Webhook.SignatureCompleted)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/teams/{teamID}", h.WebSocket.ServeTeamRoom)
		r.Get("/seasons/{seasonID}", h.WebSocket.ServeSeasonRoom)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/dashboard", h.Dashboard.Stats)
	})
}
