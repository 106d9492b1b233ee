package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ldemarco/olympiad-system/handlers"
	"github.com/ldemarco/olympiad-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	olympiadHandler *handlers.OlympiadHandler,
	playerHandler *handlers.PlayerHandler,
	teamHandler *handlers.TeamHandler,
	eventHandler *handlers.EventHandler,
	matchHandler *handlers.MatchHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match", "X-Olympiad-PIN"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Get("/stage-kinds", eventHandler.ListStageKinds)

	router.Route("/olympiads", func(r chi.Router) {
		r.Get("/", olympiadHandler.List)
		r.Post("/", olympiadHandler.Create)

		r.Route("/{olympiadID}", func(r chi.Router) {
			r.Get("/", olympiadHandler.Get)
			r.Put("/", olympiadHandler.Rename)
			r.Delete("/", olympiadHandler.Delete)
			r.Post("/verify-pin", olympiadHandler.VerifyPIN)

			r.Route("/players", func(r chi.Router) {
				r.Get("/", playerHandler.List)
				r.Post("/", playerHandler.Create)
				r.Get("/{playerID}", playerHandler.Get)
				r.Put("/{playerID}", playerHandler.Rename)
				r.Delete("/{playerID}", playerHandler.Delete)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teamHandler.List)
				r.Post("/", teamHandler.Create)
				r.Get("/{teamID}", teamHandler.Get)
				r.Put("/{teamID}", teamHandler.Rename)
				r.Delete("/{teamID}", teamHandler.Delete)
				r.Put("/{teamID}/players", teamHandler.SetPlayers)
				r.Post("/{teamID}/logo", teamHandler.UploadLogo)
			})

			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventHandler.List)
				r.Post("/", eventHandler.Create)
				r.Get("/{eventID}", eventHandler.Get)
				r.Put("/{eventID}", eventHandler.Update)
				r.Delete("/{eventID}", eventHandler.Delete)
				r.Get("/{eventID}/bracket", eventHandler.GetBracket)
				r.Put("/{eventID}/stages/{stageID}", eventHandler.UpdateStage)
			})
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Put("/{matchID}", matchHandler.Update)
		})
	})
}
