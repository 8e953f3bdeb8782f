package routes

import (
	"github.com/chip-race/league-server/handlers"
	"github.com/chip-race/league-server/middleware"
	"github.com/chip-race/league-server/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// SetupRoutes mounts every handler on the router. Read endpoints are
// public; anything that mutates league state is admin-only.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	schemaHandler *handlers.SchemaHandler,
	rankingHandler *handlers.RankingHandler,
	eventHandler *handlers.EventHandler,
	playerHandler *handlers.PlayerHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/auth/me", authHandler.Me)
	})

	router.Route("/schemas", func(r chi.Router) {
		r.Get("/", schemaHandler.GetAllSchemas)
		r.Get("/{schemaID}", schemaHandler.GetSchemaByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", schemaHandler.CreateSchema)
			r.Put("/{schemaID}", schemaHandler.UpdateSchema)
			r.Delete("/{schemaID}", schemaHandler.DeleteSchema)
		})
	})

	router.Route("/rankings", func(r chi.Router) {
		r.Get("/", rankingHandler.GetAllRankings)
		r.Get("/{rankingID}", rankingHandler.GetRankingByID)
		r.Get("/{rankingID}/leaderboard", rankingHandler.GetLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", rankingHandler.CreateRanking)
			r.Put("/{rankingID}", rankingHandler.UpdateRanking)
			r.Delete("/{rankingID}", rankingHandler.DeleteRanking)
			r.Put("/{rankingID}/schema-map", rankingHandler.SetSchemaMapping)
			r.Put("/{rankingID}/manual-prize", rankingHandler.SetManualPrize)
			r.Post("/recalculate", rankingHandler.Recalculate)
		})
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListEvents)
		r.Get("/{eventID}", eventHandler.GetEventByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", eventHandler.CreateEvent)
			r.Put("/{eventID}", eventHandler.UpdateEvent)
			r.Delete("/{eventID}", eventHandler.DeleteEvent)
			r.Post("/{eventID}/start", eventHandler.StartEvent)
			r.Post("/{eventID}/close", eventHandler.CloseEvent)
			r.Put("/{eventID}/results", eventHandler.UpdateResults)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.ListPlayers)
		r.Get("/{playerID}", playerHandler.GetPlayerByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", playerHandler.CreatePlayer)
			r.Put("/{playerID}", playerHandler.UpdatePlayer)
			r.Delete("/{playerID}", playerHandler.DeletePlayer)
			r.Post("/{playerID}/avatar", playerHandler.UploadAvatar)
			r.Post("/{playerID}/daily-reward", playerHandler.ClaimDailyReward)
			r.Post("/{playerID}/vip", playerHandler.ActivateVIP)
		})
	})

	router.Get("/ws/rankings/{rankingID}", webSocketHandler.ServeRankingWs)
	router.Get("/ws/events/{eventID}", webSocketHandler.ServeEventWs)
}
