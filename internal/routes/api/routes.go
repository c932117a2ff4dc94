package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avdberg/pvminer/internal/middleware"
)

// SetupRoutes sets up the API routes.
func SetupRoutes(app *fiber.App) {
	apiGroup := app.Group("/api", middleware.AuthOrToken())

	// Session routes
	apiGroup.Get("/sessions", ListSessions)
	apiGroup.Get("/sessions/:id", GetSession)

	// Position routes
	apiGroup.Get("/positions/best", GetBestAnalysis)

	// Aggregate stats
	apiGroup.Get("/stats", GetStats)
}
