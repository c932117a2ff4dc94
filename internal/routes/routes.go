package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/avdberg/pvminer/internal/models"
	"github.com/avdberg/pvminer/internal/routes/api"
)

func versionHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.VersionResponse{
		Commit: os.Getenv("GIT_COMMIT"),
	})
}

func SetupRoutes(app *fiber.App) {
	// Serve API routes
	api.SetupRoutes(app)

	// Serve version info
	app.Get("/version", versionHandler)
}
