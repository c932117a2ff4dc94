package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/avdberg/pvminer/internal/checkpoint"
	"github.com/avdberg/pvminer/internal/config"
)

// checkpointService builds a service over the configured checkpoint
// directory. Retention does not matter for read-only access.
func checkpointService(c *fiber.Ctx) (*checkpoint.Service, error) {
	cfg := c.Locals("config").(*config.ServerConfig) //nolint: errcheck
	return checkpoint.NewService(cfg.CheckpointDir, 1)
}

// ListSessions returns a summary of every known exploration session.
func ListSessions(c *fiber.Ctx) error {
	service, err := checkpointService(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	summaries, err := service.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(summaries)
}

// GetSession returns the latest checkpoint of one session.
func GetSession(c *fiber.Ctx) error {
	service, err := checkpointService(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	loaded, err := service.LoadLatest(c.Params("id"))
	if errors.Is(err, checkpoint.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(loaded)
}
