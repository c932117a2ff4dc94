package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avdberg/pvminer/internal/repository"
)

// GetStats returns aggregate counts over the analysis store.
func GetStats(c *fiber.Ctx) error {
	repo := repository.NewAnalysisRepository(c)

	stats, err := repo.GetStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}
