package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/avdberg/pvminer/internal/position"
	"github.com/avdberg/pvminer/internal/repository"
)

// GetBestAnalysis returns the deepest stored analysis for the position given
// by the "fen" query parameter.
func GetBestAnalysis(c *fiber.Ctx) error {
	fen := c.Query("fen")
	if fen == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing fen query parameter",
		})
	}

	fp, err := position.FromFEN(fen)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid FEN",
		})
	}

	repo := repository.NewAnalysisRepository(c)
	analysis, err := repo.GetBestAnalysis(c.Context(), fp)

	if errors.Is(err, repository.ErrAnalysisNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No analysis for position",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(analysis)
}
