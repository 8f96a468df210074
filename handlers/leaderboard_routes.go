// handlers/leaderboard_routes.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"esg-engagement/middleware"
	"esg-engagement/models"
)

type leaderboardRow struct {
	models.LeaderboardEntry
	Medal string `json:"medal,omitempty"`
}

func withMedals(entries []models.LeaderboardEntry) []leaderboardRow {
	rows := make([]leaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = leaderboardRow{LeaderboardEntry: e, Medal: e.Medal()}
	}
	return rows
}

func SetupLeaderboardRoutes(router fiber.Router, leaderboard LeaderboardReader) {
	router.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		entries, err := leaderboard.Top(c.UserContext(), limit)
		if err != nil {
			return respondError(c, "failed to compute leaderboard", err)
		}
		return c.JSON(withMedals(entries))
	})

	router.Get("/leaderboard/me", func(c *fiber.Ctx) error {
		radius, err := strconv.Atoi(c.Query("radius", "5"))
		if err != nil || radius < 0 {
			radius = 5
		}
		entries, err := leaderboard.Around(c.UserContext(), middleware.UserID(c), radius)
		if err != nil {
			return respondError(c, "failed to compute leaderboard", err)
		}
		return c.JSON(withMedals(entries))
	})
}
