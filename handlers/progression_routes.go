// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"esg-engagement/middleware"
	"esg-engagement/services"
)

func SetupProgressionRoutes(router fiber.Router, progression ProgressReader, badges BadgeReader, members MemberStore) {
	router.Post("/user/members", func(c *fiber.Ctx) error {
		var req services.RegisterMemberInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"code":  "INVALID_INPUT",
			})
		}
		req.ID = middleware.UserID(c)
		m, err := members.Register(c.UserContext(), req)
		if err != nil {
			return respondError(c, "failed to register member", err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	})

	router.Get("/user/progress", func(c *fiber.Ctx) error {
		view, err := progression.GetProgress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, "failed to get progress", err)
		}
		return c.JSON(view)
	})

	router.Get("/user/progress/history", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := progression.GetHistory(c.UserContext(), middleware.UserID(c), page, size)
		if err != nil {
			return respondError(c, "failed to get history", err)
		}
		return c.JSON(history)
	})

	router.Get("/user/progress/badges", func(c *fiber.Ctx) error {
		statuses, err := badges.Statuses(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, "failed to get badges", err)
		}
		return c.JSON(statuses)
	})

	router.Get("/members/search", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			limit = 50
		}
		res, err := members.Search(c.UserContext(), c.Query("q", ""), limit)
		if err != nil {
			return respondError(c, "search failed", err)
		}
		return c.JSON(res)
	})
}
