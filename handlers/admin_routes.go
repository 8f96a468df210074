// handlers/admin_routes.go
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"esg-engagement/models"
)

type createEventRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Date            time.Time  `json:"date"`
	EndDate         *time.Time `json:"end_date"`
	Points          int64      `json:"points"`
	MaxParticipants *int64     `json:"max_participants"`
	Location        *string    `json:"location"`
	Organizer       *string    `json:"organizer"`
	ImageURL        *string    `json:"image_url"`
	Requirements    *string    `json:"requirements"`
	IsOnline        bool       `json:"is_online"`
	Tags            []string   `json:"tags"`
}

type completeRequest struct {
	Rating   *int    `json:"rating"`
	Feedback *string `json:"feedback"`
}

// SetupAdminRoutes registers organizer endpoints. router must already
// enforce the organizer role.
func SetupAdminRoutes(router fiber.Router, events EventStore, participations ParticipationStore, leaderboard LeaderboardReader) {
	router.Post("/events", func(c *fiber.Ctx) error {
		var req createEventRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "code": "INVALID_INPUT"})
		}
		category, err := models.ParseCategory(req.Category)
		if err != nil {
			return respondError(c, "invalid category", err)
		}
		e, err := events.Create(c.UserContext(), models.NewEventInput{
			Title:        req.Title,
			Description:  req.Description,
			Category:     category,
			StartsAt:     req.Date,
			EndsAt:       req.EndDate,
			PointValue:   req.Points,
			Capacity:     req.MaxParticipants,
			Location:     req.Location,
			Organizer:    req.Organizer,
			ImageURL:     req.ImageURL,
			Requirements: req.Requirements,
			IsOnline:     req.IsOnline,
			Tags:         req.Tags,
		})
		if err != nil {
			return respondError(c, "failed to create event", err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	router.Patch("/events/:id/points", func(c *fiber.Ctx) error {
		var req struct {
			Points int64 `json:"points"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "code": "INVALID_INPUT"})
		}
		e, err := events.RevisePoints(c.UserContext(), c.Params("id"), req.Points)
		if err != nil {
			return respondError(c, "failed to revise points", err)
		}
		return c.JSON(e)
	})

	router.Post("/events/:id/publish", func(c *fiber.Ctx) error {
		e, err := events.Publish(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to publish event", err)
		}
		return c.JSON(e)
	})

	router.Post("/participations/:id/attend", func(c *fiber.Ctx) error {
		p, err := participations.MarkAttended(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to mark attendance", err)
		}
		return c.JSON(p)
	})

	router.Post("/participations/:id/complete", func(c *fiber.Ctx) error {
		var req completeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "code": "INVALID_INPUT"})
			}
		}
		p, prog, err := participations.Complete(c.UserContext(), c.Params("id"), req.Rating, req.Feedback)
		if err != nil {
			return respondError(c, "failed to complete participation", err)
		}
		return c.JSON(fiber.Map{
			"participation": p,
			"progression":   prog,
		})
	})

	router.Post("/participations/:id/missed", func(c *fiber.Ctx) error {
		p, err := participations.MarkMissed(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to mark missed", err)
		}
		return c.JSON(p)
	})

	router.Post("/leaderboard/snapshot", func(c *fiber.Ctx) error {
		res, err := leaderboard.Snapshot(c.UserContext())
		if err != nil {
			return respondError(c, "failed to snapshot leaderboard", err)
		}
		return c.JSON(res)
	})
}
