// handlers/event_routes.go
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"esg-engagement/middleware"
	"esg-engagement/models"
)

type eventView struct {
	models.Event
	IsFull    bool                 `json:"is_full"`
	CanJoin   bool                 `json:"can_join"`
	Remaining int64                `json:"remaining_spots"`
	StartsIn  string               `json:"time_until_event"`
	Style     models.CategoryStyle `json:"category_style"`
}

func viewOf(e models.Event, now time.Time) eventView {
	style, _ := e.Category.Style()
	return eventView{
		Event:     e,
		IsFull:    e.IsFull(),
		CanJoin:   e.CanJoin(now),
		Remaining: e.Remaining(),
		StartsIn:  e.TimeUntil(now),
		Style:     style,
	}
}

func SetupEventRoutes(router fiber.Router, events EventStore, participations ParticipationStore) {
	router.Get("/events", func(c *fiber.Ctx) error {
		var category *models.Category
		if raw := c.Query("category"); raw != "" {
			parsed, err := models.ParseCategory(raw)
			if err != nil {
				return respondError(c, "invalid category", err)
			}
			category = &parsed
		}
		list, err := events.List(c.UserContext(), category)
		if err != nil {
			return respondError(c, "failed to list events", err)
		}
		now := time.Now()
		views := make([]eventView, len(list))
		for i, e := range list {
			views[i] = viewOf(e, now)
		}
		return c.JSON(views)
	})

	router.Get("/events/:id", func(c *fiber.Ctx) error {
		e, err := events.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to get event", err)
		}
		return c.JSON(viewOf(e, time.Now()))
	})

	router.Post("/events/:id/join", func(c *fiber.Ctx) error {
		p, err := participations.Register(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to join event", err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	router.Get("/user/events", func(c *fiber.Ctx) error {
		parts, err := participations.ListForMember(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, "failed to list participations", err)
		}
		return c.JSON(parts)
	})

	router.Post("/participations/:id/cancel", func(c *fiber.Ctx) error {
		p, err := participations.Cancel(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to cancel participation", err)
		}
		return c.JSON(p)
	})
}
