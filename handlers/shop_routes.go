// handlers/shop_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"esg-engagement/middleware"
)

func SetupShopRoutes(router fiber.Router, shop ShopStore) {
	router.Get("/shop/items", func(c *fiber.Ctx) error {
		items, err := shop.ListItems(c.UserContext())
		if err != nil {
			return respondError(c, "failed to list shop items", err)
		}
		return c.JSON(items)
	})

	router.Post("/shop/items/:id/purchase", func(c *fiber.Ctx) error {
		redemption, balance, err := shop.Purchase(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, "purchase failed", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"redemption": redemption,
			"balance":    balance,
		})
	})
}
