package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "greenhaus/internal/log"
	"greenhaus/internal/services"
	"greenhaus/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	plants, err := h.Wish.List(u.ID)
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load wishlist"})
	}
	return render(c, "wishlist", fiber.Map{"Plants": plants})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	plantID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing plant id")
	}
	u := currentUser(c)
	if err := h.Wish.Save(u.ID, plantID); err != nil {
		applog.Error(c, "wishlist.save.fail", err, map[string]any{"plant": plantID})
	}
	return backOr(c, "/wishlist")
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	plantID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing plant id")
	}
	u := currentUser(c)
	if err := h.Wish.Unsave(u.ID, plantID); err != nil {
		applog.Error(c, "wishlist.unsave.fail", err, map[string]any{"plant": plantID})
	}
	return backOr(c, "/wishlist")
}

func backOr(c *fiber.Ctx, fallback string) error {
	if ref := c.Get("Referer"); ref != "" {
		return c.Redirect(ref)
	}
	return c.Redirect(fallback)
}
