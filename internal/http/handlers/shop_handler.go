package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
	"greenhaus/internal/validate"
)

type ShopHandler struct {
	Catalog *services.CatalogService
	Notifs  *repos.NotificationRepo
}

// Home lists the shop. Buyers only see plants with stock; admins browsing
// the storefront see everything.
func (h *ShopHandler) Home(c *fiber.Ctx) error {
	q := ""
	if s, ok := validate.Q(c.Query("q")); ok {
		q = s
	}
	sort := c.Query("sort")
	page := c.QueryInt("page", 1)

	u := currentUser(c)
	buyerView := !u.IsAdmin()

	plants, err := h.Catalog.List(q, sort, buyerView, page, 12)
	if err != nil {
		applog.Error(c, "shop.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the shop"})
	}

	data := fiber.Map{"Plants": plants, "Query": q, "Sort": sort, "Page": page}
	if u != nil {
		if n, err := h.Notifs.UnreadCount(u.ID); err == nil {
			data["UnreadCount"] = n
		}
	}
	return render(c, "shop", data)
}

// Detail shows one plant; out-of-stock plants 404 for buyers.
func (h *ShopHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This plant is no longer available"})
	}
	p, err := h.Catalog.Get(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This plant is no longer available"})
	}
	if p.Stock <= 0 && !currentUser(c).IsAdmin() {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This plant is no longer available"})
	}
	return render(c, "plant_detail", fiber.Map{"Plant": p})
}
