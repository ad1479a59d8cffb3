package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"greenhaus/internal/domain"
	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
)

type OrderHandler struct {
	Cart   *services.CartService
	Orders *services.OrderService
	Repo   *repos.OrderRepo
}

func (h *OrderHandler) CheckoutForm(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.View(u)
	if err != nil {
		applog.Error(c, "checkout.view.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load checkout"})
	}
	if len(cv.Items) == 0 {
		return c.Redirect("/cart")
	}
	return render(c, "checkout", fiber.Map{
		"Cart":    cv,
		"Address": u.Address,
		"Phone":   u.Phone,
	})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	u := currentUser(c)
	addr := c.FormValue("shipping_address")
	phone := c.FormValue("shipping_phone")

	o, err := h.Orders.Checkout(u, addr, phone)
	if err != nil {
		var ve *domain.ValidationError
		var se *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			return c.Redirect("/cart")
		case errors.As(err, &ve), errors.As(err, &se):
			cv, verr := h.Cart.View(u)
			if verr != nil {
				return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load checkout"})
			}
			return render(c, "checkout", fiber.Map{
				"Cart": cv, "Address": addr, "Phone": phone, "Err": err.Error(),
			})
		default:
			applog.Error(c, "checkout.fail", err, map[string]any{"user_id": u.ID})
			return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not place your order"})
		}
	}

	applog.Audit(c, "order.placed", map[string]any{"order_id": o.ID, "user_id": u.ID, "total": o.Total})
	return c.Redirect("/orders/" + o.ID)
}

// View shows one order. Buyers only see their own orders; admins can
// open any order.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	o, items, err := h.Repo.Get(c.Params("id"))
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	if err != nil {
		applog.Error(c, "order.view.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load order"})
	}
	if o.UserID != u.ID && !u.IsAdmin() {
		applog.Security(c, "order.view.denied", map[string]any{"order_id": o.ID, "user_id": u.ID})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "order", fiber.Map{"Order": o, "Items": items})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Repo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "order.history.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load order history"})
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}
