package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"greenhaus/internal/domain"
	applog "greenhaus/internal/log"
	"greenhaus/internal/services"
	"greenhaus/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(currentUser(c))
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	plantID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing plant id")
	}
	qty := validate.Qty(c.FormValue("quantity"))

	err := h.Cart.Add(currentUser(c), plantID, qty)
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		applog.Info(c, "cart.add.nostock", map[string]any{"plant": plantID, "want": stockErr.Want, "have": stockErr.Have})
		cv, verr := h.Cart.View(currentUser(c))
		if verr != nil {
			return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
		}
		return render(c, "cart", fiber.Map{"Cart": cv, "Err": stockErr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This plant is no longer available"})
	case err != nil:
		applog.Error(c, "cart.add.fail", err, map[string]any{"plant": plantID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not add to cart"})
	}
	return c.Redirect("/cart")
}

// Update changes one line's quantity. An over-stock quantity is a
// recoverable miss: the page reloads with a message, the line keeps its
// old quantity and the request itself succeeds.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	plantID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing plant id")
	}
	qty, convErr := strconv.Atoi(c.FormValue("quantity"))
	if convErr != nil {
		return c.Status(400).SendString("bad quantity")
	}

	err := h.Cart.Update(currentUser(c), plantID, qty)
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		cv, verr := h.Cart.View(currentUser(c))
		if verr != nil {
			return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
		}
		return render(c, "cart", fiber.Map{"Cart": cv, "Err": stockErr.Error()})
	}
	if err != nil {
		applog.Error(c, "cart.update.fail", err, map[string]any{"plant": plantID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not update your cart"})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	plantID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing plant id")
	}
	if err := h.Cart.Remove(currentUser(c), plantID); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"plant": plantID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not update your cart"})
	}
	return c.Redirect("/cart")
}
