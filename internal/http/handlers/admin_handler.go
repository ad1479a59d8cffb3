package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"greenhaus/internal/domain"
	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
)

const lowStockThreshold = 10

type AdminHandler struct {
	Catalog   *services.CatalogService
	Orders    *services.OrderService
	OrderRepo *repos.OrderRepo
	PlantRepo *repos.PlantRepo
	Users     *repos.UserRepo
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	plants, _ := h.PlantRepo.Count()
	orders, _ := h.OrderRepo.Count()
	pending, _ := h.OrderRepo.CountByStatus(domain.StatusPending)
	customers, _ := h.Users.CountCustomers()
	low, err := h.PlantRepo.LowStock(lowStockThreshold, 10)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	latest, _ := h.OrderRepo.ListLatest(10)
	return render(c, "admin_dashboard", fiber.Map{
		"PlantCount":    plants,
		"OrderCount":    orders,
		"PendingCount":  pending,
		"CustomerCount": customers,
		"LowStock":      low,
		"LatestOrders":  latest,
	})
}

func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	orders, err := h.OrderRepo.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{
		"Orders":   orders,
		"Statuses": []string{domain.StatusPending, domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered, domain.StatusCancelled, domain.StatusRefunded},
	})
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	u := currentUser(c)
	orderID := c.Params("id")
	status := c.FormValue("status")

	err := h.Orders.UpdateStatus(u, orderID, status)
	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		return c.Status(400).Render("notfound", fiber.Map{"Message": "Unknown order status"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	case err != nil:
		applog.Error(c, "admin.order.status.fail", err, map[string]any{"order_id": orderID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not update order"})
	}
	applog.Audit(c, "order.status.updated", map[string]any{"order_id": orderID, "status": status, "actor": u.ID})
	return c.Redirect("/admin/orders")
}

func (h *AdminHandler) PlantsPage(c *fiber.Ctx) error {
	plants, err := h.Catalog.List(c.Query("q"), c.Query("sort"), false, c.QueryInt("page", 1), 50)
	if err != nil {
		applog.Error(c, "admin.plants.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load plants"})
	}
	return render(c, "admin_plants", fiber.Map{"Plants": plants})
}

func (h *AdminHandler) PlantForm(c *fiber.Ctx) error {
	data := fiber.Map{}
	if id := c.Params("id"); id != "" {
		p, err := h.Catalog.Get(id)
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Plant not found"})
		}
		if err != nil {
			return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load plant"})
		}
		data["Plant"] = p
	}
	return render(c, "admin_plant_form", data)
}

func (h *AdminHandler) SavePlant(c *fiber.Ctx) error {
	in, err := plantInput(c)
	if err != nil {
		return c.Status(400).Render("admin_plant_form", fiber.Map{"Err": err.Error()})
	}

	id := c.Params("id")
	var p domain.Plant
	if id == "" {
		p, err = h.Catalog.Create(in)
	} else {
		p, err = h.Catalog.Update(id, in)
	}
	if err != nil {
		var ve *domain.ValidationError
		var xe *domain.ExternalError
		switch {
		case errors.As(err, &ve):
			return c.Status(400).Render("admin_plant_form", fiber.Map{"Err": ve.Error(), "Plant": domain.Plant{ID: id, Name: in.Name, Description: in.Description, Price: in.Price, Stock: in.Stock}})
		case errors.As(err, &xe):
			applog.Error(c, "admin.plant.upload.fail", err, nil)
			return c.Status(500).Render("admin_plant_form", fiber.Map{"Err": "Image upload failed. Please try again."})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Plant not found"})
		default:
			applog.Error(c, "admin.plant.save.fail", err, nil)
			return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not save plant"})
		}
	}
	applog.Audit(c, "plant.saved", map[string]any{"plant_id": p.ID})
	return c.Redirect("/admin/plants")
}

func (h *AdminHandler) DeletePlant(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.Catalog.Delete(id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Plant not found"})
	}
	if err != nil {
		applog.Error(c, "admin.plant.delete.fail", err, map[string]any{"plant_id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not delete plant"})
	}
	applog.Audit(c, "plant.deleted", map[string]any{"plant_id": id})
	return c.Redirect("/admin/plants")
}

func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Users.ListCustomers()
	if err != nil {
		applog.Error(c, "admin.users.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load customers"})
	}
	return render(c, "admin_users", fiber.Map{"Customers": users})
}

// DeleteUser removes a customer account; their orders are cancelled and
// kept for audit.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	target, err := h.Users.ByID(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "User not found"})
	}
	if target.IsAdmin() {
		applog.Security(c, "admin.user.delete.admin", map[string]any{"target": id})
		return c.Status(403).Render("notfound", fiber.Map{"Message": "Admin accounts cannot be deleted here"})
	}
	if err := h.Users.DeleteCascade(id); err != nil {
		applog.Error(c, "admin.user.delete.fail", err, map[string]any{"target": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not delete user"})
	}
	applog.Audit(c, "admin.user.deleted", map[string]any{"target": id})
	return c.Redirect("/admin/users")
}

// plantInput reads the multipart form; the image part is optional.
func plantInput(c *fiber.Ctx) (services.PlantInput, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("price")), 64)
	if err != nil {
		return services.PlantInput{}, domain.Invalid("price", "price must be a number")
	}
	stock, err := strconv.Atoi(strings.TrimSpace(c.FormValue("stock")))
	if err != nil {
		return services.PlantInput{}, domain.Invalid("stock", "stock must be a whole number")
	}
	in := services.PlantInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		Stock:       stock,
	}
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return services.PlantInput{}, domain.Invalid("image", "could not read uploaded image")
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			return services.PlantInput{}, domain.Invalid("image", "could not read uploaded image")
		}
		in.Image = raw
		in.ImageName = fh.Filename
	}
	return in, nil
}
