package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"greenhaus/internal/domain"
	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
	"greenhaus/internal/validate"
)

// APIHandler serves the token-authenticated JSON surface.
type APIHandler struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Orders    *services.OrderService
	OrderRepo *repos.OrderRepo
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (h *APIHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	username, ok := validate.Username(req.Username)
	if !ok {
		return jsonErr(c, domain.Invalid("username", "username must be 3-30 letters, digits, or _.-"))
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return jsonErr(c, domain.Invalid("email", "enter a valid email address"))
	}
	if !validate.Password(req.Password) {
		return jsonErr(c, domain.Invalid("password", "password must be 8-64 chars with upper, lower, and digit"))
	}
	phone, ok := validate.Phone(req.Phone)
	if !ok {
		return jsonErr(c, domain.Invalid("phone", "enter a valid phone number"))
	}
	taken, err := h.Auth.Users.UsernameTaken(username)
	if err != nil {
		return jsonErr(c, err)
	}
	if taken {
		return jsonErr(c, domain.Invalid("username", "username is already taken"))
	}
	if u, _ := h.Auth.Users.ByEmail(email); u != nil {
		return jsonErr(c, domain.Invalid("email", "an account with this email already exists"))
	}

	if h.Auth.Gateway != nil {
		if _, err := h.Auth.Gateway.Signup(email, req.Password, map[string]string{"username": username}); err != nil {
			applog.Error(c, "api.register.external", err, nil)
			return jsonErr(c, domain.External("signup", err))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return jsonErr(c, err)
	}
	u := domain.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    strings.ToLower(email),
		Hash:     string(hash),
		Phone:    phone,
		Role:     "USER",
	}
	if err := h.Auth.Users.Create(u); err != nil {
		applog.Error(c, "api.register.local", err, nil)
		return c.Status(500).JSON(fiber.Map{"error": "could not create account"})
	}
	if _, err := h.Cart.Carts.EnsureCart(u.ID); err != nil {
		applog.Error(c, "api.register.cart", err, map[string]any{"user_id": u.ID})
	}
	applog.Audit(c, "api.register", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": u.ID, "username": u.Username})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	var u *domain.User
	var err error
	if strings.Contains(req.Username, "@") {
		u, err = h.Auth.Users.ByEmail(req.Username)
	} else {
		u, err = h.Auth.Users.ByUsername(req.Username)
	}
	if err != nil || !h.Auth.CheckPassword(u, req.Password) {
		applog.Security(c, "api.login.fail", map[string]any{"identifier": req.Username})
		return jsonErr(c, domain.ErrBadCreds)
	}
	tok, err := h.Auth.TokenFor(u)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not issue token"})
	}
	applog.Audit(c, "api.login", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"token": tok})
}

func (h *APIHandler) Protected(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(fiber.Map{
		"message": "You are authenticated",
		"user":    fiber.Map{"id": u.ID, "username": u.Username},
	})
}

func (h *APIHandler) ListPlants(c *fiber.Ctx) error {
	u := currentUser(c)
	plants, err := h.Catalog.List(c.Query("q"), c.Query("sort"), !u.IsAdmin(), c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(fiber.Map{"plants": plants})
}

func (h *APIHandler) GetPlant(c *fiber.Ctx) error {
	p, err := h.Catalog.Get(c.Params("id"))
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(p)
}

type plantReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

func (h *APIHandler) CreatePlant(c *fiber.Ctx) error {
	if !currentUser(c).IsAdmin() {
		return jsonErr(c, domain.ErrForbidden)
	}
	var req plantReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	p, err := h.Catalog.Create(services.PlantInput{
		Name: req.Name, Description: req.Description, Price: req.Price, Stock: req.Stock,
	})
	if err != nil {
		return jsonErr(c, err)
	}
	applog.Audit(c, "api.plant.create", map[string]any{"plant_id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *APIHandler) UpdatePlant(c *fiber.Ctx) error {
	if !currentUser(c).IsAdmin() {
		return jsonErr(c, domain.ErrForbidden)
	}
	var req plantReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	p, err := h.Catalog.Update(c.Params("id"), services.PlantInput{
		Name: req.Name, Description: req.Description, Price: req.Price, Stock: req.Stock,
	})
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(p)
}

func (h *APIHandler) DeletePlant(c *fiber.Ctx) error {
	if !currentUser(c).IsAdmin() {
		return jsonErr(c, domain.ErrForbidden)
	}
	if err := h.Catalog.Delete(c.Params("id")); err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func (h *APIHandler) GetCart(c *fiber.Ctx) error {
	u := currentUser(c)
	if u.IsAdmin() {
		return jsonErr(c, domain.ErrForbidden)
	}
	cv, err := h.Cart.View(u)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(fiber.Map{"items": cv.Items, "total": cv.Total})
}

type cartReq struct {
	PlantID  string `json:"plant_id"`
	Quantity int    `json:"quantity"`
}

func (h *APIHandler) AddToCart(c *fiber.Ctx) error {
	var req cartReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.PlantID == "" {
		return jsonErr(c, domain.Invalid("plant_id", "plant_id is required"))
	}
	if err := h.Cart.Add(currentUser(c), req.PlantID, req.Quantity); err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(fiber.Map{"added": true})
}

func (h *APIHandler) ListOrders(c *fiber.Ctx) error {
	u := currentUser(c)
	var orders []domain.Order
	var err error
	if u.IsAdmin() {
		orders, err = h.OrderRepo.ListLatest(100)
	} else {
		orders, err = h.OrderRepo.ListByUser(u.ID)
	}
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

type checkoutReq struct {
	ShippingAddress string `json:"shipping_address"`
	ShippingPhone   string `json:"shipping_phone"`
}

func (h *APIHandler) PlaceOrder(c *fiber.Ctx) error {
	var req checkoutReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	o, err := h.Orders.Checkout(currentUser(c), req.ShippingAddress, req.ShippingPhone)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": o.ID, "status": o.Status, "total": o.Total,
	})
}
