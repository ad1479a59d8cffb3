package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"greenhaus/internal/config"
	"greenhaus/internal/http/handlers"
	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
	"greenhaus/internal/supabase"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// External auth/storage client, bound once. Without credentials the
	// app runs on local auth only and skips image uploads.
	var gw services.AuthGateway
	var images services.ImageStore
	if cfg.SupaURL != "" && cfg.SupaAnonKey != "" {
		client := supabase.New(cfg.SupaURL, cfg.SupaAnonKey, cfg.SupaSvcKey)
		gw = client
		images = client
	} else {
		log.Printf("[warn] SUPABASE_URL not set; external auth and image storage disabled")
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Gateway: gw, JWTSecret: cfg.JWTSecret}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
			}
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard, image uploads included
	app.Server().MaxRequestBodySize = 8 << 20

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			// The JSON API authenticates with bearer tokens, not cookies.
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, gw, images)

	// Storefront
	app.Get("/", deps.ShopHandler.Home)
	app.Get("/plants/:id", deps.ShopHandler.Detail)

	// Cart & checkout (buyer only)
	buyer := handlers.RequireBuyer(authSvc)
	app.Get("/cart", buyer, deps.CartHandler.View)
	app.Post("/cart/add/:id", buyer, deps.CartHandler.Add)
	app.Post("/cart/update/:id", buyer, deps.CartHandler.Update)
	app.Post("/cart/remove/:id", buyer, deps.CartHandler.Remove)
	app.Get("/checkout", buyer, deps.OrderHandler.CheckoutForm)
	app.Post("/checkout", buyer, deps.OrderHandler.Place)

	// Orders
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)
	app.Get("/orders/:id", handlers.RequireUser(authSvc), deps.OrderHandler.View)

	// Wishlist
	app.Get("/wishlist", buyer, deps.WishlistHandler.List)
	app.Post("/wishlist/:id", buyer, deps.WishlistHandler.Save)
	app.Post("/wishlist/:id/delete", buyer, deps.WishlistHandler.Unsave)

	// Notifications
	app.Get("/notifications", handlers.RequireUser(authSvc), deps.NotifHandler.List)
	app.Post("/notifications/:id/read", handlers.RequireUser(authSvc), deps.NotifHandler.MarkRead)
	app.Post("/notifications/read-all", handlers.RequireUser(authSvc), deps.NotifHandler.MarkAllRead)

	// Auth routes (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/profile", handlers.RequireUser(authSvc), deps.AuthHandler.Profile)
	app.Post("/profile", handlers.RequireUser(authSvc), deps.AuthHandler.Profile)
	app.Post("/profile/delete", handlers.RequireUser(authSvc), deps.AuthHandler.DeleteAccount)

	// Registration (email-verified, three steps)
	reg := app.Group("/accounts/register")
	reg.Get("/step1/", deps.RegisterHandler.Step1)
	reg.Post("/step1/", deps.RegisterHandler.Step1)
	reg.Get("/step2/", deps.RegisterHandler.Step2)
	reg.Get("/step3/", deps.RegisterHandler.Step3)
	reg.Post("/step3/", deps.RegisterHandler.Step3)
	reg.Get("/callback/", deps.RegisterHandler.Callback)
	reg.Get("/check/", deps.RegisterHandler.CheckVerified)
	reg.Post("/resend/", deps.RegisterHandler.Resend)

	// JSON API
	api := app.Group("/api")
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.auth.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	apiLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	bearer := handlers.RequireBearer(authSvc)
	api.Post("/register", authLimiter, deps.APIHandler.Register)
	api.Post("/login", authLimiter, deps.APIHandler.Login)
	api.Get("/protected", apiLimiter, bearer, deps.APIHandler.Protected)
	api.Get("/plants", apiLimiter, bearer, deps.APIHandler.ListPlants)
	api.Post("/plants", apiLimiter, bearer, deps.APIHandler.CreatePlant)
	api.Get("/plants/:id", apiLimiter, bearer, deps.APIHandler.GetPlant)
	api.Put("/plants/:id", apiLimiter, bearer, deps.APIHandler.UpdatePlant)
	api.Delete("/plants/:id", apiLimiter, bearer, deps.APIHandler.DeletePlant)
	api.Get("/cart", apiLimiter, bearer, deps.APIHandler.GetCart)
	api.Post("/cart", apiLimiter, bearer, deps.APIHandler.AddToCart)
	api.Get("/orders", apiLimiter, bearer, deps.APIHandler.ListOrders)
	api.Post("/orders", apiLimiter, bearer, deps.APIHandler.PlaceOrder)
	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "method not allowed"})
	})

	// Admin back-office
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/orders", deps.AdminHandler.OrdersPage)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Get("/plants", deps.AdminHandler.PlantsPage)
	admin.Get("/plants/new", deps.AdminHandler.PlantForm)
	admin.Post("/plants/new", deps.AdminHandler.SavePlant)
	admin.Get("/plants/:id/edit", deps.AdminHandler.PlantForm)
	admin.Post("/plants/:id/edit", deps.AdminHandler.SavePlant)
	admin.Post("/plants/:id/delete", deps.AdminHandler.DeletePlant)
	admin.Get("/users", deps.AdminHandler.UsersPage)
	admin.Post("/users/:id/delete", deps.AdminHandler.DeleteUser)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
