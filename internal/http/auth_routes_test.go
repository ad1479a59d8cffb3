package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	html "github.com/gofiber/template/html/v2"
	"golang.org/x/crypto/bcrypt"

	"greenhaus/internal/config"
	"greenhaus/internal/http/handlers"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
)

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func newWebApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", JWTSecret: "test-secret"}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, JWTSecret: cfg.JWTSecret}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})

	deps := handlers.NewDeps(db, cfg, authSvc, nil, nil)
	app.Get("/", deps.ShopHandler.Home)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        2,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)

	buyerGuard := handlers.RequireBuyer(authSvc)
	app.Get("/cart", buyerGuard, deps.CartHandler.View)
	app.Get("/checkout", buyerGuard, deps.OrderHandler.CheckoutForm)

	app.Get("/orders/:id", handlers.RequireUser(authSvc), deps.OrderHandler.View)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)

	return app, authSvc
}

func TestSeededPasswordsAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	var hashes []string
	if err := db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") {
			t.Fatal("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func postLogin(t *testing.T, app *fiber.App, csrfTok, username, password string) *http.Response {
	t.Helper()
	form := strings.NewReader("csrf=" + csrfTok + "&username=" + username + "&password=" + password)
	req := httptest.NewRequest("POST", "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	app, _ := newWebApp(t)

	respForm, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := cookieValue(respForm, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	if resp := postLogin(t, app, csrfTok, "olive", "wrongpass!"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad creds: want 401, got %d", resp.StatusCode)
	}

	respGood := postLogin(t, app, csrfTok, "olive", "Passw0rd!")
	if respGood.StatusCode != http.StatusFound {
		t.Fatalf("good creds: want redirect, got %d", respGood.StatusCode)
	}
	if cookieValue(respGood, "sid") == "" {
		t.Fatal("no session cookie on login")
	}

	// two attempts used; the third trips the limiter
	if resp := postLogin(t, app, csrfTok, "olive", "wrongpass!"); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("throttle: want 429, got %d", resp.StatusCode)
	}
}

func login(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	respForm, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := cookieValue(respForm, "csrf_")
	resp := postLogin(t, app, csrfTok, username, "Passw0rd!")
	sid := cookieValue(resp, "sid")
	if sid == "" {
		t.Fatalf("login as %s failed: %d", username, resp.StatusCode)
	}
	return sid
}

func TestAdminAreaRequiresAdmin(t *testing.T) {
	app, _ := newWebApp(t)

	// anonymous → login redirect
	resp, _ := app.Test(httptest.NewRequest("GET", "/admin/", nil))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous admin: want redirect, got %d", resp.StatusCode)
	}

	// buyer → 403
	sid := login(t, app, "olive")
	req := httptest.NewRequest("GET", "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("buyer admin: want 403, got %d", resp.StatusCode)
	}

	// admin → 200
	sid = login(t, app, "admin")
	req = httptest.NewRequest("GET", "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin dashboard: want 200, got %d", resp.StatusCode)
	}
}

func TestOrderViewHiddenFromOtherUsers(t *testing.T) {
	app, authSvc := newWebApp(t)

	_, err := authSvc.Users.DB.Exec(`INSERT INTO orders(id,user_id,status,total,shipping_address)
		VALUES('ord-fern-1','u-fern','pending',10,'12 Garden Way')`)
	if err != nil {
		t.Fatal(err)
	}

	sid := login(t, app, "olive")
	req := httptest.NewRequest("GET", "/orders/ord-fern-1", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign order: want 404, got %d", resp.StatusCode)
	}
}

func TestAdminBarredFromBuyerFlows(t *testing.T) {
	app, _ := newWebApp(t)
	sid := login(t, app, "admin")

	for _, path := range []string{"/cart", "/checkout"} {
		req := httptest.NewRequest("GET", path, nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("admin %s: want 403, got %d", path, resp.StatusCode)
		}
	}
}
