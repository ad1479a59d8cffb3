package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
	"greenhaus/internal/validate"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Orders *repos.OrderRepo
	Notifs *repos.NotificationRepo
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // set true behind TLS
		})
	}
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	identifier := c.FormValue("username")
	pass := c.FormValue("password")
	if identifier == "" || pass == "" {
		return c.Status(401).Render("login", fiber.Map{"Err": "Please enter username and password"})
	}

	u, err := h.Auth.Login(sid, identifier, pass)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"identifier": identifier})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid email/username or password"})
	}

	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	if u.IsAdmin() {
		return c.Redirect("/admin")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

// Profile shows and updates the phone/address of the logged-in user.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u := currentUser(c)
	if c.Method() == fiber.MethodPost {
		phone, ok := validate.Phone(c.FormValue("phone"))
		if !ok {
			return render(c, "profile", fiber.Map{"Err": "Enter a valid phone number"})
		}
		address := c.FormValue("address")
		if err := h.Auth.Users.UpdateProfile(u.ID, phone, address); err != nil {
			applog.Error(c, "profile.update.fail", err, nil)
			return render(c, "profile", fiber.Map{"Err": "Could not save your profile"})
		}
		u.Phone, u.Address = phone, address
		applog.Audit(c, "profile.update", map[string]any{"user_id": u.ID})
		return render(c, "profile", fiber.Map{"Msg": "Profile updated"})
	}
	return render(c, "profile", fiber.Map{})
}

// DeleteAccount removes the logged-in user after confirming the
// password; orders and notifications go with the account.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	u := currentUser(c)
	if !h.Auth.CheckPassword(u, c.FormValue("password")) {
		applog.Security(c, "account.delete.badpassword", map[string]any{"user_id": u.ID})
		return render(c, "profile", fiber.Map{"Err": "Incorrect password. Account deletion failed."})
	}
	if err := h.Orders.DeleteByUser(u.ID); err != nil {
		applog.Error(c, "account.delete.fail", err, map[string]any{"user_id": u.ID})
		return render(c, "profile", fiber.Map{"Err": "Could not delete your account"})
	}
	if err := h.Auth.Users.DeleteCascade(u.ID); err != nil {
		applog.Error(c, "account.delete.fail", err, map[string]any{"user_id": u.ID})
		return render(c, "profile", fiber.Map{"Err": "Could not delete your account"})
	}
	applog.Audit(c, "account.delete", map[string]any{"user_id": u.ID})
	return h.Logout(c)
}
