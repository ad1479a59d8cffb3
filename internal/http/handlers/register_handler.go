package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"greenhaus/internal/domain"
	applog "greenhaus/internal/log"
	"greenhaus/internal/services"
	"greenhaus/internal/validate"
)

// RegisterHandler drives the three-step, email-verified signup flow.
type RegisterHandler struct {
	Reg     *services.RegistrationService
	SiteURL string
}

func (h *RegisterHandler) callbackURL() string {
	return h.SiteURL + "/accounts/register/callback/"
}

// Step1 collects the email and dispatches the confirmation link.
func (h *RegisterHandler) Step1(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return render(c, "register_step1", fiber.Map{})
	}
	sid := ensureSID(c)
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return render(c, "register_step1", fiber.Map{"Err": "Please enter a valid email address."})
	}
	if err := h.Reg.Start(sid, email, h.callbackURL()); err != nil {
		applog.Error(c, "register.step1.dispatch.fail", err, map[string]any{"email": email})
		return render(c, "register_step1", fiber.Map{
			"Err":   "Could not send the confirmation email. Please try again.",
			"Email": email,
		})
	}
	applog.Audit(c, "register.step1", map[string]any{"email": email})
	return c.Redirect("/accounts/register/step2/")
}

// Step2 is the waiting page while the user clicks the emailed link.
func (h *RegisterHandler) Step2(c *fiber.Ctx) error {
	sid := ensureSID(c)
	reg, err := h.Reg.State(sid)
	if err != nil {
		return c.Redirect("/accounts/register/step1/")
	}
	if reg.Verified {
		return c.Redirect("/accounts/register/step3/")
	}
	return render(c, "register_step2", fiber.Map{"Email": reg.Email})
}

// CheckVerified is polled from step 2.
func (h *RegisterHandler) CheckVerified(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		if reg, err := h.Reg.State(sid); err == nil && reg.Verified {
			return c.JSON(fiber.Map{"verified": true, "redirect_url": "/accounts/register/step3/"})
		}
	}
	return c.JSON(fiber.Map{"verified": false})
}

// Callback lands the confirmation link from the email.
func (h *RegisterHandler) Callback(c *fiber.Ctx) error {
	sid := ensureSID(c)
	token := c.Query("token_hash")
	if token == "" {
		token = c.Query("token")
	}
	email := c.Query("email")

	reg, err := h.Reg.Callback(sid, token, email)
	if err != nil {
		applog.Security(c, "register.callback.fail", map[string]any{"error": err.Error()})
		msg := "Email verification failed."
		switch {
		case errors.Is(err, services.ErrLinkExpired):
			msg = "That confirmation link has expired. Please request a new one."
		case errors.Is(err, services.ErrLinkInvalid):
			msg = "Invalid confirmation link."
		}
		return render(c, "register_step1", fiber.Map{"Err": msg})
	}
	applog.Audit(c, "register.verified", map[string]any{"email": reg.Email})
	return c.Redirect("/accounts/register/step3/")
}

// Step3 collects the account details once the email is verified.
func (h *RegisterHandler) Step3(c *fiber.Ctx) error {
	sid := ensureSID(c)
	reg, err := h.Reg.State(sid)
	if err != nil || !reg.Verified {
		return c.Redirect("/accounts/register/step1/")
	}
	if c.Method() != fiber.MethodPost {
		return render(c, "register_step3", fiber.Map{"Email": reg.Email})
	}

	username, okU := validate.Username(c.FormValue("username"))
	phone, okP := validate.Phone(c.FormValue("phone"))
	password := c.FormValue("password")
	switch {
	case !okU:
		return render(c, "register_step3", fiber.Map{"Email": reg.Email, "Err": "Username must be 3-30 letters, digits or _.-"})
	case !validate.Password(password):
		return render(c, "register_step3", fiber.Map{"Email": reg.Email, "Err": "Password must be 8+ characters with upper, lower and digit"})
	case !okP:
		return render(c, "register_step3", fiber.Map{"Email": reg.Email, "Err": "Enter a valid phone number"})
	}

	res, err := h.Reg.Complete(sid, username, password, phone)
	if err != nil {
		applog.Error(c, "register.complete.fail", err, map[string]any{"email": reg.Email})
		msg := "Registration failed. Please try again."
		var ve *domain.ValidationError
		switch {
		case errors.Is(err, services.ErrAlreadyRegister):
			msg = "This email is already registered. Please login instead."
		case errors.Is(err, services.ErrNotVerified):
			msg = "Please verify your email first."
		case errors.Is(err, services.ErrSessionExpired):
			msg = "Session expired. Please start over."
		case errors.As(err, &ve):
			msg = ve.Error()
		}
		return render(c, "register_step3", fiber.Map{"Email": reg.Email, "Err": msg})
	}

	applog.Audit(c, "register.complete", map[string]any{"email": reg.Email, "warning": res.Warning})
	if res.Warning != "" {
		return render(c, "login", fiber.Map{"Err": "", "Msg": "Account created with a warning: " + res.Warning})
	}
	return render(c, "login", fiber.Map{"Err": "", "Msg": "Account created successfully! Please login to continue."})
}

// Resend re-sends the confirmation email from step 2.
func (h *RegisterHandler) Resend(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "No registration in progress"})
	}
	if err := h.Reg.Resend(sid, h.callbackURL()); err != nil {
		applog.Error(c, "register.resend.fail", err, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Could not resend the email"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Confirmation email resent"})
}
