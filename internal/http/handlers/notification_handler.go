package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "greenhaus/internal/log"
	"greenhaus/internal/repos"
)

type NotificationHandler struct {
	Notifs *repos.NotificationRepo
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	ns, err := h.Notifs.ListByUser(u.ID, 50)
	if err != nil {
		applog.Error(c, "notifications.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load notifications"})
	}
	unread, _ := h.Notifs.UnreadCount(u.ID)
	return render(c, "notifications", fiber.Map{"Notifications": ns, "Unread": unread})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Notifs.MarkRead(c.Params("id"), u.ID); err != nil {
		applog.Error(c, "notifications.read.fail", err, map[string]any{"id": c.Params("id")})
	}
	return c.Redirect("/notifications")
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Notifs.MarkAllRead(u.ID); err != nil {
		applog.Error(c, "notifications.readall.fail", err, nil)
	}
	return c.Redirect("/notifications")
}
