package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

type OrderService struct {
	Carts  *repos.CartRepo
	Plants *repos.PlantRepo
	Orders *repos.OrderRepo
	Notifs *repos.NotificationRepo
}

func NewOrderService(carts *repos.CartRepo, plants *repos.PlantRepo, orders *repos.OrderRepo, notifs *repos.NotificationRepo) *OrderService {
	return &OrderService{Carts: carts, Plants: plants, Orders: orders, Notifs: notifs}
}

// Checkout converts the user's cart into a pending order: snapshots each
// line at the current unit price, decrements stock and clears the cart,
// all in one transaction. The first line that exceeds stock aborts the
// whole checkout with nothing changed. No notification is emitted for
// order creation.
func (s *OrderService) Checkout(u *domain.User, shippingAddress, shippingPhone string) (domain.Order, error) {
	if u.IsAdmin() {
		return domain.Order{}, domain.ErrForbidden
	}
	if strings.TrimSpace(shippingAddress) == "" {
		return domain.Order{}, domain.Invalid("shipping_address", "shipping address is required")
	}

	cartID, err := s.Carts.EnsureCart(u.ID)
	if err != nil {
		return domain.Order{}, err
	}
	lines, err := s.Carts.Items(cartID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	// Pre-check line by line so the first shortage is the one reported;
	// the guarded decrements inside the transaction re-verify under
	// concurrency.
	for _, ln := range lines {
		if ln.Qty > ln.Stock {
			return domain.Order{}, &domain.InsufficientStockError{PlantID: ln.PlantID, Name: ln.Name, Want: ln.Qty, Have: ln.Stock}
		}
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          u.ID,
		Status:          domain.StatusPending,
		ShippingAddress: strings.TrimSpace(shippingAddress),
		ShippingPhone:   strings.TrimSpace(shippingPhone),
	}
	items := make([]domain.OrderItem, 0, len(lines))
	for _, ln := range lines {
		order.Total += float64(ln.Qty) * ln.Price
		items = append(items, domain.OrderItem{
			OrderID: order.ID,
			PlantID: ln.PlantID,
			Name:    ln.Name,
			Qty:     ln.Qty,
			Price:   ln.Price,
		})
	}

	if err := s.Orders.CreateWithItems(cartID, order, items); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// statusMessages is the user-facing copy per status; pending deliberately
// has none.
var statusMessages = map[string]string{
	domain.StatusProcessing: "Your order is now being processed.",
	domain.StatusShipped:    "Your order has been shipped! It's on the way to you.",
	domain.StatusDelivered:  "Your order has been delivered. Enjoy your plants!",
	domain.StatusCancelled:  "Your order has been cancelled. Please contact support for more information.",
}

// UpdateStatus persists a new order status and notifies the order's
// owner. Only admins may call it. The allowed set is the only guard;
// there is no transition graph, so re-entering a status or moving
// backwards is permitted. An unrecognized value changes nothing and
// emits nothing.
func (s *OrderService) UpdateStatus(actor *domain.User, orderID, status string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if !domain.ValidStatus(status) {
		return domain.ErrInvalidStatus
	}

	o, _, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	if err := s.Orders.UpdateStatus(orderID, status); err != nil {
		return err
	}

	if msg, ok := statusMessages[status]; ok {
		return s.Notifs.Create(domain.Notification{
			ID:      uuid.NewString(),
			UserID:  o.UserID,
			Type:    domain.NotifOrderStatus,
			Title:   fmt.Sprintf("Order #%s Status Update", orderID),
			Message: msg,
			OrderID: orderID,
		})
	}
	return nil
}
