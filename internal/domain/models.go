package domain

type Plant struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
	Stock       int     `db:"stock"`
	ImageURL    string  `db:"image_url"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// Order statuses. Refunded is terminal and set out-of-band; UpdateStatus
// never accepts it.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// ValidStatus reports whether s is accepted by an admin status update.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              string  `db:"id"`
	UserID          string  `db:"user_id"`
	Status          string  `db:"status"`
	Total           float64 `db:"total"`
	ShippingAddress string  `db:"shipping_address"`
	ShippingPhone   string  `db:"shipping_phone"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`
}

// OrderItem is a purchase-time snapshot. Name and Price are copied from the
// plant at checkout so later edits or deletion of the plant never change
// historical orders.
type OrderItem struct {
	OrderID string  `db:"order_id"`
	PlantID string  `db:"plant_id"`
	Name    string  `db:"name"`
	Qty     int     `db:"qty"`
	Price   float64 `db:"price"`
}

func (i OrderItem) Cost() float64 { return float64(i.Qty) * i.Price }

type Notification struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Type      string `db:"type"`
	Title     string `db:"title"`
	Message   string `db:"message"`
	OrderID   string `db:"order_id"`
	IsRead    bool   `db:"is_read"`
	CreatedAt string `db:"created_at"`
}

const (
	NotifOrderStatus = "order_status"
	NotifSystem      = "system"
	NotifPromotion   = "promotion"
)

// Registration is the persisted email-verification state machine record,
// keyed by the web session id and expiring after RegistrationTTL.
type Registration struct {
	SID       string `db:"sid"`
	Email     string `db:"email"`
	Verified  bool   `db:"verified"`
	Step      int    `db:"step"`
	CreatedAt string `db:"created_at"`
	ExpiresAt string `db:"expires_at"`
}
