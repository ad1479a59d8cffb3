package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"greenhaus/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateWithItems writes the order, its item snapshots, the stock
// decrements and the cart clear in one transaction. Each decrement is
// guarded (stock >= qty) so two concurrent checkouts of the same plant
// cannot both take the last unit; the first line without enough stock
// aborts the whole transaction with an InsufficientStockError.
func (r *OrderRepo) CreateWithItems(cartID string, o domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		res, err := tx.Exec(`UPDATE plants SET stock = stock - ?, updated_at=CURRENT_TIMESTAMP
			WHERE id = ? AND stock >= ?`, it.Qty, it.PlantID, it.Qty)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var have int
			if err := tx.Get(&have, `SELECT stock FROM plants WHERE id=?`, it.PlantID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return &domain.InsufficientStockError{PlantID: it.PlantID, Name: it.Name, Want: it.Qty, Have: have}
		}
	}

	if _, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, status, total, shipping_address, shipping_phone, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.Status, o.Total, o.ShippingAddress, o.ShippingPhone); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, plant_id, name, qty, price)
		  VALUES(?, ?, ?, ?, ?)
		`, o.ID, it.PlantID, it.Name, it.Qty, it.Price); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}

	return tx.Commit()
}

const orderCols = `id, user_id, status, total, shipping_address,
  COALESCE(shipping_phone,'') AS shipping_phone,
  COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, nil, domain.ErrNotFound
		}
		return o, nil, err
	}

	var items []domain.OrderItem
	if err := r.db.Select(&items, `
		SELECT order_id, plant_id, name, qty, price
		FROM order_items WHERE order_id = ? ORDER BY name
	`, orderID); err != nil {
		return o, nil, err
	}

	return o, items, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
		SELECT `+orderCols+` FROM orders WHERE user_id = ?
		ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.Select(&out, `
		SELECT `+orderCols+` FROM orders
		ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	res, err := r.db.Exec(`UPDATE orders SET status = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

func (r *OrderRepo) CountByStatus(status string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE status=?`, status)
	return n, err
}

// DeleteByUser removes a user's orders (self-service account deletion).
func (r *OrderRepo) DeleteByUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM orders WHERE user_id=?`, userID)
	return err
}
