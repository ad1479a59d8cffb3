package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine is a cart row joined with its plant's live price and stock.
type CartLine struct {
	PlantID  string  `db:"plant_id"`
	Name     string  `db:"name"`
	Qty      int     `db:"qty"`
	Price    float64 `db:"price"`
	Stock    int     `db:"stock"`
	Subtotal float64 `db:"subtotal"`
}

// EnsureCart finds or creates the user's cart and returns its id.
func (r *CartRepo) EnsureCart(userID string) (string, error) {
	var cartID string
	err := r.db.Get(&cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	// Cart id doubles as the user id; carts are 1:1 with users.
	if _, err := r.db.Exec(`INSERT INTO carts(id,user_id,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)`,
		userID, userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (r *CartRepo) Items(cartID string) ([]CartLine, error) {
	var out []CartLine
	err := r.db.Select(&out, `
	  SELECT ci.plant_id, p.name, ci.qty, p.price, p.stock,
	         (ci.qty*p.price) AS subtotal
	  FROM cart_items ci JOIN plants p ON p.id=ci.plant_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.added_at
	`, cartID)
	return out, err
}

// Qty returns the current line quantity, 0 when absent.
func (r *CartRepo) Qty(cartID, plantID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT qty FROM cart_items WHERE cart_id=? AND plant_id=?`, cartID, plantID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

// AddQty accumulates qty onto an existing line or inserts a new one.
func (r *CartRepo) AddQty(cartID, plantID string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(cart_id,plant_id,qty)
		VALUES(?,?,?)
		ON CONFLICT(cart_id,plant_id) DO UPDATE
		SET qty = cart_items.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, cartID, plantID, qty)
	return err
}

func (r *CartRepo) SetQty(cartID, plantID string, qty int) error {
	_, err := r.db.Exec(`
		UPDATE cart_items SET qty=?, updated_at=CURRENT_TIMESTAMP
		WHERE cart_id=? AND plant_id=?
	`, qty, cartID, plantID)
	return err
}

func (r *CartRepo) Remove(cartID, plantID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id=? AND plant_id=?`, cartID, plantID)
	return err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
