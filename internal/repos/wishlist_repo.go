package repos

import (
	"github.com/jmoiron/sqlx"

	"greenhaus/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) Add(userID, plantID string) error {
	_, err := r.db.Exec(`
		INSERT INTO wishlist_items(user_id,plant_id) VALUES(?,?)
		ON CONFLICT(user_id,plant_id) DO NOTHING
	`, userID, plantID)
	return err
}

func (r *WishlistRepo) Remove(userID, plantID string) error {
	_, err := r.db.Exec(`DELETE FROM wishlist_items WHERE user_id=? AND plant_id=?`, userID, plantID)
	return err
}

func (r *WishlistRepo) List(userID string) ([]domain.Plant, error) {
	var out []domain.Plant
	err := r.db.Select(&out, `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.image_url,
		       COALESCE(p.created_at,'') AS created_at, COALESCE(p.updated_at,'') AS updated_at
		FROM wishlist_items w JOIN plants p ON p.id=w.plant_id
		WHERE w.user_id=? ORDER BY w.created_at DESC
	`, userID)
	return out, err
}

func (r *WishlistRepo) Count(userID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM wishlist_items WHERE user_id=?`, userID)
	return n, err
}
