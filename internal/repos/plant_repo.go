package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"greenhaus/internal/domain"
)

type PlantRepo struct{ db *sqlx.DB }

func NewPlantRepo(db *sqlx.DB) *PlantRepo { return &PlantRepo{db: db} }

const plantCols = `id, name, description, price, stock, image_url,
  COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *PlantRepo) Get(id string) (domain.Plant, error) {
	var p domain.Plant
	err := r.db.Get(&p, `SELECT `+plantCols+` FROM plants WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	return p, err
}

// List returns plants matching q (name/description substring), sorted.
// When inStockOnly is set, zero-stock plants are hidden (buyer views).
func (r *PlantRepo) List(q, sort string, inStockOnly bool, limit, offset int) ([]domain.Plant, error) {
	where := `1=1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		pat := "%" + q + "%"
		args = append(args, pat, pat)
	}
	if inStockOnly {
		where += ` AND stock > 0`
	}

	order := `LOWER(name) ASC`
	switch sort {
	case "price_asc":
		order = `price ASC`
	case "price_desc":
		order = `price DESC`
	case "name_desc":
		order = `LOWER(name) DESC`
	}

	query := `SELECT ` + plantCols + ` FROM plants WHERE ` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Plant
	err := r.db.Select(&out, query, args...)
	return out, err
}

func (r *PlantRepo) Create(p domain.Plant) error {
	_, err := r.db.Exec(`
		INSERT INTO plants(id,name,description,price,stock,image_url,created_at)
		VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL)
	return err
}

func (r *PlantRepo) Update(p domain.Plant) error {
	res, err := r.db.Exec(`
		UPDATE plants SET name=?, description=?, price=?, stock=?, image_url=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?
	`, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the plant only. Historical order_items keep their snapshot
// of the name and price.
func (r *PlantRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM plants WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LowStock lists plants at or below the threshold (admin dashboard).
func (r *PlantRepo) LowStock(threshold, limit int) ([]domain.Plant, error) {
	var out []domain.Plant
	err := r.db.Select(&out, `
		SELECT `+plantCols+` FROM plants WHERE stock <= ? ORDER BY stock ASC LIMIT ?
	`, threshold, limit)
	return out, err
}

func (r *PlantRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM plants`)
	return n, err
}
