package repos_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	// clear the demo catalog; these tests bring their own plants
	if _, err := db.Exec(`DELETE FROM plants`); err != nil {
		t.Fatal(err)
	}
	return db
}

func addPlant(t *testing.T, db *sqlx.DB, id, name string, price float64, stock int) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO plants(id,name,price,stock) VALUES(?,?,?,?)`,
		id, name, price, stock); err != nil {
		t.Fatal(err)
	}
}

func TestPlantList_FilterSortAndStock(t *testing.T) {
	db := memdb(t)
	r := repos.NewPlantRepo(db)
	addPlant(t, db, "p1", "Monstera Deliciosa", 49.99, 12)
	addPlant(t, db, "p2", "Monstera Adansonii", 29.99, 0)
	addPlant(t, db, "p3", "Snake Plant", 24.50, 20)

	// search is case-insensitive
	got, err := r.List("monstera", "", false, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 monsteras, got %d", len(got))
	}

	// buyers only see stocked plants
	got, err = r.List("monstera", "", true, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("want only the stocked monstera, got %+v", got)
	}

	got, err = r.List("", "price_asc", false, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "p3" {
		t.Fatalf("price_asc should list the cheapest first, got %s", got[0].ID)
	}
}

func TestPlantGet_NotFound(t *testing.T) {
	db := memdb(t)
	r := repos.NewPlantRepo(db)
	if _, err := r.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPlantLowStock(t *testing.T) {
	db := memdb(t)
	r := repos.NewPlantRepo(db)
	addPlant(t, db, "p1", "Plenty", 10, 50)
	addPlant(t, db, "p2", "Scarce", 10, 3)
	addPlant(t, db, "p3", "Gone", 10, 0)

	low, err := r.LowStock(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(low) != 2 {
		t.Fatalf("want 2 low-stock plants, got %d", len(low))
	}
	for _, p := range low {
		if p.Stock > 10 {
			t.Fatalf("%s is not low stock: %d", p.ID, p.Stock)
		}
	}
}

func TestPlantDelete_KeepsOrderHistory(t *testing.T) {
	db := memdb(t)
	r := repos.NewPlantRepo(db)
	addPlant(t, db, "p1", "Doomed Fern", 30, 5)

	if _, err := db.Exec(`INSERT INTO orders(id,user_id,status,total,shipping_address)
		VALUES('o1','u-olive','delivered',60,'12 Garden Way')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO order_items(order_id,plant_id,name,qty,price)
		VALUES('o1','p1','Doomed Fern',2,30)`); err != nil {
		t.Fatal(err)
	}

	if err := r.Delete("p1"); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM order_items WHERE order_id='o1'`); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("order item snapshot must survive plant deletion, got %d rows", n)
	}
	var name string
	if err := db.Get(&name, `SELECT name FROM order_items WHERE order_id='o1'`); err != nil {
		t.Fatal(err)
	}
	if name != "Doomed Fern" {
		t.Fatalf("snapshot name lost: %s", name)
	}
}
