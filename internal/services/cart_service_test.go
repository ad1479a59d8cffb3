package services_test

import (
	"errors"
	"testing"

	"greenhaus/internal/domain"
)

func TestCartAdd_OverStockRejected(t *testing.T) {
	db := memdb(t)
	plant(t, db, "cart-001", "Cart Plant", 20, 3)
	cartSvc, _, _ := newOrderStack(db)
	u := buyer(t, db, "u-olive")

	err := cartSvc.Add(u, "cart-001", 5)
	var se *domain.InsufficientStockError
	if !errors.As(err, &se) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	cv, _ := cartSvc.View(u)
	if len(cv.Items) != 0 {
		t.Fatalf("cart must stay empty, got %+v", cv.Items)
	}
}

func TestCartAdd_RepeatAddAccumulates(t *testing.T) {
	db := memdb(t)
	plant(t, db, "cart-001", "Cart Plant", 20, 5)
	cartSvc, _, _ := newOrderStack(db)
	u := buyer(t, db, "u-olive")

	if err := cartSvc.Add(u, "cart-001", 2); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Add(u, "cart-001", 2); err != nil {
		t.Fatal(err)
	}
	cv, _ := cartSvc.View(u)
	if len(cv.Items) != 1 || cv.Items[0].Qty != 4 {
		t.Fatalf("want one line qty=4, got %+v", cv.Items)
	}

	// 4 in cart + 2 more crosses the stock of 5
	err := cartSvc.Add(u, "cart-001", 2)
	var se *domain.InsufficientStockError
	if !errors.As(err, &se) {
		t.Fatalf("cumulative add over stock must fail, got %v", err)
	}
	cv, _ = cartSvc.View(u)
	if cv.Items[0].Qty != 4 {
		t.Fatalf("qty must be unchanged after rejected add, got %d", cv.Items[0].Qty)
	}
}

func TestCartUpdate_ZeroDeletesAndOverStockRecoverable(t *testing.T) {
	db := memdb(t)
	plant(t, db, "cart-001", "Cart Plant", 20, 5)
	cartSvc, _, _ := newOrderStack(db)
	u := buyer(t, db, "u-olive")

	if err := cartSvc.Add(u, "cart-001", 2); err != nil {
		t.Fatal(err)
	}

	// over stock: the line keeps its old quantity
	err := cartSvc.Update(u, "cart-001", 9)
	var se *domain.InsufficientStockError
	if !errors.As(err, &se) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	cv, _ := cartSvc.View(u)
	if cv.Items[0].Qty != 2 {
		t.Fatalf("qty must be unchanged, got %d", cv.Items[0].Qty)
	}

	// in range: applied
	if err := cartSvc.Update(u, "cart-001", 5); err != nil {
		t.Fatal(err)
	}
	cv, _ = cartSvc.View(u)
	if cv.Items[0].Qty != 5 {
		t.Fatalf("want qty=5, got %d", cv.Items[0].Qty)
	}

	// zero deletes the line
	if err := cartSvc.Update(u, "cart-001", 0); err != nil {
		t.Fatal(err)
	}
	cv, _ = cartSvc.View(u)
	if len(cv.Items) != 0 {
		t.Fatalf("line should be gone, got %+v", cv.Items)
	}
}

func TestCartRemove_Unconditional(t *testing.T) {
	db := memdb(t)
	plant(t, db, "cart-001", "Cart Plant", 20, 5)
	cartSvc, _, _ := newOrderStack(db)
	u := buyer(t, db, "u-olive")

	if err := cartSvc.Add(u, "cart-001", 2); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Remove(u, "cart-001"); err != nil {
		t.Fatal(err)
	}
	// removing an absent line is not an error
	if err := cartSvc.Remove(u, "cart-001"); err != nil {
		t.Fatal(err)
	}
	cv, _ := cartSvc.View(u)
	if len(cv.Items) != 0 {
		t.Fatalf("cart should be empty, got %+v", cv.Items)
	}
}

func TestCartAdd_AdminBarred(t *testing.T) {
	db := memdb(t)
	plant(t, db, "cart-001", "Cart Plant", 20, 5)
	cartSvc, _, _ := newOrderStack(db)
	admin := buyer(t, db, "u-admin")

	if err := cartSvc.Add(admin, "cart-001", 1); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden for admin, got %v", err)
	}
}
