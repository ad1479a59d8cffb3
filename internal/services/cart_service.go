package services

import (
	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

type CartService struct {
	Carts  *repos.CartRepo
	Plants *repos.PlantRepo
}

func NewCartService(carts *repos.CartRepo, plants *repos.PlantRepo) *CartService {
	return &CartService{Carts: carts, Plants: plants}
}

type CartView struct {
	Items []repos.CartLine
	Total float64
}

// Add puts qty of a plant into the user's cart. A repeat add accumulates,
// and the cumulative quantity must not exceed the plant's current stock.
// Admin accounts are barred from the buyer flow.
func (s *CartService) Add(u *domain.User, plantID string, qty int) error {
	if u.IsAdmin() {
		return domain.ErrForbidden
	}
	if qty < 1 {
		qty = 1
	}
	p, err := s.Plants.Get(plantID)
	if err != nil {
		return err
	}
	cartID, err := s.Carts.EnsureCart(u.ID)
	if err != nil {
		return err
	}
	have, err := s.Carts.Qty(cartID, plantID)
	if err != nil {
		return err
	}
	if have+qty > p.Stock {
		return &domain.InsufficientStockError{PlantID: p.ID, Name: p.Name, Want: have + qty, Have: p.Stock}
	}
	return s.Carts.AddQty(cartID, plantID, qty)
}

// Update sets a line's quantity. qty <= 0 removes the line. A quantity
// above current stock is refused with a recoverable error; the caller
// surfaces it and leaves the line as it was.
func (s *CartService) Update(u *domain.User, plantID string, qty int) error {
	if u.IsAdmin() {
		return domain.ErrForbidden
	}
	cartID, err := s.Carts.EnsureCart(u.ID)
	if err != nil {
		return err
	}
	if qty <= 0 {
		return s.Carts.Remove(cartID, plantID)
	}
	p, err := s.Plants.Get(plantID)
	if err != nil {
		return err
	}
	if qty > p.Stock {
		return &domain.InsufficientStockError{PlantID: p.ID, Name: p.Name, Want: qty, Have: p.Stock}
	}
	return s.Carts.SetQty(cartID, plantID, qty)
}

func (s *CartService) Remove(u *domain.User, plantID string) error {
	if u.IsAdmin() {
		return domain.ErrForbidden
	}
	cartID, err := s.Carts.EnsureCart(u.ID)
	if err != nil {
		return err
	}
	return s.Carts.Remove(cartID, plantID)
}

// View lists the cart with live prices; the total is computed from
// current unit prices, matching what checkout would charge.
func (s *CartService) View(u *domain.User) (CartView, error) {
	if u.IsAdmin() {
		return CartView{}, domain.ErrForbidden
	}
	cartID, err := s.Carts.EnsureCart(u.ID)
	if err != nil {
		return CartView{}, err
	}
	items, err := s.Carts.Items(cartID)
	if err != nil {
		return CartView{}, err
	}
	total := 0.0
	for _, it := range items {
		total += it.Subtotal
	}
	return CartView{Items: items, Total: total}, nil
}
