package services

import (
	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

type WishlistService struct {
	Repo *repos.WishlistRepo
}

func NewWishlistService(r *repos.WishlistRepo) *WishlistService { return &WishlistService{Repo: r} }

func (s *WishlistService) Save(userID, plantID string) error {
	return s.Repo.Add(userID, plantID)
}

func (s *WishlistService) Unsave(userID, plantID string) error {
	return s.Repo.Remove(userID, plantID)
}

func (s *WishlistService) List(userID string) ([]domain.Plant, error) {
	return s.Repo.List(userID)
}
