package handlers

import (
	"github.com/jmoiron/sqlx"

	"greenhaus/internal/config"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
)

type Deps struct {
	AuthHandler     *AuthHandler
	ShopHandler     *ShopHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	NotifHandler    *NotificationHandler
	WishlistHandler *WishlistHandler
	AdminHandler    *AdminHandler
	APIHandler      *APIHandler
	RegisterHandler *RegisterHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, gw services.AuthGateway, images services.ImageStore) *Deps {
	plantRepo := repos.NewPlantRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	notifRepo := repos.NewNotificationRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	regRepo := repos.NewRegistrationRepo(db)

	catalogSvc := services.NewCatalogService(plantRepo, images)
	cartSvc := services.NewCartService(cartRepo, plantRepo)
	orderSvc := services.NewOrderService(cartRepo, plantRepo, orderRepo, notifRepo)
	wishSvc := services.NewWishlistService(wishRepo)
	regSvc := services.NewRegistrationService(regRepo, auth.Users, cartRepo, gw)

	return &Deps{
		AuthHandler:     &AuthHandler{Auth: auth, Orders: orderRepo, Notifs: notifRepo},
		ShopHandler:     &ShopHandler{Catalog: catalogSvc, Notifs: notifRepo},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Cart: cartSvc, Orders: orderSvc, Repo: orderRepo},
		NotifHandler:    &NotificationHandler{Notifs: notifRepo},
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		AdminHandler: &AdminHandler{
			Catalog: catalogSvc, Orders: orderSvc,
			OrderRepo: orderRepo, PlantRepo: plantRepo, Users: auth.Users,
		},
		APIHandler: &APIHandler{
			Auth: auth, Catalog: catalogSvc, Cart: cartSvc, Orders: orderSvc, OrderRepo: orderRepo,
		},
		RegisterHandler: &RegisterHandler{Reg: regSvc, SiteURL: cfg.SiteURL},
	}
}
