package services_test

import (
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
)

func placeOrder(t *testing.T, db *sqlx.DB, cartSvc *services.CartService, orderSvc *services.OrderService) domain.Order {
	t.Helper()
	plant(t, db, "notif-001", "Notif Plant", 10, 50)
	u := buyer(t, db, "u-olive")
	require.NoError(t, cartSvc.Add(u, "notif-001", 1))
	o, err := orderSvc.Checkout(u, "12 Garden Way", "")
	require.NoError(t, err)
	return o
}

func TestUpdateStatus_EmitsOneNotificationWithExactCopy(t *testing.T) {
	wantCopy := map[string]string{
		domain.StatusProcessing: "Your order is now being processed.",
		domain.StatusShipped:    "Your order has been shipped! It's on the way to you.",
		domain.StatusDelivered:  "Your order has been delivered. Enjoy your plants!",
		domain.StatusCancelled:  "Your order has been cancelled. Please contact support for more information.",
	}

	for status, msg := range wantCopy {
		t.Run(status, func(t *testing.T) {
			db := memdb(t)
			cartSvc, orderSvc, orderRepo := newOrderStack(db)
			notifRepo := repos.NewNotificationRepo(db)
			o := placeOrder(t, db, cartSvc, orderSvc)
			admin := buyer(t, db, "u-admin")

			require.NoError(t, orderSvc.UpdateStatus(admin, o.ID, status))

			saved, _, err := orderRepo.Get(o.ID)
			require.NoError(t, err)
			assert.Equal(t, status, saved.Status)

			ns, err := notifRepo.ListByOrder(o.ID)
			require.NoError(t, err)
			require.Len(t, ns, 1)
			assert.Equal(t, fmt.Sprintf("Order #%s Status Update", o.ID), ns[0].Title)
			assert.Equal(t, msg, ns[0].Message)
			assert.Equal(t, o.UserID, ns[0].UserID)
			assert.Equal(t, domain.NotifOrderStatus, ns[0].Type)
			assert.False(t, ns[0].IsRead)
		})
	}
}

func TestUpdateStatus_PendingEmitsNothing(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _ := newOrderStack(db)
	notifRepo := repos.NewNotificationRepo(db)
	o := placeOrder(t, db, cartSvc, orderSvc)
	admin := buyer(t, db, "u-admin")

	require.NoError(t, orderSvc.UpdateStatus(admin, o.ID, domain.StatusPending))

	ns, err := notifRepo.ListByOrder(o.ID)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestUpdateStatus_InvalidValueChangesNothing(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo := newOrderStack(db)
	notifRepo := repos.NewNotificationRepo(db)
	o := placeOrder(t, db, cartSvc, orderSvc)
	admin := buyer(t, db, "u-admin")

	for _, bad := range []string{"shippedd", "REFUNDED", "refunded", ""} {
		err := orderSvc.UpdateStatus(admin, o.ID, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidStatus, "status %q", bad)
	}

	saved, _, err := orderRepo.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, saved.Status)

	ns, err := notifRepo.ListByOrder(o.ID)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestUpdateStatus_NonAdminForbidden(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _ := newOrderStack(db)
	o := placeOrder(t, db, cartSvc, orderSvc)
	u := buyer(t, db, "u-olive")

	assert.ErrorIs(t, orderSvc.UpdateStatus(u, o.ID, domain.StatusShipped), domain.ErrForbidden)
}

// The allowed set is the only guard; there is no transition graph.
func TestUpdateStatus_BackwardsTransitionAllowed(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo := newOrderStack(db)
	o := placeOrder(t, db, cartSvc, orderSvc)
	admin := buyer(t, db, "u-admin")

	require.NoError(t, orderSvc.UpdateStatus(admin, o.ID, domain.StatusDelivered))
	require.NoError(t, orderSvc.UpdateStatus(admin, o.ID, domain.StatusPending))

	saved, _, err := orderRepo.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, saved.Status)
}
