package repos

import (
	"github.com/jmoiron/sqlx"

	"greenhaus/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(n domain.Notification) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications(id,user_id,type,title,message,order_id,created_at)
		VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.OrderID)
	return err
}

func (r *NotificationRepo) ListByUser(userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Notification
	err := r.db.Select(&out, `
		SELECT id,user_id,type,title,message,order_id,is_read,COALESCE(created_at,'') AS created_at
		FROM notifications WHERE user_id=?
		ORDER BY datetime(created_at) DESC LIMIT ?
	`, userID, limit)
	return out, err
}

func (r *NotificationRepo) UnreadCount(userID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0`, userID)
	return n, err
}

// MarkRead flips one notification, scoped to its owner.
func (r *NotificationRepo) MarkRead(id, userID string) error {
	res, err := r.db.Exec(`UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(userID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0`, userID)
	return err
}

// ListByOrder is used by tests to assert exactly-once emission.
func (r *NotificationRepo) ListByOrder(orderID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.Select(&out, `
		SELECT id,user_id,type,title,message,order_id,is_read,COALESCE(created_at,'') AS created_at
		FROM notifications WHERE order_id=? ORDER BY datetime(created_at)
	`, orderID)
	return out, err
}
