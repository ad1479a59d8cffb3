package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"greenhaus/internal/domain"
)

// RegistrationRepo persists the email-verification state machine, one row
// per web session. Rows expire; Get treats an expired row as absent.
type RegistrationRepo struct{ db *sqlx.DB }

func NewRegistrationRepo(db *sqlx.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

func (r *RegistrationRepo) Start(sid, email string, ttl time.Duration) error {
	expires := time.Now().UTC().Add(ttl).Format(time.RFC3339)
	_, err := r.db.Exec(`
		INSERT INTO registrations(sid,email,verified,step,expires_at)
		VALUES(?,?,0,1,?)
		ON CONFLICT(sid) DO UPDATE SET email=excluded.email, verified=0, step=1, expires_at=excluded.expires_at
	`, sid, email, expires)
	return err
}

func (r *RegistrationRepo) Get(sid string) (domain.Registration, error) {
	var reg domain.Registration
	err := r.db.Get(&reg, `
		SELECT sid,email,verified,step,COALESCE(created_at,'') AS created_at,expires_at
		FROM registrations WHERE sid=?
	`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return reg, domain.ErrNotFound
	}
	if err != nil {
		return reg, err
	}
	if exp, perr := time.Parse(time.RFC3339, reg.ExpiresAt); perr == nil && time.Now().UTC().After(exp) {
		_, _ = r.db.Exec(`DELETE FROM registrations WHERE sid=?`, sid)
		return domain.Registration{}, domain.ErrNotFound
	}
	return reg, nil
}

// MarkVerified records a successful confirmation callback. The verified
// email may differ in case from the submitted one; the service stores
// what the auth service reports.
func (r *RegistrationRepo) MarkVerified(sid, email string) error {
	res, err := r.db.Exec(`UPDATE registrations SET verified=1, step=2, email=? WHERE sid=?`, email, sid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RegistrationRepo) Delete(sid string) error {
	_, err := r.db.Exec(`DELETE FROM registrations WHERE sid=?`, sid)
	return err
}

// PruneExpired is called opportunistically from the registration flow.
func (r *RegistrationRepo) PruneExpired() error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`DELETE FROM registrations WHERE expires_at < ?`, now)
	return err
}
