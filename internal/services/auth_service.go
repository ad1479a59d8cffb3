package services

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

type AuthService struct {
	Users     *repos.UserRepo
	Gateway   AuthGateway // may be nil when the external service is not configured
	JWTSecret string
}

// Login authenticates against the external auth service first (when the
// identifier looks like an email and a gateway is wired), falling back to
// the local credential store, and binds the web session on success.
// External failures degrade to the local check; they never corrupt local
// state.
func (s *AuthService) Login(sid, identifier, password string) (*domain.User, error) {
	var u *domain.User
	var err error

	if strings.Contains(identifier, "@") {
		u, err = s.Users.ByEmail(identifier)
	} else {
		u, err = s.Users.ByUsername(identifier)
	}
	if err != nil {
		return nil, domain.ErrBadCreds
	}

	authed := false
	if s.Gateway != nil && strings.Contains(identifier, "@") {
		if _, gerr := s.Gateway.Login(identifier, password); gerr == nil {
			authed = true
		}
	}
	if !authed {
		if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
			return nil, domain.ErrBadCreds
		}
	}

	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// CheckPassword verifies a raw password against the stored local hash
// (used for password-confirmed account deletion).
func (s *AuthService) CheckPassword(u *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) == nil
}

// TokenFor mints the opaque signed bearer token for the JSON API,
// encoding user id and username.
func (s *AuthService) TokenFor(u *domain.User) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  u.ID,
		"username": u.Username,
	})
	return tok.SignedString([]byte(s.JWTSecret))
}

// VerifyAPIToken validates a bearer token and resolves its user. Any
// parse, signature or lookup failure reports bad credentials.
func (s *AuthService) VerifyAPIToken(raw string) (*domain.User, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrBadCreds
		}
		return []byte(s.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return nil, domain.ErrBadCreds
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrBadCreds
	}
	uid, _ := claims["user_id"].(string)
	if uid == "" {
		return nil, domain.ErrBadCreds
	}
	u, err := s.Users.ByID(uid)
	if err != nil {
		return nil, domain.ErrBadCreds
	}
	return u, nil
}
