package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

// RegistrationTTL bounds how long a half-finished signup may sit before
// the record behaves as if it never existed.
const RegistrationTTL = 24 * time.Hour

var (
	ErrNotVerified     = errors.New("email not verified yet")
	ErrLinkExpired     = errors.New("confirmation link expired, request a new one")
	ErrLinkInvalid     = errors.New("invalid confirmation link")
	ErrSessionExpired  = errors.New("registration session expired, start over")
	ErrAlreadyRegister = errors.New("this email is already registered")
)

// RegistrationService drives the multi-step signup: a confirmation email
// must round-trip through the external auth service before account
// details are accepted. State lives in a keyed, expiring record, one per
// web session.
type RegistrationService struct {
	Regs    *repos.RegistrationRepo
	Users   *repos.UserRepo
	Carts   *repos.CartRepo
	Gateway AuthGateway
}

func NewRegistrationService(regs *repos.RegistrationRepo, users *repos.UserRepo, carts *repos.CartRepo, gw AuthGateway) *RegistrationService {
	return &RegistrationService{Regs: regs, Users: users, Carts: carts, Gateway: gw}
}

// Start submits the email and dispatches the confirmation link. When the
// dispatch fails no record is written, so the flow stays at the first
// step and the dispatch error reaches the caller.
func (s *RegistrationService) Start(sid, email, callbackURL string) error {
	_ = s.Regs.PruneExpired()
	if err := s.Gateway.SendConfirmation(email, callbackURL); err != nil {
		return domain.External("send confirmation", err)
	}
	return s.Regs.Start(sid, email, RegistrationTTL)
}

// State reports the current record; domain.ErrNotFound means step 1.
func (s *RegistrationService) State(sid string) (domain.Registration, error) {
	return s.Regs.Get(sid)
}

// Callback verifies the emailed token with the auth service and marks
// the record verified. Expired links are distinguished from invalid ones
// by the service's error text; either way the state does not advance.
func (s *RegistrationService) Callback(sid, token, email string) (domain.Registration, error) {
	if token == "" {
		return domain.Registration{}, ErrLinkInvalid
	}
	u, err := s.Gateway.VerifyConfirmation(token, email)
	if err != nil {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "expired"):
			return domain.Registration{}, ErrLinkExpired
		case strings.Contains(msg, "invalid"):
			return domain.Registration{}, ErrLinkInvalid
		}
		return domain.Registration{}, domain.External("verify confirmation", err)
	}

	verified := u.Email
	if verified == "" {
		verified = email
	}
	if err := s.Regs.MarkVerified(sid, verified); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Callback can land on a fresh session (link opened in another
			// browser); create the record directly in the verified state.
			if err := s.Regs.Start(sid, verified, RegistrationTTL); err != nil {
				return domain.Registration{}, err
			}
			if err := s.Regs.MarkVerified(sid, verified); err != nil {
				return domain.Registration{}, err
			}
		} else {
			return domain.Registration{}, err
		}
	}
	return s.Regs.Get(sid)
}

// CompleteResult reports a finished step 3. Warning carries the partial
// failure where the external account exists but the local record could
// not be written; the flow still counts as advanced.
type CompleteResult struct {
	User    *domain.User
	Warning string
}

// Complete finishes registration: external account first, then the local
// one bound to the same verified email. An unverified or expired record
// refuses to proceed. An external failure leaves the machine where it
// was; a local failure after external success surfaces as a warning, not
// a hard failure, because the external account persists.
func (s *RegistrationService) Complete(sid, username, password, phone string) (CompleteResult, error) {
	reg, err := s.Regs.Get(sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CompleteResult{}, ErrSessionExpired
		}
		return CompleteResult{}, err
	}
	if !reg.Verified {
		return CompleteResult{}, ErrNotVerified
	}

	if taken, err := s.Users.UsernameTaken(username); err != nil {
		return CompleteResult{}, err
	} else if taken {
		return CompleteResult{}, domain.Invalid("username", "username already exists")
	}

	_, err = s.Gateway.Signup(reg.Email, password, map[string]string{
		"full_name":    username,
		"phone_number": phone,
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already") {
			return CompleteResult{}, ErrAlreadyRegister
		}
		return CompleteResult{}, domain.External("signup", err)
	}

	res := CompleteResult{}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err == nil {
		u := domain.User{
			ID:       uuid.NewString(),
			Username: username,
			Email:    reg.Email,
			Hash:     string(hash),
			Phone:    phone,
			Role:     "USER",
		}
		if cerr := s.Users.Create(u); cerr != nil {
			res.Warning = "account created, but the local profile could not be saved"
		} else {
			res.User = &u
			_, _ = s.Carts.EnsureCart(u.ID)
		}
	} else {
		res.Warning = "account created, but the local profile could not be saved"
	}

	_ = s.Regs.Delete(sid)
	return res, nil
}

// Resend re-dispatches the confirmation email to the stored address
// without touching the machine's state.
func (s *RegistrationService) Resend(sid, callbackURL string) error {
	reg, err := s.Regs.Get(sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrSessionExpired
		}
		return err
	}
	if err := s.Gateway.SendConfirmation(reg.Email, callbackURL); err != nil {
		return domain.External("send confirmation", err)
	}
	return nil
}
