package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
	"greenhaus/internal/services"
	"greenhaus/internal/supabase"
)

// fakeGateway stands in for the external auth service.
type fakeGateway struct {
	sendErr    error
	verifyErr  error
	signupErr  error
	sentTo     []string
	signupFor  []string
	verifiedAs string
}

func (f *fakeGateway) Signup(email, password string, meta map[string]string) (supabase.AuthUser, error) {
	if f.signupErr != nil {
		return supabase.AuthUser{}, f.signupErr
	}
	f.signupFor = append(f.signupFor, email)
	return supabase.AuthUser{ID: "ext-1", Email: email}, nil
}

func (f *fakeGateway) Login(email, password string) (supabase.Session, error) {
	return supabase.Session{}, errors.New("not used")
}

func (f *fakeGateway) VerifyToken(token string) (supabase.AuthUser, error) {
	return supabase.AuthUser{}, errors.New("not used")
}

func (f *fakeGateway) SendConfirmation(email, redirectURL string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTo = append(f.sentTo, email)
	return nil
}

func (f *fakeGateway) VerifyConfirmation(token, email string) (supabase.AuthUser, error) {
	if f.verifyErr != nil {
		return supabase.AuthUser{}, f.verifyErr
	}
	f.verifiedAs = email
	return supabase.AuthUser{ID: "ext-1", Email: email}, nil
}

func newRegStack(t *testing.T) (*services.RegistrationService, *fakeGateway, *repos.UserRepo, *repos.CartRepo) {
	t.Helper()
	db := memdb(t)
	gw := &fakeGateway{}
	users := repos.NewUserRepo(db)
	carts := repos.NewCartRepo(db)
	svc := services.NewRegistrationService(repos.NewRegistrationRepo(db), users, carts, gw)
	return svc, gw, users, carts
}

const (
	sid     = "reg-session"
	cbURL   = "http://localhost:8080/accounts/register/callback/"
	regMail = "newbie@greenhaus.test"
)

func TestRegistration_StartCreatesAwaitingRecord(t *testing.T) {
	svc, gw, _, _ := newRegStack(t)

	require.NoError(t, svc.Start(sid, regMail, cbURL))
	assert.Equal(t, []string{regMail}, gw.sentTo)

	reg, err := svc.State(sid)
	require.NoError(t, err)
	assert.Equal(t, regMail, reg.Email)
	assert.False(t, reg.Verified)
	assert.Equal(t, 1, reg.Step)
}

func TestRegistration_DispatchFailureKeepsNoRecord(t *testing.T) {
	svc, gw, _, _ := newRegStack(t)
	gw.sendErr = errors.New("smtp down")

	err := svc.Start(sid, regMail, cbURL)
	var xe *domain.ExternalError
	require.ErrorAs(t, err, &xe)

	_, err = svc.State(sid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistration_CallbackVerifies(t *testing.T) {
	svc, _, _, _ := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))

	reg, err := svc.Callback(sid, "tok-123", regMail)
	require.NoError(t, err)
	assert.True(t, reg.Verified)
	assert.Equal(t, 2, reg.Step)
}

func TestRegistration_CallbackExpiredAndInvalidDistinguished(t *testing.T) {
	svc, gw, _, _ := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))

	gw.verifyErr = errors.New("otp_expired: Email link is expired")
	_, err := svc.Callback(sid, "tok-123", regMail)
	assert.ErrorIs(t, err, services.ErrLinkExpired)

	gw.verifyErr = errors.New("invalid token hash")
	_, err = svc.Callback(sid, "tok-123", regMail)
	assert.ErrorIs(t, err, services.ErrLinkInvalid)

	// neither attempt advanced the machine
	reg, err := svc.State(sid)
	require.NoError(t, err)
	assert.False(t, reg.Verified)
}

func TestRegistration_CompleteRequiresVerification(t *testing.T) {
	svc, _, _, _ := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))

	_, err := svc.Complete(sid, "newbie", "Passw0rd!x", "")
	assert.ErrorIs(t, err, services.ErrNotVerified)

	_, err = svc.Complete("other-session", "newbie", "Passw0rd!x", "")
	assert.ErrorIs(t, err, services.ErrSessionExpired)
}

func TestRegistration_CompleteCreatesAccounts(t *testing.T) {
	svc, gw, users, carts := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))
	_, err := svc.Callback(sid, "tok-123", regMail)
	require.NoError(t, err)

	res, err := svc.Complete(sid, "newbie", "Passw0rd!x", "+1 555 010 2030")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Empty(t, res.Warning)
	assert.Equal(t, []string{regMail}, gw.signupFor)

	u, err := users.ByUsername("newbie")
	require.NoError(t, err)
	assert.Equal(t, regMail, u.Email)
	assert.Equal(t, "USER", u.Role)

	// the new buyer gets a cart
	lines, err := carts.Items(u.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// the record is consumed
	_, err = svc.State(sid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistration_ExternalSignupFailureDoesNotAdvance(t *testing.T) {
	svc, gw, users, _ := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))
	_, err := svc.Callback(sid, "tok-123", regMail)
	require.NoError(t, err)

	gw.signupErr = errors.New("User already registered")
	_, err = svc.Complete(sid, "newbie", "Passw0rd!x", "")
	assert.ErrorIs(t, err, services.ErrAlreadyRegister)

	_, err = users.ByUsername("newbie")
	assert.Error(t, err)

	// still verified, still completable after the error clears
	reg, err := svc.State(sid)
	require.NoError(t, err)
	assert.True(t, reg.Verified)
}

func TestRegistration_LocalFailureAfterExternalSuccessWarns(t *testing.T) {
	svc, _, users, _ := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))
	_, err := svc.Callback(sid, "tok-123", regMail)
	require.NoError(t, err)

	// occupy the email locally so the profile insert fails
	require.NoError(t, users.Create(domain.User{
		ID: "u-squat", Username: "squatter", Email: regMail, Hash: "x", Role: "USER",
	}))

	res, err := svc.Complete(sid, "newbie", "Passw0rd!x", "")
	require.NoError(t, err)
	assert.Nil(t, res.User)
	assert.NotEmpty(t, res.Warning)
}

func TestRegistration_ResendKeepsState(t *testing.T) {
	svc, gw, _, _ := newRegStack(t)
	require.NoError(t, svc.Start(sid, regMail, cbURL))

	require.NoError(t, svc.Resend(sid, cbURL))
	assert.Equal(t, []string{regMail, regMail}, gw.sentTo)

	reg, err := svc.State(sid)
	require.NoError(t, err)
	assert.False(t, reg.Verified)

	assert.ErrorIs(t, svc.Resend("missing", cbURL), services.ErrSessionExpired)
}
