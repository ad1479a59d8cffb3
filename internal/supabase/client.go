// Package supabase is a thin REST client for the hosted auth/storage
// service. It is bound once in main and handed to the services layer
// behind small interfaces so business logic can run against a fake.
package supabase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	HTTP       *http.Client
}

func New(baseURL, anonKey, serviceKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AnonKey:    anonKey,
		ServiceKey: serviceKey,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthUser is the subset of the auth service's user object we consume.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session carries the access token returned by a password login.
type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        AuthUser `json:"user"`
}

type apiError struct {
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	ErrorDesc   string `json:"error_description"`
	ErrorField  string `json:"error"`
	StatusField int    `json:"status"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDesc, e.ErrorField} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) do(method, path, bearer string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.AnonKey)
	if bearer == "" {
		bearer = c.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		if msg := ae.text(); msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// Signup registers a user with email/password plus profile metadata.
func (c *Client) Signup(email, password string, meta map[string]string) (AuthUser, error) {
	payload := map[string]any{"email": email, "password": password}
	if len(meta) > 0 {
		payload["data"] = meta
	}
	var resp struct {
		ID    string   `json:"id"`
		Email string   `json:"email"`
		User  AuthUser `json:"user"`
	}
	if err := c.do("POST", "/auth/v1/signup", "", payload, &resp); err != nil {
		return AuthUser{}, err
	}
	if resp.User.ID != "" {
		return resp.User, nil
	}
	return AuthUser{ID: resp.ID, Email: resp.Email}, nil
}

// Login exchanges email/password for a session with an access token.
func (c *Client) Login(email, password string) (Session, error) {
	var s Session
	err := c.do("POST", "/auth/v1/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &s)
	return s, err
}

// VerifyToken resolves an access token to its user.
func (c *Client) VerifyToken(token string) (AuthUser, error) {
	var u AuthUser
	err := c.do("GET", "/auth/v1/user", token, nil, &u)
	return u, err
}

// SendConfirmation dispatches a confirmation magic link to email. The link
// redirects to redirectURL with a token_hash query parameter.
func (c *Client) SendConfirmation(email, redirectURL string) error {
	payload := map[string]any{
		"email":       email,
		"create_user": true,
		"options":     map[string]string{"email_redirect_to": redirectURL},
	}
	return c.do("POST", "/auth/v1/otp", "", payload, nil)
}

// VerifyConfirmation validates a confirmation token from the email link.
// The service's own error text is passed through so callers can tell an
// expired link from an invalid one.
func (c *Client) VerifyConfirmation(token, email string) (AuthUser, error) {
	payload := map[string]string{"type": "signup", "token_hash": token}
	if email != "" {
		payload["email"] = email
	}
	var s Session
	if err := c.do("POST", "/auth/v1/verify", "", payload, &s); err != nil {
		return AuthUser{}, err
	}
	return s.User, nil
}
