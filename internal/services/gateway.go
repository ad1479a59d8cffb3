package services

import "greenhaus/internal/supabase"

// AuthGateway is the slice of the external auth service the app consumes.
// The single implementation is *supabase.Client, bound in main; tests
// substitute a fake so business logic never touches the network.
type AuthGateway interface {
	Signup(email, password string, meta map[string]string) (supabase.AuthUser, error)
	Login(email, password string) (supabase.Session, error)
	VerifyToken(token string) (supabase.AuthUser, error)
	SendConfirmation(email, redirectURL string) error
	VerifyConfirmation(token, email string) (supabase.AuthUser, error)
}

// ImageStore is the external object-storage boundary for plant images.
type ImageStore interface {
	UploadImage(data []byte, name string) (string, error)
	DeleteImage(url string) (bool, error)
}
