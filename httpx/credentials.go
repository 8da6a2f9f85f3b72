package httpx

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminCredentials is the single administrator account, read from configuration.
// When PasswordHash is set it wins over Password.
type AdminCredentials struct {
	Email        string
	Password     string
	PasswordHash string
}

func (c AdminCredentials) Verify(email, password string) error {
	if c.Email == "" || !strings.EqualFold(strings.TrimSpace(email), c.Email) {
		return ErrInvalidCredentials
	}

	switch {
	case c.PasswordHash != "":
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
			return ErrInvalidCredentials
		}
	case c.Password != "":
		if subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) != 1 {
			return ErrInvalidCredentials
		}
	default:
		// no password configured: nobody can log in
		return ErrInvalidCredentials
	}
	return nil
}
