package httpx

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

const AdminCookie = "admin_token"

type TokenIssuer struct {
	*jwtauth.JWTAuth
	TTL time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		JWTAuth: jwtauth.New("HS256", []byte(secret), nil),
		TTL:     ttl,
	}
}

// Issue signs an admin token for email.
func (ti *TokenIssuer) Issue(email string) (string, error) {
	claims := map[string]interface{}{
		"sub":   "admin",
		"email": email,
	}
	issued := time.Now()
	jwtauth.SetIssuedAt(claims, issued)
	jwtauth.SetExpiry(claims, issued.Add(ti.TTL))

	_, token, err := ti.Encode(claims)
	return token, err
}

// Cookie carries the token to browser clients; scripts may read it.
func (ti *TokenIssuer) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     AdminCookie,
		Value:    url.QueryEscape(token),
		Path:     "/",
		MaxAge:   int(ti.TTL / time.Second),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFromCookie finds the admin token in its cookie.
func TokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(AdminCookie)
	if err != nil {
		return ""
	}
	token, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return token
}
