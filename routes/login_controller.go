package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login checks the admin credentials and hands out a token, both in the body and as a cookie.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, r, "login.parse_body", err)
			return
		}
		if req.Email == "" || req.Password == "" {
			badRequest(w, r, "login.parse_body", errors.New("Email and password required"))
			return
		}

		if err := app.Credentials.Verify(req.Email, req.Password); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.InfoLevel, "login.verify", "Invalid credentials")
			return
		}

		token, err := app.Tokens.Issue(req.Email)
		if err != nil {
			httpx.LogInternalError(w, r, "login.issue_token", err)
			return
		}

		http.SetCookie(w, app.Tokens.Cookie(token))
		render.JSON(w, r, loginResponse{Token: token})
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
