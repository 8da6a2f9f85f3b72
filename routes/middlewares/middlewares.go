package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
)

// Admin lets through requests carrying a valid admin token, taken from the
// Authorization header first and from the admin cookie otherwise.
func Admin(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verify := jwtauth.Verify(ja, jwtauth.TokenFromHeader, httpx.TokenFromCookie)
	return func(next http.Handler) http.Handler {
		return verify(admin(next))
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			log.Debugf("auth.admin: %v", err)
			httpx.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err := jwt.Validate(token, jwt.WithSubject("admin")); err != nil {
			log.Debugf("auth.admin.claims: %s", err)
			httpx.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CORS allows the configured origins with credentials. Preflight requests are always answered with 200.
func CORS(origins []string) func(http.Handler) http.Handler {
	handler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return func(next http.Handler) http.Handler {
		return handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// Recoverer turns panics into a JSON 500 response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			log.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": middleware.GetReqID(r.Context()),
			}).Errorf("panic: %v\n%s", rvr, debug.Stack())
			httpx.WriteError(w, r, http.StatusInternalServerError, "Server error")
		}()

		next.ServeHTTP(w, r)
	})
}
