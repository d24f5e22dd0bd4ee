package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the admin account. PasswordHash, a bcrypt hash, takes
// precedence over the plain Password.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

func (c Credentials) match(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = c.Password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	return userOK && passOK
}

// BasicAuth guards admin routes with HTTP Basic authentication.
func BasicAuth(creds Credentials, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || !creds.match(username, password) {
				if ok {
					logger.Warn("admin authentication failed",
						zap.String("username", username),
						zap.String("client_ip", ClientIP(r)),
					)
				}

				w.Header().Set("WWW-Authenticate", `Basic realm="admin", charset="UTF-8"`)
				writeDetail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
