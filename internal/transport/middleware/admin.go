package middleware

import (
	"net/http"

	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

// RequireAdmin rejects requests whose principal is not an administrator.
// Anonymous requests get 401, authenticated non-admins get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := ctxutil.PrincipalFromCtx(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.Role.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
