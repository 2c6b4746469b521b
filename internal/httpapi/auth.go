package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"go.uber.org/zap"
)

// AuthMiddleware resolves the session to a principal for every
// non-public request. Admin grants are loaded here; a failure to load them
// rejects the request instead of continuing without permissions.
func AuthMiddleware(st store.AccessStore, logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			next.ServeHTTP(w, r)
			return
		}
		requestID := requestIDFromRequest(r)
		sessionID := sessionIDFromRequest(r)
		if sessionID == "" {
			writeError(w, requestID, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		session, err := st.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, requestID, http.StatusUnauthorized, "unauthorized", "invalid session")
				return
			}
			logger.Error("session lookup failed", zap.String("request_id", requestID), zap.Error(err))
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		role, err := st.GetRole(r.Context(), session.UserID)
		if err != nil {
			logger.Error("role lookup failed", zap.String("user_id", session.UserID), zap.Error(err))
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", "role lookup failed")
			return
		}
		principal := access.NewPrincipal(session.UserID, session.Email, role)
		if role == access.RoleAdmin {
			keys, err := st.ListPermissions(r.Context(), session.UserID)
			if err != nil {
				logger.Error("permission lookup failed", zap.String("user_id", session.UserID), zap.Error(err))
				writeError(w, requestID, http.StatusInternalServerError, "internal_error", "permission lookup failed")
				return
			}
			principal = principal.WithGrants(keys)
		}
		next.ServeHTTP(w, r.WithContext(access.NewContext(r.Context(), principal)))
	})
}

func principalFromRequest(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	principal, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, requestIDFromRequest(r), http.StatusUnauthorized, "unauthorized", "missing session")
		return access.Principal{}, false
	}
	return principal, true
}

func requirePermission(w http.ResponseWriter, r *http.Request, tab access.Tab, action access.Action) (access.Principal, bool) {
	principal, ok := principalFromRequest(w, r)
	if !ok {
		return access.Principal{}, false
	}
	if !principal.HasPermission(tab, action) {
		writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "missing permission "+access.Key(tab, action))
		return access.Principal{}, false
	}
	return principal, true
}

func requireRole(w http.ResponseWriter, r *http.Request, role access.Role) (access.Principal, bool) {
	principal, ok := principalFromRequest(w, r)
	if !ok {
		return access.Principal{}, false
	}
	if principal.Role != role {
		writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "only "+string(role)+" users can do this")
		return access.Principal{}, false
	}
	return principal, true
}

func sessionIDFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func isPublicEndpoint(r *http.Request) bool {
	switch {
	case r.Method == http.MethodOptions:
		return true
	case r.URL.Path == "/healthz", r.URL.Path == "/metrics":
		return true
	case r.URL.Path == "/functions/v1/register-customer":
		return true
	case strings.HasPrefix(r.URL.Path, "/api/catalog/"):
		return r.Method == http.MethodGet
	default:
		return false
	}
}
