package httpapi

import (
	"net/http"
	"strings"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/models"

	"go.uber.org/zap"
)

type permissionsResponse struct {
	UserID      string   `json:"user_id"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
	Tabs        []string `json:"tabs,omitempty"`
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type permissionKey struct {
	Key    string `json:"key"`
	Tab    string `json:"tab"`
	Action string `json:"action"`
}

func (h *Handler) handleMyPermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	principal, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	permissions := principal.Permissions()
	if permissions == nil {
		permissions = []string{}
	}
	var tabs []string
	for _, tab := range access.Tabs {
		if principal.CanViewTab(tab) {
			tabs = append(tabs, string(tab))
		}
	}
	writeJSON(w, http.StatusOK, permissionsResponse{
		UserID:      principal.UserID,
		Role:        string(principal.Role),
		Permissions: permissions,
		Tabs:        tabs,
	})
}

func (h *Handler) handlePermissionKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requirePermission(w, r, access.TabSettings, access.ActionView); !ok {
		return
	}
	keys := make([]permissionKey, 0, len(access.Tabs)*len(access.Actions))
	for _, key := range access.AllKeys() {
		tab, action, _ := access.ParseKey(key)
		keys = append(keys, permissionKey{Key: key, Tab: string(tab), Action: string(action)})
	}
	writeJSON(w, http.StatusOK, keys)
}

// handleAdminUsers serves /api/admin/users/{id}/permissions and
// /api/admin/users/{id}/role.
func (h *Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID := parts[0]
	if !isValidUUID(userID) {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "user_id must be a UUID")
		return
	}
	switch parts[1] {
	case "permissions":
		switch r.Method {
		case http.MethodGet:
			h.handleGetUserPermissions(w, r, userID)
		case http.MethodPut:
			h.handleSetUserPermissions(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "role":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleUpdateUserRole(w, r, userID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetUserPermissions(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := requirePermission(w, r, access.TabSettings, access.ActionView); !ok {
		return
	}
	keys, err := h.store.ListPermissions(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, permissionsResponse{UserID: userID, Permissions: keys})
}

func (h *Handler) handleSetUserPermissions(w http.ResponseWriter, r *http.Request, userID string) {
	principal, ok := requirePermission(w, r, access.TabSettings, access.ActionEdit)
	if !ok {
		return
	}
	var req setPermissionsRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	if req.Permissions == nil {
		req.Permissions = []string{}
	}
	if err := h.store.SetPermissions(r.Context(), userID, req.Permissions); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	keys, _ := access.NormalizeKeys(req.Permissions)
	if keys == nil {
		keys = []string{}
	}
	h.logger.Info("permissions replaced",
		zap.String("user_id", userID),
		zap.String("actor_id", principal.UserID),
		zap.Int("count", len(keys)),
	)
	writeJSON(w, http.StatusOK, permissionsResponse{UserID: userID, Permissions: keys})
}

func (h *Handler) handleUpdateUserRole(w http.ResponseWriter, r *http.Request, userID string) {
	principal, ok := requirePermission(w, r, access.TabSettings, access.ActionEdit)
	if !ok {
		return
	}
	var req updateRoleRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	role, valid := access.ParseRole(req.Role)
	if !valid {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "role must be one of customer, staff, admin, super_admin")
		return
	}
	if role == access.RoleSuperAdmin && principal.Role != access.RoleSuperAdmin {
		writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "only super admins can grant super_admin")
		return
	}
	if err := h.store.UpdateUserRole(r.Context(), userID, role); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logger.Info("role updated",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("actor_id", principal.UserID),
	)
	writeJSON(w, http.StatusOK, models.UserRole{UserID: userID, Role: string(role)})
}
