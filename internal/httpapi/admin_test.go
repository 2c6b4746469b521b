package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/store"
)

func TestMyPermissionsForAdmin(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("staff.view", "bookings.edit", "bookings.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/me/permissions", nil, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Permissions) != 3 {
		t.Fatalf("expected 3 permissions, got %v", body.Permissions)
	}
	if len(body.Tabs) != 2 || body.Tabs[0] != "bookings" || body.Tabs[1] != "staff" {
		t.Fatalf("unexpected tabs: %v", body.Tabs)
	}
}

func TestMyPermissionsForSuperAdmin(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := access.NewPrincipal(adminID, "", access.RoleSuperAdmin)
	resp := serve(h, newRequest(t, http.MethodGet, "/api/me/permissions", nil, &p))

	var body permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Permissions) != len(access.AllKeys()) {
		t.Fatalf("expected every key, got %d", len(body.Permissions))
	}
}

func TestMyPermissionsForCustomer(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := customer()
	resp := serve(h, newRequest(t, http.MethodGet, "/api/me/permissions", nil, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Permissions) != 0 || len(body.Tabs) != 0 {
		t.Fatalf("customer must hold no permissions: %+v", body)
	}
}

func TestPermissionKeysRequireSettingsView(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	denied := admin("bookings.view")
	if resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/permission-keys", nil, &denied)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	allowed := admin("settings.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/permission-keys", nil, &allowed))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var keys []permissionKey
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(keys) != len(access.Tabs)*len(access.Actions) {
		t.Fatalf("expected %d keys, got %d", len(access.Tabs)*len(access.Actions), len(keys))
	}
}

func TestSetUserPermissions(t *testing.T) {
	var gotUser string
	var gotKeys []string
	st := fakeStore{
		setPermissionsFn: func(ctx context.Context, userID string, keys []string) error {
			gotUser = userID
			gotKeys = keys
			return nil
		},
	}
	h := NewHandler(st, Options{})

	p := admin("settings.edit")
	req := newRequest(t, http.MethodPut, "/api/admin/users/"+staffID+"/permissions", map[string]interface{}{
		"permissions": []string{"bookings.view", "bookings.view", "staff.edit"},
	}, &p)
	resp := serve(h, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotUser != staffID || len(gotKeys) != 3 {
		t.Fatalf("unexpected store call: %s %v", gotUser, gotKeys)
	}
	var body permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Permissions) != 2 {
		t.Fatalf("expected normalized keys, got %v", body.Permissions)
	}
}

func TestSetUserPermissionsInvalidKey(t *testing.T) {
	st := fakeStore{
		setPermissionsFn: func(ctx context.Context, userID string, keys []string) error {
			return store.Validation("set permissions", "unknown permission key %q", "bookings.fly")
		},
	}
	h := NewHandler(st, Options{})

	p := admin("settings.edit")
	req := newRequest(t, http.MethodPut, "/api/admin/users/"+staffID+"/permissions", map[string]interface{}{
		"permissions": []string{"bookings.fly"},
	}, &p)
	resp := serve(h, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestSetUserPermissionsRequiresSettingsEdit(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("settings.view")
	req := newRequest(t, http.MethodPut, "/api/admin/users/"+staffID+"/permissions", map[string]interface{}{
		"permissions": []string{},
	}, &p)
	resp := serve(h, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestGetUserPermissions(t *testing.T) {
	st := fakeStore{
		permissionsFn: func(ctx context.Context, userID string) ([]string, error) {
			return []string{"bookings.view"}, nil
		},
	}
	h := NewHandler(st, Options{})

	p := admin("settings.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/users/"+staffID+"/permissions", nil, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestUpdateUserRole(t *testing.T) {
	var gotRole access.Role
	st := fakeStore{
		updateRoleFn: func(ctx context.Context, userID string, role access.Role) error {
			gotRole = role
			return nil
		},
	}
	h := NewHandler(st, Options{})

	p := admin("settings.edit")
	resp := serve(h, newRequest(t, http.MethodPut, "/api/admin/users/"+staffID+"/role", map[string]string{"role": "Staff"}, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotRole != access.RoleStaff {
		t.Fatalf("expected staff role, got %q", gotRole)
	}
}

func TestUpdateUserRoleValidation(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("settings.edit")
	resp := serve(h, newRequest(t, http.MethodPut, "/api/admin/users/"+staffID+"/role", map[string]string{"role": "owner"}, &p))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	resp = serve(h, newRequest(t, http.MethodPut, "/api/admin/users/"+staffID+"/role", map[string]string{"role": "super_admin"}, &p))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for super_admin grant by admin, got %d", resp.Code)
	}
}

func TestAdminUsersUnknownRoute(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("settings.edit")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/users/"+staffID+"/sessions", nil, &p))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
