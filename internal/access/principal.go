package access

import "context"

// Principal is the caller identity resolved for one request.
type Principal struct {
	UserID string
	Email  string
	Role   Role

	grants map[string]struct{}
	loaded bool
}

func NewPrincipal(userID, email string, role Role) Principal {
	return Principal{UserID: userID, Email: email, Role: role}
}

// WithGrants returns a copy carrying a loaded grant set. Until this is
// called an admin principal holds no permissions.
func (p Principal) WithGrants(keys []string) Principal {
	grants := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		grants[key] = struct{}{}
	}
	p.grants = grants
	p.loaded = true
	return p
}

func (p Principal) GrantsLoaded() bool {
	return p.loaded
}

func (p Principal) HasPermission(tab Tab, action Action) bool {
	switch p.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		if !p.loaded {
			return false
		}
		_, ok := p.grants[Key(tab, action)]
		return ok
	default:
		return false
	}
}

func (p Principal) CanViewTab(tab Tab) bool {
	return p.HasPermission(tab, ActionView)
}

// Permissions lists the effective keys, every key for super admins.
func (p Principal) Permissions() []string {
	var keys []string
	for _, key := range AllKeys() {
		tab, action, _ := ParseKey(key)
		if p.HasPermission(tab, action) {
			keys = append(keys, key)
		}
	}
	return keys
}

type principalKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	value := ctx.Value(principalKey{})
	if value == nil {
		return Principal{}, false
	}
	p, ok := value.(Principal)
	return p, ok
}
