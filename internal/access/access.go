// Package access implements the role model and the per-tab permission gate
// used for administrative actions.
package access

import (
	"sort"
	"strings"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

type Tab string

const (
	TabDashboard      Tab = "dashboard"
	TabBookings       Tab = "bookings"
	TabStaff          Tab = "staff"
	TabPackages       Tab = "packages"
	TabAddons         Tab = "addons"
	TabCustomFeatures Tab = "custom_features"
	TabPanchayaths    Tab = "panchayaths"
	TabSettings       Tab = "settings"
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var (
	Tabs    = []Tab{TabDashboard, TabBookings, TabStaff, TabPackages, TabAddons, TabCustomFeatures, TabPanchayaths, TabSettings}
	Actions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}
)

func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleStaff:
		return RoleStaff, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	default:
		return "", false
	}
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Key builds the stored permission key "<tab>.<action>".
func Key(tab Tab, action Action) string {
	return string(tab) + "." + string(action)
}

// ParseKey splits a stored key and reports whether both halves are known.
func ParseKey(key string) (Tab, Action, bool) {
	tab, action, found := strings.Cut(key, ".")
	if !found {
		return "", "", false
	}
	if !knownTab(Tab(tab)) || !knownAction(Action(action)) {
		return "", "", false
	}
	return Tab(tab), Action(action), true
}

// AllKeys lists every tab/action combination in catalogue order.
func AllKeys() []string {
	keys := make([]string, 0, len(Tabs)*len(Actions))
	for _, tab := range Tabs {
		for _, action := range Actions {
			keys = append(keys, Key(tab, action))
		}
	}
	return keys
}

// NormalizeKeys trims, de-duplicates and sorts keys. The second return value
// holds the keys that do not parse.
func NormalizeKeys(keys []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(keys))
	var valid, invalid []string
	for _, raw := range keys {
		key := strings.TrimSpace(raw)
		if _, _, ok := ParseKey(key); !ok {
			invalid = append(invalid, raw)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, key)
	}
	sort.Strings(valid)
	return valid, invalid
}

func knownTab(tab Tab) bool {
	for _, t := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

func knownAction(action Action) bool {
	for _, a := range Actions {
		if a == action {
			return true
		}
	}
	return false
}
