package access

import "github.com/souqly/souqly-backend/pkg/enums"

// Permission names a single guarded capability.
type Permission string

const (
	PermOrderPlace       Permission = "order:place"
	PermOrderRead        Permission = "order:read"
	PermOrderUpdate      Permission = "order:update"
	PermOrderCancel      Permission = "order:cancel"
	PermProductManage    Permission = "product:manage"
	PermProductRead      Permission = "product:read"
	PermPromotionRead    Permission = "promotion:read"
	PermPromotionWrite   Permission = "promotion:write"
	PermDeliveryRead     Permission = "delivery:read"
	PermDeliveryDispatch Permission = "delivery:dispatch"
	PermDeliveryAccept   Permission = "delivery:accept"
	PermDeliveryUpdate   Permission = "delivery:update"
	PermDeliveryDelete   Permission = "delivery:delete"
	PermCourierSelf      Permission = "courier:self"
	PermTicketOpen       Permission = "ticket:open"
	PermTicketManage     Permission = "ticket:manage"
	PermNotifyRead       Permission = "notification:read"
	PermUserManage       Permission = "user:manage"
)

// rolePermissions is the static authorization table. Admin is handled in Allowed
// and holds every permission.
var rolePermissions = map[enums.UserRole][]Permission{
	enums.UserRoleClient: {
		PermOrderPlace,
		PermOrderRead,
		PermOrderCancel,
		PermProductRead,
		PermPromotionRead,
		PermTicketOpen,
		PermNotifyRead,
	},
	enums.UserRoleMerchant: {
		PermOrderRead,
		PermOrderUpdate,
		PermOrderCancel,
		PermProductManage,
		PermProductRead,
		PermPromotionRead,
		PermPromotionWrite,
		PermDeliveryRead,
		PermDeliveryDispatch,
		PermNotifyRead,
	},
	enums.UserRoleLivreur: {
		PermDeliveryRead,
		PermDeliveryAccept,
		PermDeliveryUpdate,
		PermCourierSelf,
		PermNotifyRead,
	},
	enums.UserRoleSupport: {
		PermOrderRead,
		PermTicketOpen,
		PermTicketManage,
		PermNotifyRead,
	},
}

// Allowed reports whether the role holds the permission. The check is a pure
// lookup with no persistence behind it.
func Allowed(role enums.UserRole, perm Permission) bool {
	if role == enums.UserRoleAdmin {
		return true
	}
	for _, candidate := range rolePermissions[role] {
		if candidate == perm {
			return true
		}
	}
	return false
}

// PermissionsFor returns a copy of the permission list granted to the role.
func PermissionsFor(role enums.UserRole) []Permission {
	if role == enums.UserRoleAdmin {
		all := make([]Permission, 0)
		seen := map[Permission]struct{}{}
		for _, perms := range rolePermissions {
			for _, p := range perms {
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				all = append(all, p)
			}
		}
		return all
	}
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
