package access

import (
	"testing"

	"github.com/souqly/souqly-backend/pkg/enums"
)

func TestAllowedPerRole(t *testing.T) {
	cases := []struct {
		name string
		role enums.UserRole
		perm Permission
		want bool
	}{
		{"client places orders", enums.UserRoleClient, PermOrderPlace, true},
		{"client cannot manage products", enums.UserRoleClient, PermProductManage, false},
		{"client cannot accept deliveries", enums.UserRoleClient, PermDeliveryAccept, false},
		{"merchant manages products", enums.UserRoleMerchant, PermProductManage, true},
		{"merchant writes promotions", enums.UserRoleMerchant, PermPromotionWrite, true},
		{"merchant cannot accept deliveries", enums.UserRoleMerchant, PermDeliveryAccept, false},
		{"livreur accepts deliveries", enums.UserRoleLivreur, PermDeliveryAccept, true},
		{"livreur cannot place orders", enums.UserRoleLivreur, PermOrderPlace, false},
		{"support manages tickets", enums.UserRoleSupport, PermTicketManage, true},
		{"support cannot write promotions", enums.UserRoleSupport, PermPromotionWrite, false},
		{"admin holds everything", enums.UserRoleAdmin, PermDeliveryDelete, true},
		{"unknown role denied", enums.UserRole("ghost"), PermOrderRead, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allowed(tc.role, tc.perm); got != tc.want {
				t.Fatalf("Allowed(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
			}
		})
	}
}

func TestAllowedIsDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		if !Allowed(enums.UserRoleLivreur, PermDeliveryAccept) {
			t.Fatal("expected stable grant across repeated calls")
		}
		if Allowed(enums.UserRoleClient, PermTicketManage) {
			t.Fatal("expected stable denial across repeated calls")
		}
	}
}

func TestPermissionsForReturnsCopy(t *testing.T) {
	perms := PermissionsFor(enums.UserRoleClient)
	if len(perms) == 0 {
		t.Fatal("expected client permissions")
	}
	perms[0] = Permission("mutated")
	again := PermissionsFor(enums.UserRoleClient)
	if again[0] == Permission("mutated") {
		t.Fatal("PermissionsFor must not expose internal state")
	}
}

func TestAdminPermissionsCoverAllRoles(t *testing.T) {
	adminPerms := map[Permission]struct{}{}
	for _, p := range PermissionsFor(enums.UserRoleAdmin) {
		adminPerms[p] = struct{}{}
	}
	for _, role := range []enums.UserRole{enums.UserRoleClient, enums.UserRoleMerchant, enums.UserRoleLivreur, enums.UserRoleSupport} {
		for _, p := range PermissionsFor(role) {
			if _, ok := adminPerms[p]; !ok {
				t.Fatalf("admin missing %s granted to %s", p, role)
			}
		}
	}
}
