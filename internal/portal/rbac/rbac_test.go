package rbac

import "testing"

func TestParseRoleIsCaseInsensitive(t *testing.T) {
	tests := map[string]Role{
		"admin":           RoleAdmin,
		"ADMIN":           RoleAdmin,
		"Admin":           RoleAdmin,
		"health_provider": RoleHealthProvider,
		"Health_Provider": RoleHealthProvider,
		"HEALTH_PROVIDER": RoleHealthProvider,
		"user":            RoleUser,
		"patient":         RoleUser,
		"":                RoleUser,
		" admin":          RoleUser,
		"health-provider": RoleUser,
	}
	for raw, want := range tests {
		if got := ParseRole(raw); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestDestinationCoversEveryRole(t *testing.T) {
	want := map[Role]string{
		RoleAdmin:          AdminDashboardPath,
		RoleHealthProvider: HealthProviderDashboardPath,
		RoleUser:           UserProfilePath,
	}
	for _, role := range Roles {
		path, ok := want[role]
		if !ok {
			t.Fatalf("role %q has no expected destination", role)
		}
		if got := Destination(role); got != path {
			t.Errorf("Destination(%q) = %q, want %q", role, got, path)
		}
	}
	if got := Destination(Role("SUPERVISOR")); got != UserProfilePath {
		t.Errorf("expected unknown role to fall back to profile, got %q", got)
	}
}

func TestDestinationFor(t *testing.T) {
	if got := DestinationFor("aDmIn"); got != "/admin/dashboard" {
		t.Fatalf("unexpected admin destination %q", got)
	}
	if got := DestinationFor("health_PROVIDER"); got != "/healthproviders/dashboard" {
		t.Fatalf("unexpected provider destination %q", got)
	}
	if got := DestinationFor(""); got != "/users/profile" {
		t.Fatalf("unexpected default destination %q", got)
	}
}

func TestAllows(t *testing.T) {
	if !Allows(RoleUser) {
		t.Fatalf("empty requirement should admit every role")
	}
	if !Allows(RoleAdmin, RoleAdmin) {
		t.Fatalf("admin should satisfy admin requirement")
	}
	if Allows(RoleUser, RoleAdmin, RoleHealthProvider) {
		t.Fatalf("user should not satisfy restricted requirement")
	}
	if Allows(RoleAdmin, RoleHealthProvider) {
		t.Fatalf("admin should not open provider-only pages")
	}
}
