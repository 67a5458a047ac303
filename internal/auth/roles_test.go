package auth

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":   RoleAdmin,
		"Manager": RoleManager,
		" staff ": RoleStaff,
		"USER":    RoleUser,
	}
	for input, expected := range cases {
		role, err := ParseRole(input)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", input, err)
		}
		if role != expected {
			t.Fatalf("ParseRole(%q)=%v, want %v", input, role, expected)
		}
	}
	for _, input := range []string{"", "owner", "root", "administrator"} {
		if _, err := ParseRole(input); err == nil {
			t.Fatalf("expected ParseRole(%q) to fail", input)
		}
	}
}

func TestRolePermissions(t *testing.T) {
	if !RoleAdmin.Allowed(PermAccountsAdmin) {
		t.Fatal("admin must hold accounts.admin")
	}
	if RoleManager.Allowed(PermAccountsAdmin) {
		t.Fatal("manager must not hold accounts.admin")
	}
	if !RoleManager.Allowed(PermAccountsRead) {
		t.Fatal("manager must hold accounts.read")
	}
	if RoleStaff.Allowed(PermAccountsRead) {
		t.Fatal("staff must not hold accounts.read")
	}
	if !RoleStaff.Allowed(PermOrdersManage) {
		t.Fatal("staff must hold orders.manage")
	}
	if RoleUser.Allowed(PermOrdersManage) {
		t.Fatal("user holds no permissions")
	}
	if Role("owner").Allowed(PermAccountsRead) {
		t.Fatal("unknown role must hold nothing")
	}
}
