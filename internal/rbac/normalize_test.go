package rbac

import "testing"

func TestNormalizeGroup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"users", "users"},
		{"Billing Ops", "billing_ops"},
		{"  Billing   Ops  ", "billing_ops"},
		{"billing--ops", "billing_ops"},
		{"__users__", "users"},
		{"Üsers", "sers"},
		{"", ""},
		{"   ", ""},
		{"***", ""},
		{"a1 b2", "a1_b2"},
	}
	for _, tc := range cases {
		if got := NormalizeGroup(tc.in); got != tc.want {
			t.Errorf("NormalizeGroup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeGroupIdempotent(t *testing.T) {
	inputs := []string{"Billing Ops", "users", "Support Team", "a-b-c"}
	for _, in := range inputs {
		once := NormalizeGroup(in)
		if twice := NormalizeGroup(once); twice != once {
			t.Errorf("NormalizeGroup not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeAction(t *testing.T) {
	cases := []struct {
		group string
		raw   string
		want  string
	}{
		{"users", "view reports", "users.viewReports"},
		{"roles", "roles.manage users", "roles.manageUsers"},
		{"users", "view", "users.view"},
		{"users", "View-Reports", "users.viewReports"},
		{"users", "view_reports", "users.viewReports"},
		{"users", "assign roles", "users.assignRoles"},
		{"users", "old.group.export csv", "users.exportCsv"},
		{"users", "trailing.", "users.trailing"},
		{"users", "", ""},
		{"users", "   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeAction(tc.group, tc.raw); got != tc.want {
			t.Errorf("NormalizeAction(%q, %q) = %q, want %q", tc.group, tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeActionIdempotent(t *testing.T) {
	got := NormalizeAction("users", "view reports")
	if again := NormalizeAction("users", got); again != got {
		t.Errorf("NormalizeAction not idempotent: %q then %q", got, again)
	}
}

func TestNormalizeRoleName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Support Team Lead", "support-team-lead"},
		{"support-team-lead", "support-team-lead"},
		{"SupportTeamLead", "support-team-lead"},
		{"support_team_lead", "support-team-lead"},
		{"  Support   Team  ", "support-team"},
		{"admin", "admin"},
		{"Admin2", "admin2"},
		{"HTTPTeam", "h-t-t-p-team"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeRoleName(tc.in); got != tc.want {
			t.Errorf("NormalizeRoleName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRoleNameIdempotent(t *testing.T) {
	inputs := []string{"Support Team Lead", "Billing Manager", "SuperAdmin", "ops"}
	for _, in := range inputs {
		once := NormalizeRoleName(in)
		if twice := NormalizeRoleName(once); twice != once {
			t.Errorf("NormalizeRoleName not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
