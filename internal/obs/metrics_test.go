package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/metrics":                     "/metrics",
		"/auth/login":                  "/auth/login",
		"/auth/me":                     "/auth/me",
		"/accounts":                    "/accounts",
		"/accounts/01ABC":              "/accounts/:id",
		"/accounts/01ABC/password":     "/accounts/:id/password",
		"/accounts/01ABC/extra":        "/accounts/01ABC/extra",
		"/accounts/01ABC?role=manager": "/accounts/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
