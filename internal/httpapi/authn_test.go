package httpapi

import "testing"

func TestExtractBearerCredential(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"  Bearer   abc  ", "abc", false},
		{"", "", true},
		{"Bearer ", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"abc.def.ghi", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerCredential(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/auth/login", "/auth/register", "/auth/refresh", "/auth/logout", "/healthz", "/readyz", "/metrics", "/v1/info"}
	for _, p := range public {
		if !isPublicPath(p) {
			t.Fatalf("expected %q public", p)
		}
	}
	private := []string{"/auth/me", "/accounts", "/accounts/abc", "/accounts/abc/password"}
	for _, p := range private {
		if isPublicPath(p) {
			t.Fatalf("expected %q private", p)
		}
	}
}
