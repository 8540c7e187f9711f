package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc", "abc", true},
		{"", "", false},
		{"Basic dXNlcjpwdw==", "", false},
		{"Bearer ", "", false},
		{"Bear", "", false},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("extractBearerToken(%q) = %q, %v", tc.header, got, err)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, p := range []string{"/users", "/token", "/healthz", "/readyz", "/metrics"} {
		if !isPublicPath(p) {
			t.Fatalf("%s should be public", p)
		}
	}
	for _, p := range []string{"/phonebook/list", "/audit-logs", "/logout", "/", "/users/", "/users/extra"} {
		if isPublicPath(p) {
			t.Fatalf("%s should require auth", p)
		}
	}
}
