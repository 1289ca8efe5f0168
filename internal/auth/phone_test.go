package auth

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+998 90 123-45-67", "+998901234567"},
		{"998901234567", "998901234567"},
		{"  +7 (900) 000 11 22 ", "+79000001122"},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
