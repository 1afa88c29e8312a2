package email

import "testing"

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"john@gmail.com", "j***@gmail.com"},
		{"j@example.com", "j***@example.com"},
		{"longusername@domain.co.uk", "l***@domain.co.uk"},
		{"", ""},
		{"not-an-email", "***"},
		{"@example.com", "***@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RedactEmail(tt.input); got != tt.want {
				t.Errorf("RedactEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
