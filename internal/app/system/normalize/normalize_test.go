package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  Manager@Test.Com  ", "manager@test.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Awa Diallo", "Awa Diallo"},
		{"  Awa   Diallo  ", "Awa Diallo"},
		{"", ""},
		{"JEAN DUPONT", "JEAN DUPONT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+33 6 12 34 56 78", "+33612345678"},
		{"06.12.34.56.78", "0612345678"},
		{"237-699-000-111", "237699000111"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Phone(tt.input); got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCode_PreservesCase(t *testing.T) {
	if got := Code("  AbC234 "); got != "AbC234" {
		t.Errorf("Code() = %q, want %q", got, "AbC234")
	}
}
