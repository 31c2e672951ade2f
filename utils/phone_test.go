package utils

import "testing"

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"76 12 34 56", "22376123456"},
		{"+223 76 12 34 56", "22376123456"},
		{"0076123456", "22376123456"},
		{"22376123456", "22376123456"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatPhoneNumber(tt.in); got != tt.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"76123456", "66123456", "91234567", "20223344", "51234567", "+223 76 12 34 56"}
	for _, n := range valid {
		if !ValidatePhoneNumber(n) {
			t.Errorf("ValidatePhoneNumber(%q) = false, want true", n)
		}
	}

	invalid := []string{"1234567", "123456789", "86123456", "41234567", "", "abcdefgh"}
	for _, n := range invalid {
		if ValidatePhoneNumber(n) {
			t.Errorf("ValidatePhoneNumber(%q) = true, want false", n)
		}
	}
}

func TestDisplayPhoneNumber(t *testing.T) {
	got := DisplayPhoneNumber("76123456")
	want := "+223 76 12 34 56"
	if got != want {
		t.Errorf("DisplayPhoneNumber = %q, want %q", got, want)
	}
}
