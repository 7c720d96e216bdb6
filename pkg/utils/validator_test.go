package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"ana@acme.com", "first.last+tag@sub.example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", e, err)
		}
	}

	invalid := []string{"", "not-an-email", "a@b", "a b@c.com"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", e)
		}
	}
}

func TestValidateCurrencyCode(t *testing.T) {
	if err := ValidateCurrencyCode("USD"); err != nil {
		t.Errorf("ValidateCurrencyCode(USD) = %v, want nil", err)
	}
	for _, code := range []string{"", "usd", "US", "USDX"} {
		if err := ValidateCurrencyCode(code); err == nil {
			t.Errorf("ValidateCurrencyCode(%q) = nil, want error", code)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(12.50); err != nil {
		t.Errorf("ValidateAmount(12.50) = %v, want nil", err)
	}
	for _, a := range []float64{0, -1} {
		if err := ValidateAmount(a); err == nil {
			t.Errorf("ValidateAmount(%v) = nil, want error", a)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("taxi\x00 to airport\x1f")
	want := "taxi to airport"
	if got != want {
		t.Errorf("SanitizeString = %q, want %q", got, want)
	}
}
