package domain

import "testing"

func TestIsEmailValid(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"reader@example.com", true},
		{"a@b.co", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"two@@example.com", false},
		{"with space@example.com", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.email, func(t *testing.T) {
			if got := IsEmailValid(tc.email); got != tc.want {
				t.Fatalf("IsEmailValid(%q) = %v, want %v", tc.email, got, tc.want)
			}
		})
	}
}

func TestBuyerInfoValidate(t *testing.T) {
	if reasons := (BuyerInfo{}).Validate(); len(reasons) != 1 || reasons[0] != ReasonEmailMissing {
		t.Fatalf("expected email-missing, got %v", reasons)
	}
	if reasons := (BuyerInfo{Email: "nope"}).Validate(); len(reasons) != 1 || reasons[0] != ReasonEmailInvalid {
		t.Fatalf("expected email-invalid, got %v", reasons)
	}
	if reasons := (BuyerInfo{Email: " reader@example.com "}).Validate(); len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentMethodCard, PaymentMethodWalletVodafone, PaymentMethodWalletInstapay} {
		if !m.Valid() {
			t.Fatalf("%s must be valid", m)
		}
	}
	if PaymentMethod("cash").Valid() {
		t.Fatal("cash must be invalid")
	}
}
