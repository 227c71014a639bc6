package domain

import (
	"errors"
	"testing"
)

func TestSendRequestValidate(t *testing.T) {
	t.Parallel()

	valid := SendRequest{
		To:      []string{"lead@customer.test"},
		Subject: "Hi",
		HTML:    "<p>Hi</p>",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	textOnly := SendRequest{
		To:      []string{"lead@customer.test"},
		Subject: "Hi",
		Text:    "Hi",
	}
	if err := textOnly.Validate(); err != nil {
		t.Fatalf("Validate() text-only error = %v", err)
	}

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"no recipients", SendRequest{Subject: "s", HTML: "h"}},
		{"blank recipient", SendRequest{To: []string{" "}, Subject: "s", HTML: "h"}},
		{"missing subject", SendRequest{To: []string{"a@b.test"}, HTML: "h"}},
		{"missing body", SendRequest{To: []string{"a@b.test"}, Subject: "s"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if err := tc.req.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseAccountClassFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  AccountClass
	}{
		{"standard", ClassStandard},
		{"STANDARD", ClassStandard},
		{"high_volume", ClassHighVolume},
		{"high-volume", ClassHighVolume},
		{" High_Volume ", ClassHighVolume},
	}
	for _, tc := range tests {
		tc := tc
		got, err := ParseAccountClassFromString(tc.input)
		if err != nil {
			t.Fatalf("ParseAccountClassFromString(%q) error = %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAccountClassFromString(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}

	if _, err := ParseAccountClassFromString("premium"); !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSendingAccountValidate(t *testing.T) {
	t.Parallel()

	valid := SendingAccount{Address: "a@agency.test", Class: ClassStandard, DailyQuota: 500}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name    string
		account SendingAccount
	}{
		{"missing address", SendingAccount{Class: ClassStandard, DailyQuota: 1}},
		{"not an email", SendingAccount{Address: "nope", Class: ClassStandard, DailyQuota: 1}},
		{"invalid class", SendingAccount{Address: "a@b.test", Class: "PREMIUM", DailyQuota: 1}},
		{"zero quota", SendingAccount{Address: "a@b.test", Class: ClassStandard}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if err := tc.account.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSendingAccountDomain(t *testing.T) {
	t.Parallel()

	if got := (SendingAccount{Address: "Ana@Agency.Test"}).Domain(); got != "agency.test" {
		t.Fatalf("Domain() = %s, want agency.test", got)
	}
	if got := (SendingAccount{Address: "broken"}).Domain(); got != "" {
		t.Fatalf("Domain() = %s, want empty", got)
	}
}
