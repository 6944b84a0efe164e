package models

import (
	"errors"
	"testing"
	"time"
)

func TestItemInput(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		price := int64(450)
		negative := int64(-1)

		tests := []struct {
			name    string
			input   ItemInput
			wantErr bool
		}{
			{"name and price", ItemInput{Name: "Latte", Price: &price}, false},
			{"name only", ItemInput{Name: "Latte"}, false},
			{"missing name", ItemInput{Price: &price}, true},
			{"blank name", ItemInput{Name: "   "}, true},
			{"negative price", ItemInput{Name: "Latte", Price: &negative}, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var v Validator = tt.input
				err := v.Validate()
				if (err != nil) != tt.wantErr {
					t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
				if err != nil && !errors.Is(err, errInvalid) {
					t.Errorf("expected errInvalid, got %v", err)
				}
			})
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if (Session{}).Valid() {
			t.Error("empty session should not be valid")
		}
		if (Session{AccessToken: "  "}).Valid() {
			t.Error("blank token should not be valid")
		}
		if !(Session{AccessToken: "tok"}).Valid() {
			t.Error("session with token should be valid")
		}
	})

	t.Run("Authorization", func(t *testing.T) {
		if got := (Session{AccessToken: "tok"}).Authorization(); got != "Bearer tok" {
			t.Errorf("unexpected header %q", got)
		}
	})

	t.Run("WithMerchant leaves original unchanged", func(t *testing.T) {
		orig := Session{AccessToken: "tok"}
		scoped := orig.WithMerchant("M1")

		if scoped.MerchantID != "M1" || scoped.AccessToken != "tok" {
			t.Errorf("unexpected scoped session %+v", scoped)
		}
		if orig.MerchantID != "" {
			t.Errorf("original session was modified")
		}
	})

	t.Run("from Credential", func(t *testing.T) {
		issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		cred := Credential{AccessToken: "tok", MerchantID: "M1", MerchantResolved: true, IssuedAt: issued}

		sess := cred.Session()
		if sess.AccessToken != "tok" || sess.MerchantID != "M1" || !sess.IssuedAt.Equal(issued) {
			t.Errorf("unexpected session %+v", sess)
		}
	})
}

func TestAddressString(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"empty", Address{}, ""},
		{"full", Address{Address1: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US"}, "1 Main St, Austin, TX, 78701, US"},
		{"skips blanks", Address{City: "Austin", State: " ", Country: "US"}, "Austin, US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimestamps(t *testing.T) {
	if !(Item{}).Modified().IsZero() {
		t.Error("zero modifiedTime should be the zero time")
	}
	if !(Order{}).Created().IsZero() {
		t.Error("zero createdTime should be the zero time")
	}

	got := Order{CreatedTime: 1735689600000}.Created().UTC()
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected created time %v", got)
	}
}
