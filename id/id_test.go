package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/passage/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"EventID", id.NewEventID, "evt_"},
		{"PaymentID", id.NewPaymentID, "pay_"},
		{"WithdrawalID", id.NewWithdrawalID, "wdr_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixEvent)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixEvent {
		t.Errorf("expected prefix %q, got %q", id.PrefixEvent, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"EventID", id.NewEventID, id.ParseEventID},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID},
		{"WithdrawalID", id.NewWithdrawalID, id.ParseWithdrawalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	evt := id.NewEventID()

	if _, err := id.ParsePaymentID(evt.String()); err == nil {
		t.Error("expected error parsing event ID as payment ID")
	}
	if _, err := id.ParseWithdrawalID(evt.String()); err == nil {
		t.Error("expected error parsing event ID as withdrawal ID")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not a typeid"},
		{"bare prefix", "evt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.input); err == nil {
				t.Errorf("expected error for %q", tt.input)
			}
		})
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID

	if !nilID.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID string should be empty, got %q", nilID.String())
	}
	if nilID.Prefix() != "" {
		t.Errorf("nil ID prefix should be empty, got %q", nilID.Prefix())
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	original := id.NewWithdrawalID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}

	if decoded.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}
}

func TestScan(t *testing.T) {
	original := id.NewPaymentID()

	var fromString id.ID
	if err := fromString.Scan(original.String()); err != nil {
		t.Fatal(err)
	}
	if fromString.String() != original.String() {
		t.Errorf("scan from string mismatch: %q != %q", fromString.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Error("scan from nil should yield nil ID")
	}

	var fromInt id.ID
	if err := fromInt.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
