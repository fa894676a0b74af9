package db

import (
	"testing"
	"time"
)

func TestBoolEncoding(t *testing.T) {
	if EncodeBool(true) != 1 || EncodeBool(false) != 0 {
		t.Error("bool encoding is not 0/1")
	}
	if !DecodeBool(1) || DecodeBool(0) {
		t.Error("bool decoding mismatch")
	}
	// Any non-zero value counts as set.
	if !DecodeBool(2) {
		t.Error("non-zero flag decoded as false")
	}
}

func TestStringListEncoding(t *testing.T) {
	if got := EncodeStringList(nil); got != "[]" {
		t.Errorf("empty list encoded as %q", got)
	}
	if got := EncodeStringList([]string{}); got != "[]" {
		t.Errorf("zero-length list encoded as %q", got)
	}

	blob := EncodeStringList([]string{"diabetes", "hypertension"})
	items := DecodeStringList(blob)
	if len(items) != 2 || items[0] != "diabetes" || items[1] != "hypertension" {
		t.Errorf("round trip = %v", items)
	}

	if DecodeStringList("") != nil {
		t.Error("empty blob should decode to nil")
	}
	if DecodeStringList("[]") != nil {
		t.Error("empty JSON list should decode to nil")
	}
	if DecodeStringList("not json") != nil {
		t.Error("garbage blob should decode to nil")
	}
}

func TestTimeEncoding(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	orig := time.Date(2026, 5, 14, 10, 30, 45, 123456789, loc)

	got := DecodeTime(EncodeTime(orig))
	if !got.Equal(orig) {
		t.Errorf("round trip lost the instant: %v != %v", got, orig)
	}
	if got.Location() != time.UTC {
		t.Errorf("decoded time not UTC: %v", got.Location())
	}

	if !DecodeTime("garbage").IsZero() {
		t.Error("unparseable timestamp should decode to zero time")
	}
}
