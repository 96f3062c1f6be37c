package validate

import (
	"testing"
	"time"

	"clothshop/internal/domain"
)

func TestFieldValidators(t *testing.T) {
	if _, ok := Email("owner@shop.pk"); !ok {
		t.Fatal("valid email rejected")
	}
	if _, ok := Email("not-an-email"); ok {
		t.Fatal("invalid email accepted")
	}
	if !Password("Cloth2024") || Password("short1A") || Password("alllowercase1") {
		t.Fatal("password rules wrong")
	}
	if PasswordsMatch("Cloth2024", "Cloth2025") || PasswordsMatch("", "") || !PasswordsMatch("a", "a") {
		t.Fatal("password confirmation rules wrong")
	}
	if q, ok := Quantity("2.5"); !ok || q != 2.5 {
		t.Fatalf("fractional quantity: %v %v", q, ok)
	}
	for _, bad := range []string{"0", "-1", "x", ""} {
		if _, ok := Quantity(bad); ok {
			t.Fatalf("quantity %q accepted", bad)
		}
	}
	if _, ok := Money("0"); !ok {
		t.Fatal("zero price should be allowed")
	}
	if id, ok := OptionalID(""); !ok || id != 0 {
		t.Fatal("empty optional id should be zero")
	}
	if _, ok := ID("0"); ok {
		t.Fatal("id 0 accepted")
	}
	if _, ok := Phone(""); !ok {
		t.Fatal("phone is optional")
	}
	if _, ok := Phone("call me"); ok {
		t.Fatal("bad phone accepted")
	}
}

func TestEnums(t *testing.T) {
	if st, ok := StockType("new"); !ok || st != domain.StockNew {
		t.Fatal("stock type new rejected")
	}
	if _, ok := StockType("used"); ok {
		t.Fatal("unknown stock type accepted")
	}
	if _, ok := PaymentStatus("partial"); !ok {
		t.Fatal("partial rejected")
	}
	if _, ok := Unit("yards"); !ok {
		t.Fatal("yards rejected")
	}
	if _, ok := Unit("kg"); ok {
		t.Fatal("kg accepted")
	}
}

func TestDateAndDays(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d, ok := Date("", now)
	if !ok || !d.Equal(now) {
		t.Fatalf("empty date should default to now, got %v", d)
	}
	d, ok = Date("2024-04-30", now)
	if !ok || d.String() != "2024-04-30" {
		t.Fatalf("parsed date %v", d)
	}
	if _, ok := Date("30/04/2024", now); ok {
		t.Fatal("foreign date layout accepted")
	}
	if Days("", 7) != 7 || Days("500", 7) != 90 || Days("14", 7) != 14 {
		t.Fatal("days clamp wrong")
	}
}

func TestNonFiniteNumbersRejected(t *testing.T) {
	for _, bad := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity"} {
		if _, ok := Quantity(bad); ok {
			t.Fatalf("quantity %q accepted", bad)
		}
		if _, ok := Money(bad); ok {
			t.Fatalf("money %q accepted", bad)
		}
	}
}
