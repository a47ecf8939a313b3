package middleware

import (
	"encoding/base64"
	"testing"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

func TestValidateProductID(t *testing.T) {
	if err := ValidateProductID("SKU-123"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if err := ValidateProductID("  "); err == nil {
		t.Error("blank id accepted")
	}
	if err := ValidateProductID("bad\x00id"); err == nil {
		t.Error("control characters accepted")
	}
}

func TestValidateCategory(t *testing.T) {
	for _, ok := range []string{"watches", "hand bags", "rings_gold", "mens-shoes"} {
		if err := ValidateCategory(ok); err != nil {
			t.Errorf("%q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "   ", "watches; DROP TABLE", "a/b"} {
		if err := ValidateCategory(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestValidateImages(t *testing.T) {
	good := base64.StdEncoding.EncodeToString([]byte("img"))

	if err := ValidateImages(nil); err == nil {
		t.Error("empty image list accepted")
	}
	if err := ValidateImages([]domain.ImageInput{{B64: good}}); err != nil {
		t.Errorf("valid image rejected: %v", err)
	}
	if err := ValidateImages([]domain.ImageInput{{B64: "not base64!!"}}); err == nil {
		t.Error("bad base64 accepted")
	}
	if err := ValidateImages([]domain.ImageInput{{B64: ""}}); err == nil {
		t.Error("empty blob accepted")
	}
}

func TestValidateRunID(t *testing.T) {
	if err := ValidateRunID("2f9a-41bb"); err != nil {
		t.Errorf("valid run id rejected: %v", err)
	}
	for _, bad := range []string{"", "a b", "../etc/passwd"} {
		if err := ValidateRunID(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestValidateLimit(t *testing.T) {
	cases := map[int]int{0: 50, -5: 50, 10: 10, 50: 50, 500: 50}
	for in, want := range cases {
		if got := ValidateLimit(in); got != want {
			t.Errorf("ValidateLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
