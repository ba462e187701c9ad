package pagination

import (
	"errors"
	"testing"
)

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := []struct {
		in   int
		want int
	}{
		{0, 20},
		{-3, 20},
		{5, 5},
		{500, 100},
	}
	for _, tc := range tests {
		if got := ClampPageSize(tc.in, cfg); got != tc.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}

func TestParsePageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 10, Max: 50}
	if got, err := ParsePageSize("", cfg); err != nil || got != 10 {
		t.Fatalf("blank = %d, %v", got, err)
	}
	if got, err := ParsePageSize(" 60 ", cfg); err != nil || got != 50 {
		t.Fatalf("60 = %d, %v", got, err)
	}
	if _, err := ParsePageSize("ten", cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOrderBy(t *testing.T) {
	cfg := OrderByConfig{Default: "seq desc", Allowed: []string{"seq", "seq desc"}}
	if got, err := NormalizeOrderBy("", cfg); err != nil || got != "seq desc" {
		t.Fatalf("default = %q, %v", got, err)
	}
	if got, err := NormalizeOrderBy("seq", cfg); err != nil || got != "seq" {
		t.Fatalf("seq = %q, %v", got, err)
	}
	if _, err := NormalizeOrderBy("rolled_at", cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	in := Cursor{Seq: 42, OrderBy: "seq desc", Filter: `kind = "rouse"`}
	out, err := DecodeToken(EncodeToken(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("cursor = %+v, want %+v", out, in)
	}
	if !out.Matches("seq desc", `kind = "rouse"`) || out.Matches("seq", "") {
		t.Fatal("unexpected Matches result")
	}
}

func TestDecodeToken(t *testing.T) {
	c, err := DecodeToken("")
	if err != nil || c != (Cursor{}) {
		t.Fatalf("empty token = %+v, %v", c, err)
	}
	for _, token := range []string{"%%%", "bm90LWpzb24"} {
		if _, err := DecodeToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("DecodeToken(%q) err = %v", token, err)
		}
	}
}
