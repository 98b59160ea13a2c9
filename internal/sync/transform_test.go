package sync

import (
	"testing"
	"time"
)

func TestNormalizeChoice(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `[]`},
		{"scalar", "Roofing", `["Roofing"]`},
		{"delimited", "Roofing; Siding ;Windows", `["Roofing","Siding","Windows"]`},
		{"delimited with empties", "Roofing;;", `["Roofing"]`},
		{"native list", `["A","B"]`, `["A","B"]`},
		{"native list with blanks", `["A","  ",""]`, `["A"]`},
		{"unparseable bracket string", `[not json`, `["[not json"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := string(NormalizeChoice(tc.in))
			if got != tc.want {
				t.Fatalf("NormalizeChoice(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseSourceTime(t *testing.T) {
	if got := ParseSourceTime(""); got != nil {
		t.Fatalf("empty should be nil, got %v", got)
	}
	if got := ParseSourceTime("not a date"); got != nil {
		t.Fatalf("garbage should be nil, got %v", got)
	}

	got := ParseSourceTime("1700000000000")
	if got == nil || !got.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("epoch millis parse failed: %v", got)
	}

	for _, raw := range []string{
		"2026-05-01T09:30:00.000Z",
		"2026-05-01T09:30:00Z",
		"2026-05-01T09:30:00",
	} {
		got := ParseSourceTime(raw)
		want := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Fatalf("ParseSourceTime(%q) = %v, want %v", raw, got, want)
		}
	}

	day := ParseSourceTime("2026-05-01")
	if day == nil || !day.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only parse failed: %v", day)
	}
}

func TestParseFloatPtr(t *testing.T) {
	if got := ParseFloatPtr(""); got != nil {
		t.Fatalf("empty should be nil")
	}
	if got := ParseFloatPtr("12a"); got != nil {
		t.Fatalf("garbage should be nil")
	}
	if got := ParseFloatPtr(" 125000.50 "); got == nil || *got != 125000.50 {
		t.Fatalf("unexpected: %v", got)
	}
}

func TestParseIntPtr(t *testing.T) {
	if got := ParseIntPtr(""); got != nil {
		t.Fatalf("empty should be nil")
	}
	if got := ParseIntPtr("abc"); got != nil {
		t.Fatalf("garbage should be nil")
	}
	if got := ParseIntPtr("42"); got == nil || *got != 42 {
		t.Fatalf("unexpected: %v", got)
	}
	if got := ParseIntPtr("42.9"); got == nil || *got != 42 {
		t.Fatalf("decimal should truncate: %v", got)
	}
}

func TestMillisToTime(t *testing.T) {
	if got := MillisToTime(0); got != nil {
		t.Fatalf("zero should be nil")
	}
	got := MillisToTime(1700000000000)
	if got == nil || !got.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("unexpected: %v", got)
	}
}
