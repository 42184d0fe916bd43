package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 50, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC),
		ID:        uuid.New(),
	}

	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	got, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v", got)
	}
}

func TestParseCursorInvalid(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := ParseCursor("aGVsbG8="); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
