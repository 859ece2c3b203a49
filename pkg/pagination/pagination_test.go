package pagination

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor(Cursor{ID: 981})
	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got == nil || got.ID != 981 {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should mean first page, got %+v %v", c, err)
	}
	for _, raw := range []string{"!!!", EncodeCursor(Cursor{ID: 0}), "aWQ6eA"} {
		if _, err := ParseCursor(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(500) != MaxLimit || NormalizeLimit(10) != 10 {
		t.Fatal("unexpected normalization")
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatal("expected buffered limit")
	}
}
