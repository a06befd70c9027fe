package complex

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	cases := []struct{ from, size int }{
		{0, 20}, {40, 20}, {1000, 100},
	}
	for _, c := range cases {
		encoded := encodeCursor(c.from, c.size)
		from, size, err := decodeCursor(encoded)
		if err != nil {
			t.Fatalf("decodeCursor(%q): unexpected error: %v", encoded, err)
		}
		if from != c.from || size != c.size {
			t.Errorf("round trip: want from=%d size=%d, got from=%d size=%d", c.from, c.size, from, size)
		}
	}
}

func TestDecodeCursor_Empty(t *testing.T) {
	from, size, err := decodeCursor("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != 0 || size != 0 {
		t.Errorf("want from=0 size=0 for empty cursor, got from=%d size=%d", from, size)
	}
}

func TestDecodeCursor_Undecodable(t *testing.T) {
	if _, _, err := decodeCursor("not-valid-base64!!"); err == nil {
		t.Fatal("expected error for undecodable cursor")
	}
}
