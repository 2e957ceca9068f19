package seed

import "testing"

func TestPackRoundTrip(t *testing.T) {
	h := Pack(0x00FFEEDDCCBBAA, 100, 42, true, 98765)
	if h.Hash() != 0x00FFEEDDCCBBAA {
		t.Fatalf("hash round-trip failed: got %x", h.Hash())
	}
	if h.Span() != 100 {
		t.Fatalf("span round-trip failed: got %d", h.Span())
	}
	if h.Rid() != 42 {
		t.Fatalf("rid round-trip failed: got %d", h.Rid())
	}
	if !h.Strand() {
		t.Fatalf("expected strand=true")
	}
	if h.Pos() != 98765 {
		t.Fatalf("pos round-trip failed: got %d", h.Pos())
	}
}

func TestPackForwardStrand(t *testing.T) {
	h := Pack(7, 10, 1, false, 5)
	if h.Strand() {
		t.Fatalf("expected strand=false")
	}
	if h.Rid() != 1 {
		t.Fatalf("rid mismatch")
	}
}

func TestPackPanicsOnRidOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on rid overflow")
		}
	}()
	Pack(1, 10, MaxRid+1, false, 1)
}

func TestPackPanicsOnSpanOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on span overflow")
		}
	}()
	Pack(1, MaxSpan+1, 1, false, 1)
}

func TestEqualAndLess(t *testing.T) {
	a := Pack(100, 10, 1, false, 5)
	b := Pack(100, 10, 1, false, 5)
	c := Pack(100, 10, 1, false, 6)
	if !a.Equal(b) {
		t.Fatalf("expected equal hits")
	}
	if a.Equal(c) {
		t.Fatalf("expected unequal hits")
	}
	if !a.Less(c) {
		t.Fatalf("expected a < c by pos")
	}
}
