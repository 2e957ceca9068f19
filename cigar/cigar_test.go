package cigar

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	u, err := Encode(M, 100)
	if err != nil {
		t.Fatal(err)
	}
	op, l := Decode(u)
	if op != M || l != 100 {
		t.Fatalf("got op=%d len=%d, want M,100", op, l)
	}
}

func TestEncodeLenOverflow(t *testing.T) {
	_, err := Encode(M, MaxLen+1)
	if err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	s := "100M5I95M"
	c, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if String(c) != s {
		t.Fatalf("got %q, want %q", String(c), s)
	}
}

func TestParseStringRoundTripOnUnits(t *testing.T) {
	c := CIGAR{}
	u1, _ := Encode(M, 10)
	u2, _ := Encode(I, 3)
	u3, _ := Encode(D, 7)
	c = append(c, u1, u2, u3)

	s := String(c)
	c2, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(c2) != len(c) {
		t.Fatalf("length mismatch after round trip")
	}
	for i := range c {
		if c[i] != c2[i] {
			t.Fatalf("unit %d mismatch: %d vs %d", i, c[i], c2[i])
		}
	}
}

func TestQueryAndRefLength(t *testing.T) {
	c, _ := Parse("4M1I4M") // S3: one-base insertion
	if QueryLength(c) != 9 {
		t.Fatalf("query length = %d, want 9", QueryLength(c))
	}
	if RefLength(c) != 8 {
		t.Fatalf("ref length = %d, want 8", RefLength(c))
	}
}

func TestQueryAndRefLengthDeletion(t *testing.T) {
	c, _ := Parse("3M1D4M") // S4: one-base deletion
	if QueryLength(c) != 7 {
		t.Fatalf("query length = %d, want 7", QueryLength(c))
	}
	if RefLength(c) != 8 {
		t.Fatalf("ref length = %d, want 8", RefLength(c))
	}
}

func TestAppendCoalesces(t *testing.T) {
	u1, _ := Encode(M, 10)
	u2, _ := Encode(M, 5)
	dst := Append(CIGAR{u1}, CIGAR{u2})
	if len(dst) != 1 {
		t.Fatalf("expected coalesced single unit, got %d", len(dst))
	}
	op, l := Decode(dst[0])
	if op != M || l != 15 {
		t.Fatalf("got op=%d len=%d, want M,15", op, l)
	}
}

func TestAppendDoesNotCoalesceDifferentOps(t *testing.T) {
	u1, _ := Encode(M, 10)
	u2, _ := Encode(I, 5)
	dst := Append(CIGAR{u1}, CIGAR{u2})
	if len(dst) != 2 {
		t.Fatalf("expected two units, got %d", len(dst))
	}
}

func TestPadQueryToRefIdempotent(t *testing.T) {
	// S3: reference ACGTACGT, query ACGTTACGT, CIGAR 4M1I4M
	query := []byte("ACGTTACGT")
	c, _ := Parse("4M1I4M")

	once, err := PadQueryToRef(query, c)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := PadQueryToRef(once, c)
	if err != nil {
		t.Fatal(err)
	}
	if string(once) != string(twice) {
		t.Fatalf("PadQueryToRef not idempotent: %q vs %q", once, twice)
	}
}

func TestPadQueryToRefInsertsGapsForDeletion(t *testing.T) {
	// S4: reference ACGTACGT, query ACGACGT, CIGAR 3M1D4M
	query := []byte("ACGACGT")
	c, _ := Parse("3M1D4M")
	padded, err := PadQueryToRef(query, c)
	if err != nil {
		t.Fatal(err)
	}
	want := "ACG-ACGT"
	if string(padded) != want {
		t.Fatalf("got %q, want %q", padded, want)
	}
	if len(padded) != RefLength(c) {
		t.Fatalf("padded length %d != ref length %d", len(padded), RefLength(c))
	}
}

func TestDelQueryToRefRemovesInsertions(t *testing.T) {
	query := []byte("ACGTTACGT")
	c, _ := Parse("4M1I4M")
	stripped, err := DelQueryToRef(query, c)
	if err != nil {
		t.Fatal(err)
	}
	if string(stripped) != "ACGTACGT" {
		t.Fatalf("got %q, want ACGTACGT", stripped)
	}
}

func TestHasOp(t *testing.T) {
	c, _ := Parse("4M1I4M")
	if !HasOp(c, I) {
		t.Fatalf("expected HasOp(I)=true")
	}
	if HasOp(c, D) {
		t.Fatalf("expected HasOp(D)=false")
	}
}
