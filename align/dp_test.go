package align

import (
	"testing"

	"github.com/viralign/viralign/cigar"
)

func TestDPGlobalAlignExactMatch(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	ref := []byte("ACGTACGT")
	query := []byte("ACGTACGT")
	c, err := a.GlobalAlign(ref, query)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 1 {
		t.Fatalf("expected single M run, got %d units", len(c))
	}
	op, l := cigar.Decode(c[0])
	if op != cigar.M || l != 8 {
		t.Fatalf("got op=%d len=%d, want M,8", op, l)
	}
}

func TestDPGlobalAlignInsertion(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	ref := []byte("ACGTACGT")
	query := []byte("ACGTTACGT") // S3
	c, err := a.GlobalAlign(ref, query)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.QueryLength(c) != len(query) {
		t.Fatalf("query length mismatch: %d vs %d", cigar.QueryLength(c), len(query))
	}
	if cigar.RefLength(c) != len(ref) {
		t.Fatalf("ref length mismatch: %d vs %d", cigar.RefLength(c), len(ref))
	}
	if !cigar.HasOp(c, cigar.I) {
		t.Fatalf("expected an insertion unit in %s", cigar.String(c))
	}
}

func TestDPGlobalAlignDeletion(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	ref := []byte("ACGTACGT")
	query := []byte("ACGACGT") // S4
	c, err := a.GlobalAlign(ref, query)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.QueryLength(c) != len(query) {
		t.Fatalf("query length mismatch: %d vs %d", cigar.QueryLength(c), len(query))
	}
	if cigar.RefLength(c) != len(ref) {
		t.Fatalf("ref length mismatch: %d vs %d", cigar.RefLength(c), len(ref))
	}
	if !cigar.HasOp(c, cigar.D) {
		t.Fatalf("expected a deletion unit in %s", cigar.String(c))
	}
}

func TestDPGlobalAlignEmptyRef(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	c, err := a.GlobalAlign(nil, []byte("ACGT"))
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 1 {
		t.Fatalf("expected one unit, got %d", len(c))
	}
	op, l := cigar.Decode(c[0])
	if op != cigar.I || l != 4 {
		t.Fatalf("got op=%d len=%d, want I,4", op, l)
	}
}

func TestDPGlobalAlignEmptyQuery(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	c, err := a.GlobalAlign([]byte("ACGT"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 1 {
		t.Fatalf("expected one unit, got %d", len(c))
	}
	op, l := cigar.Decode(c[0])
	if op != cigar.D || l != 4 {
		t.Fatalf("got op=%d len=%d, want D,4", op, l)
	}
}

func TestDPGlobalAlignBothEmpty(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	c, err := a.GlobalAlign(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 0 {
		t.Fatalf("expected empty CIGAR, got %s", cigar.String(c))
	}
}

func TestDPGlobalAlignSingleMismatch(t *testing.T) {
	a := NewDPAligner(DefaultDPOptions)
	ref := []byte("ACGTACGT")
	query := []byte("ACGTAGGT") // C->G at pos 6
	c, err := a.GlobalAlign(ref, query)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.QueryLength(c) != 8 || cigar.RefLength(c) != 8 {
		t.Fatalf("length mismatch: %s", cigar.String(c))
	}
}
