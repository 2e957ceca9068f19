package minimizer

import "testing"

func TestExtractNoConsecutiveDuplicates(t *testing.T) {
	seq := []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT")
	hits := Extract(seq, 5, 4, true, 1, 0)
	for i := 1; i < len(hits); i++ {
		if hits[i].Hash() == hits[i-1].Hash() && hits[i].Pos() == hits[i-1].Pos() {
			t.Fatalf("consecutive duplicate (hash,pos) at %d", i)
		}
	}
}

func TestExtractDeterministicForIdenticalSequences(t *testing.T) {
	seq1 := []byte("ACGTGGCATCGATCGTAGCTAGCATCGATGCATGCTAGT")
	seq2 := make([]byte, len(seq1))
	copy(seq2, seq1)

	h1 := Extract(seq1, 7, 6, true, 7, 0)
	h2 := Extract(seq2, 7, 6, true, 7, 0)

	if len(h1) != len(h2) {
		t.Fatalf("lengths differ: %d vs %d", len(h1), len(h2))
	}
	for i := range h1 {
		if !h1[i].Equal(h2[i]) {
			t.Fatalf("hit %d differs", i)
		}
	}
}

func TestExtractResetsOnNonACGT(t *testing.T) {
	withN := []byte("ACGTACGTNACGTACGTACGT")
	hits := Extract(withN, 4, 3, true, 1, 0)
	// no hit should have a span that crosses the N at index 8
	for _, h := range hits {
		start := int(h.Pos())
		end := start + int(h.Span()) - 1
		if start <= 8 && end >= 8 {
			t.Fatalf("hit spans the non-ACGT base: start=%d end=%d", start, end)
		}
	}
}

func TestExtractTooShortSequence(t *testing.T) {
	hits := Extract([]byte("ACG"), 5, 3, true, 1, 0)
	if hits != nil {
		t.Fatalf("expected nil for sequence shorter than k")
	}
}
