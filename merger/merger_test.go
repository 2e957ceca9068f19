package merger

import (
	"testing"

	"github.com/viralign/viralign/cigar"
)

func TestCigarFromAlignedPairMatchesAndGaps(t *testing.T) {
	ref := []byte("AC-GT")
	qry := []byte("ACGG-")
	c, err := cigarFromAlignedPair(ref, qry)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.RefLength(c) != 4 { // A,C,G,T consume ref (the '-' in ref doesn't)
		t.Fatalf("ref length = %d, want 4", cigar.RefLength(c))
	}
	if cigar.QueryLength(c) != 4 { // A,C,G,G consume query (the '-' in qry doesn't)
		t.Fatalf("query length = %d, want 4", cigar.QueryLength(c))
	}
}

func TestExpandToExtendedConsensusInsertsGapColumns(t *testing.T) {
	// plain CIGAR: 4M over a 4-base consensus; extended consensus has
	// one inserted column after position 2.
	c, _ := cigar.Parse("4M")
	gapPos := []bool{false, false, true, false, false}
	out, err := expandToExtendedConsensus(c, gapPos)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.RefLength(out) != 5 {
		t.Fatalf("expanded ref length = %d, want 5", cigar.RefLength(out))
	}
	if cigar.QueryLength(out) != 4 {
		t.Fatalf("expanded query length = %d, want 4 (unchanged)", cigar.QueryLength(out))
	}
	if !cigar.HasOp(out, cigar.D) {
		t.Fatalf("expected an inserted D run in %s", cigar.String(out))
	}
}

func TestExpandToExtendedConsensusNoGaps(t *testing.T) {
	c, _ := cigar.Parse("4M")
	gapPos := []bool{false, false, false, false}
	out, err := expandToExtendedConsensus(c, gapPos)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.String(out) != "4M" {
		t.Fatalf("expected unchanged 4M, got %s", cigar.String(out))
	}
}
