package merger

import (
	"testing"

	"github.com/viralign/viralign/cigar"
)

func TestCallVariantsSNP(t *testing.T) {
	ref := []byte("ACGTACGT")
	qry := []byte("ACGAACGT") // S2: mismatch at 0-based index 3
	c, _ := cigar.Parse("8M")
	recs := CallVariants("q", ref, qry, c)
	if len(recs) != 1 {
		t.Fatalf("expected 1 SNP, got %d", len(recs))
	}
	r := recs[0]
	if r.Type != "SNP" || r.Pos != 4 || r.Ref != "T" || r.Alt != "A" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestCallVariantsInsertion(t *testing.T) {
	ref := []byte("ACGTACGT")
	qry := []byte("ACGTTACGT") // S3
	c, _ := cigar.Parse("4M1I4M")
	recs := CallVariants("q", ref, qry, c)
	if len(recs) != 1 {
		t.Fatalf("expected 1 INS, got %d", len(recs))
	}
	r := recs[0]
	if r.Type != "INS" || r.Pos != 4 || r.Ref != "T" || r.Alt != "TT" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestCallVariantsDeletion(t *testing.T) {
	ref := []byte("ACGTACGT")
	qry := []byte("ACGACGT") // S4
	c, _ := cigar.Parse("3M1D4M")
	recs := CallVariants("q", ref, qry, c)
	if len(recs) != 1 {
		t.Fatalf("expected 1 DEL, got %d", len(recs))
	}
	r := recs[0]
	if r.Type != "DEL" || r.Pos != 3 || r.Ref != "GT" || r.Alt != "G" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestCallVariantsLeadingInsertionSuppressed(t *testing.T) {
	ref := []byte("ACGT")
	qry := []byte("TACGT")
	c, _ := cigar.Parse("1I4M")
	recs := CallVariants("q", ref, qry, c)
	if len(recs) != 0 {
		t.Fatalf("expected leading I to be suppressed, got %+v", recs)
	}
}

func TestCallVariantsIdentityProducesNone(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGT")
	qry := []byte("ACGTACGTACGTACGT")
	c, _ := cigar.Parse("16M")
	recs := CallVariants("q", ref, qry, c)
	if len(recs) != 0 {
		t.Fatalf("expected S1 identity to produce zero records, got %+v", recs)
	}
}
