package sketch

import "testing"

func TestJaccardSelfIsOne(t *testing.T) {
	s := FromSequence([]byte("ACGTACGTACGTACGTACGTACGTACGT"), 8, 1000, true, 1)
	if len(s.Hashes) == 0 {
		t.Fatalf("expected non-empty sketch")
	}
	j, err := Jaccard(s, s)
	if err != nil {
		t.Fatal(err)
	}
	if j != 1.0 {
		t.Fatalf("jaccard(a,a) = %v, want 1.0", j)
	}
}

func TestJaccardDisjoint(t *testing.T) {
	a := FromSequence([]byte("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"), 21, 10, true, 1)
	b := FromSequence([]byte("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC"), 21, 10, true, 1)
	j, err := Jaccard(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if j != 0.0 {
		t.Fatalf("jaccard(disjoint) = %v, want 0.0", j)
	}
}

func TestJaccardEmptyVsEmpty(t *testing.T) {
	a := &Sketch{K: 5}
	b := &Sketch{K: 5}
	j, err := Jaccard(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if j != 1.0 {
		t.Fatalf("jaccard(empty,empty) = %v, want 1.0", j)
	}
}

func TestJaccardEmptyVsNonEmpty(t *testing.T) {
	a := &Sketch{K: 5}
	b := FromSequence([]byte("ACGTACGTA"), 5, 100, true, 1)
	j, err := Jaccard(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if j != 0.0 {
		t.Fatalf("jaccard(empty,nonempty) = %v, want 0.0", j)
	}
}

func TestJaccardKMismatch(t *testing.T) {
	a := FromSequence([]byte("ACGTACGTACGT"), 5, 100, true, 1)
	b := FromSequence([]byte("ACGTACGTACGT"), 6, 100, true, 1)
	_, err := Jaccard(a, b)
	if err == nil {
		t.Fatalf("expected error for mismatched k")
	}
}

func TestFromSequenceInvalidK(t *testing.T) {
	s := FromSequence([]byte("ACGT"), 0, 100, true, 1)
	if len(s.Hashes) != 0 {
		t.Fatalf("k=0 must produce empty sketch")
	}
	s = FromSequence([]byte("ACGT"), 32, 100, true, 1)
	if len(s.Hashes) != 0 {
		t.Fatalf("k>31 must produce empty sketch")
	}
}

func TestSketchTruncation(t *testing.T) {
	s := FromSequence([]byte("ACGTACGATCGATCGATCGTAGCTAGCTAGCATCGATCGTAGCTAGT"), 4, 3, true, 1)
	if len(s.Hashes) > 3 {
		t.Fatalf("sketch should be truncated to sketchSize=3, got %d", len(s.Hashes))
	}
}

func TestReferenceSelectionByJaccard(t *testing.T) {
	// spec S5: all-A 32-mer vs all-C 32-mer, query = all-A.
	allA := make([]byte, 32)
	allC := make([]byte, 32)
	for i := range allA {
		allA[i] = 'A'
		allC[i] = 'C'
	}
	refA := FromSequence(allA, 21, 1000, true, 1)
	refC := FromSequence(allC, 21, 1000, true, 1)
	query := FromSequence(allA, 21, 1000, true, 1)

	jA, _ := Jaccard(query, refA)
	jC, _ := Jaccard(query, refC)
	if jA != 1.0 {
		t.Fatalf("jaccard(query, refA) = %v, want 1.0", jA)
	}
	if jC != 0.0 {
		t.Fatalf("jaccard(query, refC) = %v, want 0.0", jC)
	}
}
