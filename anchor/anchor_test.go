package anchor

import (
	"testing"

	"github.com/viralign/viralign/seed"
)

func TestCollectBasicJoin(t *testing.T) {
	refHits := []seed.Hit{
		seed.Pack(111, 16, 0, false, 10),
		seed.Pack(222, 16, 0, false, 50),
	}
	qryHits := []seed.Hit{
		seed.Pack(111, 16, 0, false, 5),
		seed.Pack(333, 16, 0, false, 20), // no match in ref
	}
	anchors := Collect(refHits, qryHits, DisabledFilterOptions)
	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	if anchors[0].Hash != 111 || anchors[0].PosRef != 10 || anchors[0].PosQry != 5 {
		t.Fatalf("unexpected anchor: %+v", anchors[0])
	}
}

func TestCollectEmptyInputs(t *testing.T) {
	if a := Collect(nil, []seed.Hit{seed.Pack(1, 16, 0, false, 0)}, DisabledFilterOptions); a != nil {
		t.Fatalf("expected nil for empty ref hits, got %v", a)
	}
	if a := Collect([]seed.Hit{seed.Pack(1, 16, 0, false, 0)}, nil, DisabledFilterOptions); a != nil {
		t.Fatalf("expected nil for empty query hits, got %v", a)
	}
}

func TestCollectCartesianProductWithFiltersDisabled(t *testing.T) {
	// spec invariant #7: with all filters disabled, collection produces
	// the Cartesian product of per-hash occurrences.
	refHits := []seed.Hit{
		seed.Pack(1, 16, 0, false, 0),
		seed.Pack(1, 16, 0, false, 10),
		seed.Pack(1, 16, 0, false, 20),
	}
	qryHits := []seed.Hit{
		seed.Pack(1, 16, 0, false, 0),
		seed.Pack(1, 16, 0, false, 5),
	}
	anchors := Collect(refHits, qryHits, DisabledFilterOptions)
	if len(anchors) != len(refHits)*len(qryHits) {
		t.Fatalf("expected %d anchors (cartesian product), got %d", len(refHits)*len(qryHits), len(anchors))
	}
}

func TestCollectIsRevXOR(t *testing.T) {
	refHits := []seed.Hit{seed.Pack(1, 16, 0, true, 0)}
	qryHits := []seed.Hit{seed.Pack(1, 16, 0, false, 0)}
	anchors := Collect(refHits, qryHits, DisabledFilterOptions)
	if len(anchors) != 1 || !anchors[0].IsRev {
		t.Fatalf("expected IsRev=true from strand XOR, got %+v", anchors)
	}
}

func TestCollectSpanIsMinimum(t *testing.T) {
	refHits := []seed.Hit{seed.Pack(1, 20, 0, false, 0)}
	qryHits := []seed.Hit{seed.Pack(1, 12, 0, false, 0)}
	anchors := Collect(refHits, qryHits, DisabledFilterOptions)
	if len(anchors) != 1 || anchors[0].Span != 12 {
		t.Fatalf("expected span=min(20,12)=12, got %+v", anchors)
	}
}

func TestChainAnchorsSimpleColinear(t *testing.T) {
	anchors := []Anchor{
		{Hash: 1, PosRef: 0, PosQry: 0, Span: 16},
		{Hash: 2, PosRef: 20, PosQry: 20, Span: 16},
		{Hash: 3, PosRef: 40, PosQry: 40, Span: 16},
	}
	chains := ChainAnchors(anchors, DefaultChainOptions)
	if len(chains) == 0 {
		t.Fatalf("expected at least one surviving chain")
	}
	if len(chains[0].Anchors) < 2 {
		t.Fatalf("expected the best chain to link at least 2 anchors, got %d", len(chains[0].Anchors))
	}
}

func TestChainAnchorsEmpty(t *testing.T) {
	if c := ChainAnchors(nil, DefaultChainOptions); c != nil {
		t.Fatalf("expected nil chains for empty anchors, got %v", c)
	}
}

func TestChainAnchorsDiscardsBelowMinCnt(t *testing.T) {
	anchors := []Anchor{{Hash: 1, PosRef: 0, PosQry: 0, Span: 16}}
	opts := DefaultChainOptions
	opts.MinCnt = 2
	chains := ChainAnchors(anchors, opts)
	if len(chains) != 0 {
		t.Fatalf("expected single anchor to be discarded under MinCnt=2, got %d chains", len(chains))
	}
}

func TestCollectCarriesRidAcrossMultipleReferences(t *testing.T) {
	// a one-query-against-all-references pass: refHits spans two distinct
	// rids, so Collect must stamp each anchor with the rid its ref-side
	// hit actually came from, not just the shared hash/position.
	refHits := []seed.Hit{
		seed.Pack(1, 16, 0, false, 0),
		seed.Pack(1, 16, 1, false, 0),
	}
	qryHits := []seed.Hit{seed.Pack(1, 16, 7, false, 0)}
	anchors := Collect(refHits, qryHits, DisabledFilterOptions)
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors (one per reference), got %d", len(anchors))
	}
	seenRids := map[uint32]bool{}
	for _, a := range anchors {
		seenRids[a.RidRef] = true
		if a.RidQry != 7 {
			t.Fatalf("expected RidQry=7 on every anchor, got %+v", a)
		}
	}
	if !seenRids[0] || !seenRids[1] {
		t.Fatalf("expected anchors carrying RidRef=0 and RidRef=1, got %+v", anchors)
	}
}

func TestChainAnchorsNeverCrossesReferenceIds(t *testing.T) {
	// two colinear runs that would chain together if RidRef were ignored,
	// since their PosRef/PosQry progressions line up identically.
	anchors := []Anchor{
		{Hash: 1, RidRef: 0, PosRef: 0, PosQry: 0, Span: 16},
		{Hash: 2, RidRef: 0, PosRef: 20, PosQry: 20, Span: 16},
		{Hash: 3, RidRef: 1, PosRef: 40, PosQry: 40, Span: 16},
		{Hash: 4, RidRef: 1, PosRef: 60, PosQry: 60, Span: 16},
	}
	chains := ChainAnchors(anchors, DefaultChainOptions)
	for _, c := range chains {
		rid := c.Anchors[0].RidRef
		for _, a := range c.Anchors {
			if a.RidRef != rid {
				t.Fatalf("chain mixed anchors from RidRef=%d and RidRef=%d: %+v", rid, a.RidRef, c.Anchors)
			}
		}
	}
}
