package align

import (
	"testing"

	"github.com/viralign/viralign/anchor"
	"github.com/viralign/viralign/cigar"
)

func TestSegmenterFallsBackWithNoChain(t *testing.T) {
	dp := NewDPAligner(DefaultDPOptions)
	seg := NewSegmenter(dp, dp)
	ref := []byte("ACGTACGTACGT")
	query := []byte("ACGTACGTACGT")
	c, err := seg.Align(ref, query, nil, anchor.DefaultChainOptions)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.QueryLength(c) != len(query) || cigar.RefLength(c) != len(ref) {
		t.Fatalf("length invariant violated: %s", cigar.String(c))
	}
}

func TestSegmenterWithColinearAnchors(t *testing.T) {
	dp := NewDPAligner(DefaultDPOptions)
	seg := NewSegmenter(dp, dp)
	ref := []byte("AAAACCCCGGGGTTTT")
	query := []byte("AAAACCCCGGGGTTTT")
	anchors := []anchor.Anchor{
		{PosRef: 0, PosQry: 0, Span: 4},
		{PosRef: 8, PosQry: 8, Span: 4},
	}
	c, err := seg.Align(ref, query, anchors, anchor.DefaultChainOptions)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.QueryLength(c) != len(query) || cigar.RefLength(c) != len(ref) {
		t.Fatalf("length invariant violated: %s", cigar.String(c))
	}
}

func TestSegmenterFallsBackOnLengthMismatch(t *testing.T) {
	dp := NewDPAligner(DefaultDPOptions)
	seg := NewSegmenter(dp, dp)
	ref := []byte("ACGTACGTACGT")
	query := []byte("ACGTTTACGTACGT")
	// deliberately bogus chain far out of bounds relative to lengths;
	// two anchors so the chain survives the default MinCnt
	anchors := []anchor.Anchor{
		{PosRef: 100, PosQry: 100, Span: 16},
		{PosRef: 120, PosQry: 120, Span: 16},
	}
	c, err := seg.Align(ref, query, anchors, anchor.DefaultChainOptions)
	if err != nil {
		t.Fatal(err)
	}
	if cigar.QueryLength(c) != len(query) || cigar.RefLength(c) != len(ref) {
		t.Fatalf("length invariant violated: %s", cigar.String(c))
	}
}
