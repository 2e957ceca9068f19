package refindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/viralign/viralign/anchor"
	"github.com/viralign/viralign/seqio"
)

func testOptions() Options {
	return Options{
		K:             4,
		SketchSize:    100,
		WindowSize:    3,
		Canonical:     true,
		Seed:          11,
		AnchorFilters: anchor.DisabledFilterOptions,
		ChainOptions:  anchor.DefaultChainOptions,
	}
}

func writeFasta(t *testing.T, recs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.fasta")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for id, seq := range recs {
		if _, err := f.WriteString(">" + id + "\n" + seq + "\n"); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestNewAndAlignExactMatch(t *testing.T) {
	path := writeFasta(t, map[string]string{"ref1": "ACGTACGTACGTACGTACGTACGT"})
	idx, err := New(path, testOptions(), true, 0)
	if err != nil {
		t.Fatal(err)
	}
	result, err := idx.AlignQuery("q1", []byte("ACGTACGTACGTACGTACGTACGT"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Bucket != NormalBucket {
		t.Fatalf("expected exact match in normal bucket, got bucket=%v", result.Bucket)
	}
	if result.RName != "ref1" {
		t.Fatalf("expected RName=ref1, got %s", result.RName)
	}
}

func TestMajorityVoteConsensusTieBreak(t *testing.T) {
	records := []seqio.Record{
		{ID: "a", Seq: []byte("A")},
		{ID: "b", Seq: []byte("C")},
	}
	out := majorityVoteConsensus(records)
	if string(out) != "A" {
		t.Fatalf("expected tie-break A>C to pick A, got %q", out)
	}
}

func TestMajorityVoteConsensusAllGapIsA(t *testing.T) {
	records := []seqio.Record{
		{ID: "a", Seq: []byte("-")},
		{ID: "b", Seq: []byte("-")},
	}
	out := majorityVoteConsensus(records)
	if string(out) != "A" {
		t.Fatalf("expected all-gap column to become A, got %q", out)
	}
}

func TestMajorityVoteConsensusMajority(t *testing.T) {
	records := []seqio.Record{
		{ID: "a", Seq: []byte("G")},
		{ID: "b", Seq: []byte("G")},
		{ID: "c", Seq: []byte("T")},
	}
	out := majorityVoteConsensus(records)
	if string(out) != "G" {
		t.Fatalf("expected majority G, got %q", out)
	}
}

func TestSelectConsensusCandidatesDisabled(t *testing.T) {
	records := []seqio.Record{
		{ID: "a", Seq: []byte("AAA")},
		{ID: "b", Seq: []byte("AAAAA")},
	}
	out := selectConsensusCandidates(records, 0)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("expected k<=0 to return the input records unchanged, got %+v", out)
	}
}

func TestSelectConsensusCandidatesKeepsLongest(t *testing.T) {
	records := []seqio.Record{
		{ID: "short", Seq: []byte("AA")},
		{ID: "long1", Seq: []byte("AAAAA")},
		{ID: "mid", Seq: []byte("AAA")},
		{ID: "long2", Seq: []byte("AAAAAA")},
	}
	out := selectConsensusCandidates(records, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	if out[0].ID != "long2" || out[1].ID != "long1" {
		t.Fatalf("expected [long2, long1] longest-first, got [%s, %s]", out[0].ID, out[1].ID)
	}
}

func TestSelectConsensusCandidatesTieBreakByOrder(t *testing.T) {
	records := []seqio.Record{
		{ID: "first", Seq: []byte("AAAA")},
		{ID: "second", Seq: []byte("AAAA")},
		{ID: "third", Seq: []byte("AAAA")},
	}
	out := selectConsensusCandidates(records, 2)
	if len(out) != 2 || out[0].ID != "first" || out[1].ID != "second" {
		t.Fatalf("expected equal-length tie broken by input order [first, second], got %+v", out)
	}
}
