package chunker

import (
	"fmt"
	"testing"

	"github.com/dgallion1/notepress/internal/richtext"
)

func segs(n int) []richtext.Segment {
	out := make([]richtext.Segment, n)
	for i := range out {
		out[i] = richtext.Segment{AnchorID: fmt.Sprintf("seg-body-img-%03d", i+1)}
	}
	return out
}

func TestSplit_EmptyProducesNoChunks(t *testing.T) {
	p := Split(nil, 5)
	if p.NumChunks() != 0 {
		t.Fatalf("expected 0 chunks, got %d", p.NumChunks())
	}
	if len(p.First) != 0 || len(p.Rest) != 0 {
		t.Errorf("expected empty plan, got %+v", p)
	}
}

func TestSplit_UnderCeilingRidesWithCreation(t *testing.T) {
	p := Split(segs(3), 5)
	if len(p.First) != 3 {
		t.Fatalf("expected 3 segments in first chunk, got %d", len(p.First))
	}
	if len(p.Rest) != 0 {
		t.Fatalf("expected no append chunks, got %d", len(p.Rest))
	}
	if p.NumChunks() != 1 {
		t.Errorf("expected 1 chunk, got %d", p.NumChunks())
	}
}

func TestSplit_ExactCeilingNeedsNoAppend(t *testing.T) {
	p := Split(segs(5), 5)
	if len(p.First) != 5 || len(p.Rest) != 0 {
		t.Fatalf("expected one full chunk, got first=%d rest=%d", len(p.First), len(p.Rest))
	}
}

func TestSplit_SevenOverThreeYieldsThreeChunks(t *testing.T) {
	p := Split(segs(7), 3)

	if p.NumChunks() != 3 {
		t.Fatalf("expected ceil(7/3)=3 chunks, got %d", p.NumChunks())
	}
	if len(p.First) != 3 {
		t.Errorf("expected first chunk of 3, got %d", len(p.First))
	}
	wantRest := []int{3, 1}
	if len(p.Rest) != len(wantRest) {
		t.Fatalf("expected %d append chunks, got %d", len(wantRest), len(p.Rest))
	}
	for i, want := range wantRest {
		if len(p.Rest[i]) != want {
			t.Errorf("append chunk %d: expected %d segments, got %d", i, want, len(p.Rest[i]))
		}
	}
}

func TestSplit_ConcatenationPreservesOrder(t *testing.T) {
	in := segs(11)
	p := Split(in, 4)

	var got []richtext.Segment
	got = append(got, p.First...)
	for _, c := range p.Rest {
		if len(c) > 4 {
			t.Fatalf("chunk exceeds ceiling: %d > 4", len(c))
		}
		got = append(got, c...)
	}
	if len(got) != len(in) {
		t.Fatalf("lost segments: got %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i].AnchorID != in[i].AnchorID {
			t.Errorf("position %d: got %q, want %q", i, got[i].AnchorID, in[i].AnchorID)
		}
	}
}

func TestSplit_NonPositiveCeilingFallsBackToDefault(t *testing.T) {
	p := Split(segs(DefaultCeiling+1), 0)
	if len(p.First) != DefaultCeiling {
		t.Fatalf("expected first chunk of %d, got %d", DefaultCeiling, len(p.First))
	}
	if len(p.Rest) != 1 || len(p.Rest[0]) != 1 {
		t.Fatalf("expected one trailing append chunk of 1, got %v", p.Rest)
	}
}
