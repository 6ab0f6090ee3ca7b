package scorer

import (
	"math"
	"testing"
)

func newTestScorer() *Scorer {
	return New(0.2, 1.2, 1.1)
}

func TestScoreStaysInRange(t *testing.T) {
	s := newTestScorer()
	pairs := [][2]string{
		{"Wireless Mouse", "wireless mouse"},
		{"50% off Wireless Mouse Deal - $19.99", "wireless mouse"},
		{"Garden Hose 50ft", "wireless mouse"},
		{"", "anything"},
		{"anything", ""},
		{"the of and", "the of"},
	}
	for _, p := range pairs {
		got := s.Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Fatalf("Score(%q, %q) = %v, want within [0, 1]", p[0], p[1], got)
		}
	}
}

func TestScoreExactTitleScoresHigh(t *testing.T) {
	s := newTestScorer()
	got := s.Score("Wireless Mouse", "wireless mouse")
	if got < 0.75 {
		t.Fatalf("exact title score = %v, want at least 0.75", got)
	}
}

func TestScoreUnrelatedTitleScoresBelowThreshold(t *testing.T) {
	s := newTestScorer()
	got := s.Score("Garden Hose 50ft", "wireless mouse")
	if s.Relevant(got) {
		t.Fatalf("unrelated title score = %v, want below threshold %v", got, s.Threshold)
	}
}

func TestScoreIgnoresStopWords(t *testing.T) {
	s := newTestScorer()
	with := s.Score("Deal of the Day: Gaming Mouse", "the mouse")
	without := s.Score("Deal of the Day: Gaming Mouse", "mouse")
	// "the" carries no signal, so both keywords should find the mouse.
	if with == 0 || without == 0 {
		t.Fatalf("expected non-zero scores, got %v and %v", with, without)
	}
	if math.Abs(with-without) > 0.2 {
		t.Fatalf("stop word shifted score too much: %v vs %v", with, without)
	}
}

func TestOrderBonus(t *testing.T) {
	if got := orderBonus([]string{"wireless", "mouse"}, []string{"cheap", "wireless", "mouse", "deal"}); got != 1 {
		t.Fatalf("contiguous sequence bonus = %v, want 1", got)
	}
	if got := orderBonus([]string{"wireless", "mouse"}, []string{"wireless", "gaming", "mouse"}); got != 0 {
		t.Fatalf("split sequence bonus = %v, want 0", got)
	}
	if got := orderBonus([]string{"a", "b", "c"}, []string{"a", "b"}); got != 0 {
		t.Fatalf("keyword longer than title bonus = %v, want 0", got)
	}
}

func TestProximityBonusNeedsTwoTokens(t *testing.T) {
	if got := proximityBonus([]string{"mouse"}, "wireless mouse deal"); got != 0 {
		t.Fatalf("single-token proximity = %v, want 0", got)
	}
	if got := proximityBonus([]string{"wireless", "mouse"}, "garden hose"); got != 0 {
		t.Fatalf("no-match proximity = %v, want 0", got)
	}
	got := proximityBonus([]string{"wireless", "mouse"}, "wireless mouse")
	want := 1.0 / (1.0 + 9.0) // offsets 0 and 9
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("proximity = %v, want %v", got, want)
	}
}

func TestLCSRatio(t *testing.T) {
	if got := lcsRatio("abc", "abc"); got != 1 {
		t.Fatalf("identical strings ratio = %v, want 1", got)
	}
	if got := lcsRatio("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint strings ratio = %v, want 0", got)
	}
	if got := lcsRatio("", "abc"); got != 0 {
		t.Fatalf("empty string ratio = %v, want 0", got)
	}
}

func TestBoostMultipliersAndClamp(t *testing.T) {
	s := newTestScorer()

	got := s.Boost(0.5, true, false)
	if math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("price boost = %v, want 0.6", got)
	}

	got = s.Boost(0.5, false, true)
	if math.Abs(got-0.55) > 1e-9 {
		t.Fatalf("image boost = %v, want 0.55", got)
	}

	got = s.Boost(0.95, true, true)
	if got != 1.0 {
		t.Fatalf("boosted score = %v, want clamped to 1.0", got)
	}

	got = s.Boost(0.5, false, false)
	if got != 0.5 {
		t.Fatalf("unboosted score = %v, want 0.5", got)
	}
}

func TestRelevantThreshold(t *testing.T) {
	s := newTestScorer()
	if s.Relevant(0.19) {
		t.Fatal("0.19 should be below the threshold")
	}
	if !s.Relevant(0.2) {
		t.Fatal("0.2 should clear the threshold")
	}
}
