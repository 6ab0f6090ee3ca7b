package scorer

import (
	"strings"
	"unicode"
)

// Signal weights. The four signals always sum to at most 1.0 before
// boosting, so a base score stays inside [0, 1].
const (
	weightExactMatch = 0.4
	weightSequence   = 0.2
	weightOrder      = 0.2
	weightProximity  = 0.2
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {},
	"of": {}, "with": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"from": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "this": {}, "that": {}, "it": {}, "as": {}, "your": {},
	"you": {}, "our": {}, "new": {},
}

// Scorer computes keyword relevance for listing titles. Threshold and
// the two boost multipliers are empirically chosen and configurable.
type Scorer struct {
	Threshold  float64
	PriceBoost float64
	ImageBoost float64
}

// New creates a Scorer with the given pruning threshold and boosts.
func New(threshold, priceBoost, imageBoost float64) *Scorer {
	return &Scorer{Threshold: threshold, PriceBoost: priceBoost, ImageBoost: imageBoost}
}

// Score returns the base relevance of title for keyword, in [0, 1].
func (s *Scorer) Score(title, keyword string) float64 {
	titleTokens := tokenize(title)
	keywordTokens := tokenize(keyword)
	if len(keywordTokens) == 0 || len(titleTokens) == 0 {
		return 0
	}

	titleLower := strings.ToLower(title)

	exact := matchRatio(keywordTokens, titleTokens)
	seq := lcsRatio(strings.ToLower(keyword), titleLower)
	order := orderBonus(keywordTokens, titleTokens)
	prox := proximityBonus(keywordTokens, titleLower)

	return weightExactMatch*exact + weightSequence*seq + weightOrder*order + weightProximity*prox
}

// Relevant reports whether a base score clears the pruning threshold.
// Entries below it are dropped before any network work.
func (s *Scorer) Relevant(score float64) bool {
	return score >= s.Threshold
}

// Boost applies the post-enrichment multipliers and clamps to 1.0.
func (s *Scorer) Boost(score float64, hasPrice, hasImage bool) float64 {
	if hasPrice {
		score *= s.PriceBoost
	}
	if hasImage {
		score *= s.ImageBoost
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// tokenize lower-cases, splits on whitespace, trims punctuation from
// token edges and drops stop-words.
func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// matchRatio is |keyword tokens present in title| / |keyword tokens|.
func matchRatio(keywordTokens, titleTokens []string) float64 {
	titleSet := make(map[string]struct{}, len(titleTokens))
	for _, t := range titleTokens {
		titleSet[t] = struct{}{}
	}
	matched := 0
	for _, k := range keywordTokens {
		if _, ok := titleSet[k]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(keywordTokens))
}

// lcsRatio is a whole-string similarity: 2*LCS(a,b) / (len(a)+len(b)).
func lcsRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// orderBonus is 1 when the keyword token sequence appears contiguously
// in the title token sequence.
func orderBonus(keywordTokens, titleTokens []string) float64 {
	if len(keywordTokens) > len(titleTokens) {
		return 0
	}
outer:
	for i := 0; i+len(keywordTokens) <= len(titleTokens); i++ {
		for j, k := range keywordTokens {
			if titleTokens[i+j] != k {
				continue outer
			}
		}
		return 1
	}
	return 0
}

// proximityBonus rewards keyword tokens that sit close together in the
// title: 1 / (1 + average pairwise character-offset distance). Zero when
// fewer than two keyword tokens are found.
func proximityBonus(keywordTokens []string, titleLower string) float64 {
	var offsets []int
	for _, k := range keywordTokens {
		if idx := strings.Index(titleLower, k); idx >= 0 {
			offsets = append(offsets, idx)
		}
	}
	if len(offsets) < 2 {
		return 0
	}

	var total, pairs int
	for i := 0; i < len(offsets); i++ {
		for j := i + 1; j < len(offsets); j++ {
			d := offsets[i] - offsets[j]
			if d < 0 {
				d = -d
			}
			total += d
			pairs++
		}
	}
	avg := float64(total) / float64(pairs)
	return 1 / (1 + avg)
}
