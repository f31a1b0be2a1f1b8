package service

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	positiveWords = wordSet(
		"good", "great", "fine", "happy", "safe", "careful", "minor", "honest",
		"helpful", "calm", "clear", "well", "thanks", "grateful", "resolved",
	)
	negativeWords = wordSet(
		"bad", "terrible", "horrible", "awful", "pain", "painful", "severe",
		"angry", "furious", "desperate", "destroyed", "ruined", "worst",
		"agony", "unbearable", "crash", "crashed", "injured", "broken",
		"suffering", "lost", "stolen", "hurt", "damage", "damaged",
	)
	stopWords = wordSet(
		"a", "an", "the", "and", "or", "of", "to", "in", "on", "at", "for",
		"with", "was", "is", "it", "my", "i", "me", "by", "from", "as", "be",
	)
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// TextAnalyzer performs the lexical analysis used by the text based checks:
// phrase and keyword matching, lexicon sentiment and note similarity.
type TextAnalyzer struct{}

// NewTextAnalyzer creates a TextAnalyzer.
func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{}
}

// Normalize applies NFKC normalisation and case folding and collapses
// whitespace.
func (t *TextAnalyzer) Normalize(text string) string {
	// A Caser is stateful, so each call gets its own.
	folded := cases.Fold().String(norm.NFKC.String(text))
	return strings.Join(strings.Fields(folded), " ")
}

// Tokens splits text into normalised word tokens.
func (t *TextAnalyzer) Tokens(text string) []string {
	return strings.FieldsFunc(t.Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
}

// MatchPhrases returns the phrases found in text, followed by single tokens
// that are not already part of a matched phrase. Results are deduplicated.
func (t *TextAnalyzer) MatchPhrases(text string, phrases, tokens []string) []string {
	normalized := t.Normalize(text)
	if normalized == "" {
		return nil
	}

	var matches []string
	covered := make(map[string]struct{})
	seen := make(map[string]struct{})

	for _, p := range phrases {
		np := t.Normalize(p)
		if np == "" {
			continue
		}
		if _, dup := seen[np]; dup {
			continue
		}
		if containsPhrase(normalized, np) {
			seen[np] = struct{}{}
			matches = append(matches, np)
			for _, w := range strings.Fields(np) {
				covered[w] = struct{}{}
			}
		}
	}

	words := wordSet(t.Tokens(text)...)
	for _, tok := range tokens {
		nt := t.Normalize(tok)
		if _, dup := seen[nt]; dup {
			continue
		}
		if _, inPhrase := covered[nt]; inPhrase {
			continue
		}
		if _, ok := words[nt]; ok {
			seen[nt] = struct{}{}
			matches = append(matches, nt)
		}
	}

	return matches
}

// Sentiment returns a lexicon polarity in (-1, 1): negative values mean the
// text is dominated by negative words.
func (t *TextAnalyzer) Sentiment(text string) float64 {
	var pos, neg int
	for _, w := range t.Tokens(text) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg+1)
}

// Similarity is the cosine similarity of the term frequency vectors of a and
// b, ignoring stop words. It returns 0 when either text is empty.
func (t *TextAnalyzer) Similarity(a, b string) float64 {
	va := t.termFrequencies(a)
	vb := t.termFrequencies(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}

	var dot, na, nb float64
	for term, fa := range va {
		na += fa * fa
		if fb, ok := vb[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range vb {
		nb += fb * fb
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim > 1 {
		sim = 1
	}
	return sim
}

func (t *TextAnalyzer) termFrequencies(text string) map[string]float64 {
	tf := make(map[string]float64)
	for _, w := range t.Tokens(text) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		tf[w]++
	}
	return tf
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		i := start + idx
		j := i + len(phrase)
		if boundaryBefore(text, i) && boundaryAfter(text, j) {
			return true
		}
		start = i + 1
	}
}

func boundaryBefore(text string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, j int) bool {
	if j >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[j:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// quartiles returns the first and third quartile of values using linear
// interpolation between closest ranks.
func quartiles(values []float64) (q1, q3 float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentile(sorted, 0.25), percentile(sorted, 0.75)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
