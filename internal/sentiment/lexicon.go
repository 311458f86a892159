package sentiment

import (
	"regexp"
	"sort"
	"strings"
)

// Lexicon counts occurrences of a fixed keyword set in lower-cased text.
// A substring lexicon counts every occurrence of every keyword, so inflected
// forms match ("downgrades" counts "downgrade"). A word lexicon only counts
// keywords standing as whole words.
type Lexicon struct {
	words []string
	whole *regexp.Regexp
}

// NewLexicon builds a substring lexicon from keywords (single words or phrases)
func NewLexicon(words ...string) *Lexicon {
	l := &Lexicon{words: make([]string, 0, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		l.words = append(l.words, w)
	}
	return l
}

// NewWordLexicon builds a lexicon that matches keywords as whole words only
func NewWordLexicon(words ...string) *Lexicon {
	l := NewLexicon(words...)
	if len(l.words) == 0 {
		return l
	}

	// Longest first so a phrase wins over its leading word
	alts := make([]string, len(l.words))
	for i, w := range l.words {
		alts[i] = regexp.QuoteMeta(w)
	}
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	l.whole = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	return l
}

// Words returns the keywords in declaration order
func (l *Lexicon) Words() []string {
	out := make([]string, len(l.words))
	copy(out, l.words)
	return out
}

// Count returns the total number of keyword occurrences in text
func (l *Lexicon) Count(text string) int {
	text = strings.ToLower(text)
	if l.whole != nil {
		return len(l.whole.FindAllStringIndex(text, -1))
	}

	total := 0
	for _, w := range l.words {
		total += strings.Count(text, w)
	}
	return total
}

// Matches reports whether any keyword occurs in text
func (l *Lexicon) Matches(text string) bool {
	return l.Count(text) > 0
}
