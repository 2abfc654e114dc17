// Package detection implements transcript keyword matching and safety
// classification for the NaariGuard audio pipeline.
//
// A detection pass applies three rules per catalogue phrase against the
// normalized transcript (substring containment, contiguous word-sequence
// match, character-overlap fuzzy match for single words), then folds in a
// fixed table of urgency regex patterns matched against the raw transcript.
// The result is an insertion-ordered, duplicate-free list of matched phrases.
package detection

import (
	"regexp"
	"strings"
)

// urgencyPatterns are matched case-insensitively against the raw (non
// normalized) transcript. Every occurrence is lowercased and folded into the
// result set.
var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)help\s*me`),
	regexp.MustCompile(`(?i)save\s*me`),
	regexp.MustCompile(`(?i)get\s*away`),
	regexp.MustCompile(`(?i)leave\s*me\s*alone`),
	regexp.MustCompile(`(?i)stop\s*it`),
	regexp.MustCompile(`(?i)call\s*(911|police|emergency)`),
	regexp.MustCompile(`(?i)someone\s*help`),
	regexp.MustCompile(`(?i)i'm\s*(scared|afraid|in\s*danger)`),
}

// Config holds matcher tuning parameters
type Config struct {
	// FuzzyThreshold is the minimum character-overlap similarity for the
	// single-word fuzzy rule. The produced behavior matches the original
	// detection engine at 0.8.
	FuzzyThreshold float64
	// PhoneticEnabled turns on the optional phonetic pass
	PhoneticEnabled bool
	// PhoneticThreshold is the minimum Jaro-Winkler score for phonetic
	// candidates
	PhoneticThreshold float64
}

// Matcher scores transcripts against a KeywordSet. Safe for concurrent use;
// it is read-only after construction.
type Matcher struct {
	fuzzyThreshold float64
	phonetic       *phoneticMatcher
}

// NewMatcher creates a matcher with the given configuration. A zero
// FuzzyThreshold falls back to 0.8.
func NewMatcher(cfg Config) *Matcher {
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.8
	}
	m := &Matcher{fuzzyThreshold: cfg.FuzzyThreshold}
	if cfg.PhoneticEnabled {
		threshold := cfg.PhoneticThreshold
		if threshold <= 0 {
			threshold = 0.85
		}
		m.phonetic = newPhoneticMatcher(threshold)
	}
	return m
}

// Match returns the keywords from set detected in text, in insertion order:
// catalogue matches first (in catalogue order), then urgency pattern matches
// (in pattern order, then occurrence order). Duplicates are suppressed.
func (m *Matcher) Match(text string, set *KeywordSet) []string {
	matched := make([]string, 0, 4)
	seen := make(map[string]struct{})

	normText := Normalize(text)
	textWords := strings.Fields(normText)

	for _, keyword := range set.Phrases() {
		if m.matchKeyword(normText, textWords, keyword) {
			if _, ok := seen[keyword]; !ok {
				seen[keyword] = struct{}{}
				matched = append(matched, keyword)
			}
		}
	}

	for _, pattern := range urgencyPatterns {
		for _, occurrence := range pattern.FindAllString(text, -1) {
			lowered := strings.ToLower(occurrence)
			if _, ok := seen[lowered]; !ok {
				seen[lowered] = struct{}{}
				matched = append(matched, lowered)
			}
		}
	}

	return matched
}

// matchKeyword applies the per-keyword rules against the normalized text.
func (m *Matcher) matchKeyword(normText string, textWords []string, keyword string) bool {
	normKeyword := Normalize(keyword)
	if normKeyword == "" {
		return false
	}

	// Rule 1: substring containment.
	if strings.Contains(normText, normKeyword) {
		return true
	}

	// Rule 2: the keyword's word sequence appears contiguously in the
	// text's word sequence. Catches phrases that containment missed due to
	// punctuation collapsing.
	keywordWords := strings.Fields(normKeyword)
	if containsWordSequence(textWords, keywordWords) {
		return true
	}

	// Rules 3 and 4 only apply to single words long enough to carry signal.
	if len(keywordWords) != 1 || len(normKeyword) <= 3 {
		return false
	}

	// Rule 3: character-overlap fuzzy match, tolerant of transcription
	// slips. This is an order-insensitive overlap ratio, not edit distance;
	// anagram-like false positives are an accepted trade-off.
	for _, word := range textWords {
		if len(word) < 3 {
			continue
		}
		if overlapSimilarity(word, normKeyword) >= m.fuzzyThreshold {
			return true
		}
	}

	// Rule 4 (optional): phonetic pass.
	if m.phonetic != nil {
		for _, word := range textWords {
			if len(word) < 3 {
				continue
			}
			if m.phonetic.match(word, normKeyword) {
				return true
			}
		}
	}

	return false
}

// containsWordSequence reports whether needle appears as a contiguous
// subsequence of haystack.
func containsWordSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i <= len(haystack)-len(needle); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// overlapSimilarity computes the character-overlap ratio between a text word
// and a keyword: the count of the shorter string's characters found anywhere
// in the longer string, divided by the longer string's length. Ties treat the
// keyword as the longer string.
func overlapSimilarity(word, keyword string) float64 {
	longer, shorter := keyword, word
	if len([]rune(word)) > len([]rune(keyword)) {
		longer, shorter = word, keyword
	}
	longerLen := len([]rune(longer))
	if longerLen == 0 {
		return 0
	}

	matches := 0
	for _, r := range shorter {
		if strings.ContainsRune(longer, r) {
			matches++
		}
	}
	return float64(matches) / float64(longerLen)
}

// Normalize lowercases s, replaces every non-word character with a space and
// collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}
