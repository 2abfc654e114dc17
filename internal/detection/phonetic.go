package detection

import "github.com/antzucaro/matchr"

// phoneticMatcher is the optional fourth matching rule: a transcript word
// matches a keyword when their Double Metaphone codes overlap and the
// Jaro-Winkler similarity of the raw strings clears the threshold. It trades
// a few false positives for tolerance to phonetically plausible
// transcription errors the character-overlap rule misses (e.g. "hellp" vs
// "help" variants that drop shared characters).
//
// Disabled by default; the shipped detection behavior is the character
// overlap heuristic alone.
type phoneticMatcher struct {
	threshold float64
}

func newPhoneticMatcher(threshold float64) *phoneticMatcher {
	return &phoneticMatcher{threshold: threshold}
}

// match reports whether word is phonetically close enough to keyword. Both
// arguments are expected to be normalized single words.
func (p *phoneticMatcher) match(word, keyword string) bool {
	wp, ws := matchr.DoubleMetaphone(word)
	kp, ks := matchr.DoubleMetaphone(keyword)
	if !codesOverlap(wp, ws, kp, ks) {
		return false
	}
	return matchr.JaroWinkler(word, keyword, false) >= p.threshold
}

// codesOverlap reports whether any non-empty code from the first pair equals
// any non-empty code from the second.
func codesOverlap(a1, a2, b1, b2 string) bool {
	for _, a := range [2]string{a1, a2} {
		if a == "" {
			continue
		}
		if a == b1 || (b2 != "" && a == b2) {
			return true
		}
	}
	return false
}
