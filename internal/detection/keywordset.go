package detection

import "strings"

// KeywordSet is an ordered set of lowercase keyword phrases. It combines the
// built-in catalogue with user-supplied custom phrases, preserves insertion
// order and suppresses duplicates. A KeywordSet is read-only after
// construction and safe for concurrent use by detection passes; it may only
// be replaced between sessions.
type KeywordSet struct {
	phrases []string
	index   map[string]struct{}
}

// NewKeywordSet returns the built-in safety catalogue extended with the given
// custom phrases. Phrases are lowercased and trimmed; empty and duplicate
// entries are dropped.
func NewKeywordSet(custom ...string) *KeywordSet {
	s := &KeywordSet{
		index: make(map[string]struct{}, len(defaultSafetyKeywords)+len(custom)),
	}
	s.add(defaultSafetyKeywords)
	s.add(custom)
	return s
}

// With returns a new KeywordSet containing this set's phrases plus the given
// extra phrases. The receiver is not modified.
func (s *KeywordSet) With(extra ...string) *KeywordSet {
	if len(extra) == 0 {
		return s
	}
	next := &KeywordSet{
		phrases: make([]string, len(s.phrases), len(s.phrases)+len(extra)),
		index:   make(map[string]struct{}, len(s.index)+len(extra)),
	}
	copy(next.phrases, s.phrases)
	for k := range s.index {
		next.index[k] = struct{}{}
	}
	next.add(extra)
	return next
}

func (s *KeywordSet) add(phrases []string) {
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := s.index[p]; ok {
			continue
		}
		s.index[p] = struct{}{}
		s.phrases = append(s.phrases, p)
	}
}

// Phrases returns the phrases in insertion order. Callers must not modify the
// returned slice.
func (s *KeywordSet) Phrases() []string {
	return s.phrases
}

// Len returns the number of phrases in the set.
func (s *KeywordSet) Len() int {
	return len(s.phrases)
}

// Contains reports whether the set holds the given phrase (after lowercasing
// and trimming).
func (s *KeywordSet) Contains(phrase string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(phrase))]
	return ok
}
