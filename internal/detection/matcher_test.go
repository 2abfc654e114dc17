package detection

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "HELP ME", "help me"},
		{"punctuation to space", "help, me!", "help me"},
		{"apostrophe splits", "i'm scared", "i m scared"},
		{"collapse whitespace", "  help   me  ", "help me"},
		{"digits kept", "call 911", "call 911"},
		{"underscore kept", "user_id", "user_id"},
		{"empty", "", ""},
		{"only punctuation", "!?.,", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchDistressPhrase(t *testing.T) {
	t.Parallel()

	m := NewMatcher(Config{})
	set := NewKeywordSet()

	matched := m.Match("Please help me, I am scared", set)

	for _, want := range []string{"help", "help me", "scared", "please help"} {
		if !slices.Contains(matched, want) {
			t.Errorf("expected %q in matches, got %v", want, matched)
		}
	}

	// Catalogue matches come back in catalogue order.
	if slices.Index(matched, "help") > slices.Index(matched, "help me") {
		t.Errorf("expected %q before %q, got %v", "help", "help me", matched)
	}
	if slices.Index(matched, "help me") > slices.Index(matched, "scared") {
		t.Errorf("expected %q before %q, got %v", "help me", "scared", matched)
	}

	if got := Classify(matched); got != LevelHighAlert {
		t.Errorf("Classify(%v) = %v, want %v", matched, got, LevelHighAlert)
	}
}

func TestMatchCleanTranscript(t *testing.T) {
	t.Parallel()

	m := NewMatcher(Config{})
	set := NewKeywordSet()

	matched := m.Match("The weather is nice today", set)
	if len(matched) != 0 {
		t.Fatalf("expected no matches, got %v", matched)
	}

	result := NewResult("The weather is nice today", matched, set.Len())
	if result.SafetyLevel != LevelNormal {
		t.Errorf("SafetyLevel = %v, want %v", result.SafetyLevel, LevelNormal)
	}
	if result.MatchedKeywords == nil {
		t.Error("MatchedKeywords must be non-nil for JSON encoding")
	}
}

func TestMatchFuzzySingleWord(t *testing.T) {
	t.Parallel()

	m := NewMatcher(Config{})
	set := NewKeywordSet()

	// A transcription slip that keeps most of the keyword's characters.
	matched := m.Match("there is an emergancy", set)
	if !slices.Contains(matched, "emergency") {
		t.Errorf("expected fuzzy match for %q, got %v", "emergency", matched)
	}

	// Too little overlap: 3 of 4 characters is below the 0.8 threshold.
	matched = m.Match("halp", set)
	if slices.Contains(matched, "help") {
		t.Errorf("did not expect fuzzy match for %q, got %v", "help", matched)
	}
}

func TestMatchUrgencyPatterns(t *testing.T) {
	t.Parallel()

	m := NewMatcher(Config{})
	set := NewKeywordSet()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"help me", "HELP ME please", []string{"help me"}},
		{"call 911", "you should Call 911 right now", []string{"call 911"}},
		{"someone help", "Someone HELP, he has got me", []string{"someone help"}},
		{"contraction", "i'm in danger here", []string{"danger", "i'm in danger"}},
		{"leave me alone", "just leave me alone", []string{"leave me alone"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			matched := m.Match(tt.text, set)
			for _, want := range tt.want {
				if !slices.Contains(matched, want) {
					t.Errorf("Match(%q) = %v, missing %q", tt.text, matched, want)
				}
			}
		})
	}
}

func TestMatchDeduplicates(t *testing.T) {
	t.Parallel()

	m := NewMatcher(Config{})
	set := NewKeywordSet()

	// The phrase appears twice and is caught by both the catalogue and an
	// urgency pattern; it must surface exactly once.
	matched := m.Match("help me help me", set)

	want := []string{"help", "help me"}
	if !slices.Equal(matched, want) {
		t.Errorf("Match = %v, want %v", matched, want)
	}
}

func TestMatchCustomKeywordOrdering(t *testing.T) {
	t.Parallel()

	m := NewMatcher(Config{})
	set := NewKeywordSet("custom phrase")

	// "emergency" also fuzzy-matches the catalogue word "screaming"
	// (length tie, 8 of 9 characters shared); custom phrases still come
	// last, after every catalogue match.
	matched := m.Match("emergency custom phrase", set)

	want := []string{"emergency", "screaming", "custom phrase"}
	if !slices.Equal(matched, want) {
		t.Errorf("Match = %v, want %v", matched, want)
	}
}

func TestMatchPhoneticPass(t *testing.T) {
	t.Parallel()

	// "halp" fails the character-overlap rule against "help" but shares its
	// Double Metaphone code.
	plain := NewMatcher(Config{})
	phonetic := NewMatcher(Config{PhoneticEnabled: true, PhoneticThreshold: 0.8})
	set := NewKeywordSet()

	if matched := plain.Match("halp", set); slices.Contains(matched, "help") {
		t.Errorf("plain matcher matched %q: %v", "help", matched)
	}
	if matched := phonetic.Match("halp", set); !slices.Contains(matched, "help") {
		t.Errorf("phonetic matcher missed %q: %v", "help", matched)
	}
}

func TestContainsWordSequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		haystack []string
		needle   []string
		want     bool
	}{
		{"exact", []string{"help", "me"}, []string{"help", "me"}, true},
		{"embedded", []string{"please", "help", "me", "now"}, []string{"help", "me"}, true},
		{"non contiguous", []string{"help", "us", "me"}, []string{"help", "me"}, false},
		{"needle longer", []string{"help"}, []string{"help", "me"}, false},
		{"empty needle", []string{"help"}, nil, false},
		{"at end", []string{"now", "help", "me"}, []string{"help", "me"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := containsWordSequence(tt.haystack, tt.needle); got != tt.want {
				t.Errorf("containsWordSequence(%v, %v) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
			}
		})
	}
}

func TestOverlapSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		word    string
		keyword string
		want    float64
	}{
		{"identical", "help", "help", 1.0},
		{"slip", "emergancy", "emergency", 8.0 / 9.0},
		{"partial", "halp", "help", 0.75},
		{"word longer", "helping", "help", 4.0 / 7.0},
		{"no overlap", "xyz", "help", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := overlapSimilarity(tt.word, tt.keyword)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("overlapSimilarity(%q, %q) = %v, want %v", tt.word, tt.keyword, got, tt.want)
			}
		})
	}
}
