package detection

// Level is the safety classification of a transcript
type Level string

const (
	LevelNormal    Level = "NORMAL"
	LevelHighAlert Level = "HIGH_ALERT"
)

// Result holds the outcome of one detection pass over a transcript.
// SafetyLevel is HIGH_ALERT iff MatchedKeywords is non-empty.
type Result struct {
	Transcript           string   `json:"transcription"`
	MatchedKeywords      []string `json:"detectedKeywords"`
	TotalKeywordsChecked int      `json:"totalKeywordsChecked"`
	SafetyLevel          Level    `json:"safetyLevel"`
}

// Classify maps a matched-keyword list to a safety level. Any single match
// is sufficient for HIGH_ALERT; there is no weighting.
func Classify(matched []string) Level {
	if len(matched) > 0 {
		return LevelHighAlert
	}
	return LevelNormal
}

// NewResult assembles a Result for the given transcript and matches, deriving
// the safety level from the matched set.
func NewResult(transcript string, matched []string, totalChecked int) *Result {
	if matched == nil {
		matched = []string{}
	}
	return &Result{
		Transcript:           transcript,
		MatchedKeywords:      matched,
		TotalKeywordsChecked: totalChecked,
		SafetyLevel:          Classify(matched),
	}
}
