package capture

import (
	"fmt"
	"time"
)

// ContentType is the fixed container type for captured audio artifacts.
const ContentType = "audio/webm"

// Artifact is a finalized, immutable audio capture: the concatenation of all
// segments buffered during one recording session.
type Artifact struct {
	Data        []byte
	ContentType string
	Duration    time.Duration
}

// Size returns the artifact's size in bytes.
func (a *Artifact) Size() int {
	return len(a.Data)
}

// DurationLabel returns the human-readable duration used on stored
// recordings: "m:ss", or "h:mm:ss" for captures of an hour or more.
func (a *Artifact) DurationLabel() string {
	return FormatDuration(a.Duration)
}

// FormatDuration renders d as "m:ss" or "h:mm:ss".
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
