package history

import (
	"time"

	"portmon/internal/models"
)

// Segment is a run of consecutive checks sharing one online state.
type Segment struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Online bool      `json:"online"`
	Checks int       `json:"checks"`
}

// CollapseSegments folds check samples into online/offline segments.
// Samples are expected in chronological order, which is how the sample
// log records them.
func CollapseSegments(samples []models.CheckSample) []Segment {
	if len(samples) == 0 {
		return nil
	}

	var segments []Segment
	current := Segment{
		Start:  samples[0].CheckedAt,
		End:    samples[0].CheckedAt,
		Online: samples[0].Online,
		Checks: 1,
	}

	for _, sample := range samples[1:] {
		if sample.Online == current.Online {
			current.End = sample.CheckedAt
			current.Checks++
			continue
		}
		segments = append(segments, current)
		current = Segment{
			Start:  sample.CheckedAt,
			End:    sample.CheckedAt,
			Online: sample.Online,
			Checks: 1,
		}
	}
	return append(segments, current)
}
