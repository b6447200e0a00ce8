package metrics

import (
	"math"
	"time"

	"portmon/internal/models"
)

// AvailabilitySummary summarises reachability of the monitored target.
type AvailabilitySummary struct {
	UptimePercent float64 `json:"uptime_percent"`
	TotalChecks   int     `json:"total_checks"`
	Passing       int     `json:"passing"`
	Failing       int     `json:"failing"`
	LastState     string  `json:"last_state,omitempty"`
	LastChecked   string  `json:"last_checked,omitempty"`
}

// ComputeAvailability aggregates reachability statistics from check samples.
func ComputeAvailability(samples []models.CheckSample) AvailabilitySummary {
	summary := AvailabilitySummary{}
	var lastTime time.Time

	for _, sample := range samples {
		if sample.OK {
			summary.Passing++
		} else {
			summary.Failing++
		}
		if sample.Online {
			summary.LastState = "online"
		} else {
			summary.LastState = "offline"
		}
		lastTime = sample.CheckedAt
	}

	summary.TotalChecks = summary.Passing + summary.Failing
	if summary.TotalChecks > 0 {
		summary.UptimePercent = round2(float64(summary.Passing) / float64(summary.TotalChecks) * 100)
	}
	if !lastTime.IsZero() {
		summary.LastChecked = lastTime.UTC().Format(time.RFC3339)
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
