// Package analyze holds Continuum's background analyzers: dormant
// alternatives, invalidated assumptions, commit linking, and staleness
// (spec.md section 4.6). Each analyzer is a thin wrapper around a
// narrow graph-read interface plus a pure scoring/detection function, so
// the scoring logic is unit-testable without a live graph.
package analyze

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/continuum-dev/continuum/internal/graph"
)

// DormantStore is the read slice of *graph.Client the dormant detector
// needs.
type DormantStore interface {
	DormantCandidates(ctx context.Context, userID string, limit int) ([]graph.DormantCandidateRow, error)
}

// DormantAlternative is a ranked, never-revisited rejected option.
type DormantAlternative struct {
	graph.DormantCandidateRow
	DaysDormant     int     `json:"days_dormant"`
	ReconsiderScore float64 `json:"reconsider_score"`
}

// DormantDetector finds rejected alternatives nothing later has
// revisited (spec.md section 4.6).
type DormantDetector struct {
	store DormantStore
	now   func() time.Time
}

func NewDormantDetector(store DormantStore) *DormantDetector {
	return &DormantDetector{store: store, now: time.Now}
}

// Find loads candidates, keeps ones dormant at least minDaysDormant,
// scores and ranks them, and returns the top limit.
func (d *DormantDetector) Find(ctx context.Context, userID string, minDaysDormant, limit int) ([]DormantAlternative, error) {
	rows, err := d.store.DormantCandidates(ctx, userID, queryFanout(limit))
	if err != nil {
		return nil, fmt.Errorf("analyze: dormant: %w", err)
	}

	now := d.now()
	out := make([]DormantAlternative, 0, len(rows))
	for _, row := range rows {
		daysDormant, score := ScoreDormant(row, now)
		if daysDormant < minDaysDormant {
			continue
		}
		out = append(out, DormantAlternative{DormantCandidateRow: row, DaysDormant: daysDormant, ReconsiderScore: score})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ReconsiderScore > out[j].ReconsiderScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ScoreDormant implements spec.md section 4.6's ranking formula:
// 0.6*age_score + 0.4*(1 - original_confidence), where age_score
// normalizes days-since-rejection against a one-year ceiling.
func ScoreDormant(row graph.DormantCandidateRow, now time.Time) (daysDormant int, reconsiderScore float64) {
	if row.RejectedAt.IsZero() {
		return 0, 0
	}
	daysDormant = int(now.Sub(row.RejectedAt).Hours() / 24)
	if daysDormant < 0 {
		daysDormant = 0
	}

	ageScore := float64(daysDormant) / 365
	if ageScore > 1 {
		ageScore = 1
	}
	confidence := row.OriginalConfidence
	if confidence == 0 {
		confidence = 0.7
	}
	reconsiderScore = ageScore*0.6 + (1-confidence)*0.4
	return daysDormant, reconsiderScore
}

// queryFanout widens a result-display limit into a fetch limit, since
// filtering by minDaysDormant happens client-side after the query.
func queryFanout(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit * 5
}
