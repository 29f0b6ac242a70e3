package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

// StalenessStore is the read slice of *graph.Client the staleness
// classifier needs.
type StalenessStore interface {
	ActiveDecisions(ctx context.Context, userID string, limit int) ([]graph.ScopedDecisionRow, error)
}

// StalenessThresholds maps scope to the age past which a decision is
// flagged stale, per spec.md section 4.6's per-scope defaults.
type StalenessThresholds map[model.Scope]time.Duration

func DefaultStalenessThresholds() StalenessThresholds {
	return StalenessThresholds{
		model.ScopeTactical:      30 * 24 * time.Hour,
		model.ScopeStrategic:     180 * 24 * time.Hour,
		model.ScopeArchitectural: 365 * 24 * time.Hour,
	}
}

// StaleDecision is one decision past its scope's staleness threshold.
type StaleDecision struct {
	DecisionID string
	Scope      model.Scope
	Age        time.Duration
}

// StalenessClassifier flags decisions older than their scope's
// threshold (spec.md section 4.6).
type StalenessClassifier struct {
	store      StalenessStore
	thresholds StalenessThresholds
	now        func() time.Time
}

func NewStalenessClassifier(store StalenessStore, thresholds StalenessThresholds) *StalenessClassifier {
	return &StalenessClassifier{store: store, thresholds: thresholds, now: time.Now}
}

func (s *StalenessClassifier) Scan(ctx context.Context, userID string, limit int) ([]StaleDecision, error) {
	rows, err := s.store.ActiveDecisions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("analyze: staleness: %w", err)
	}

	now := s.now()
	var out []StaleDecision
	for _, row := range rows {
		scope := model.Scope(row.Scope)
		age := now.Sub(row.CreatedAt)
		if IsStale(scope, age, s.thresholds) {
			out = append(out, StaleDecision{DecisionID: row.DecisionID, Scope: scope, Age: age})
		}
	}
	return out, nil
}

// IsStale reports whether age exceeds the threshold configured for
// scope. An unconfigured or unknown scope never flags stale.
func IsStale(scope model.Scope, age time.Duration, thresholds StalenessThresholds) bool {
	threshold, ok := thresholds[scope]
	if !ok {
		return false
	}
	return age > threshold
}
