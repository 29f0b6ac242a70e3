package analyze

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/continuum-dev/continuum/internal/graph"
)

// AssumptionStore is the read/write slice of *graph.Client the
// assumption-violation monitor needs.
type AssumptionStore interface {
	DecisionsWithAssumptions(ctx context.Context, userID string, limit int) ([]graph.AssumptionSourceRow, error)
	DecisionsAfter(ctx context.Context, userID string, after time.Time, limit int) ([]graph.LaterDecisionRow, error)
	WriteAssumptionInvalidated(ctx context.Context, invalidatingID, olderID, assumption string, detectedAt time.Time) error
}

// InvalidatedAssumption is one flagged contradiction, ready to become a
// notification.
type InvalidatedAssumption struct {
	DecisionID             string
	DecisionTrigger        string
	Assumption             string
	InvalidatingDecisionID string
	InvalidatingTrigger    string
	Confidence             float64
}

// AssumptionMonitor scans decisions for assumptions newer decisions have
// since contradicted (spec.md section 4.6).
type AssumptionMonitor struct {
	store AssumptionStore
	now   func() time.Time
}

func NewAssumptionMonitor(store AssumptionStore) *AssumptionMonitor {
	return &AssumptionMonitor{store: store, now: time.Now}
}

// Scan loads decisions with stated assumptions and, for each, checks
// every later decision for a contradiction, persisting a
// ASSUMPTION_INVALIDATED edge on the first one found per assumption.
func (m *AssumptionMonitor) Scan(ctx context.Context, userID string, limit int) ([]InvalidatedAssumption, error) {
	sources, err := m.store.DecisionsWithAssumptions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("analyze: assumption monitor: %w", err)
	}

	var flagged []InvalidatedAssumption
	for _, src := range sources {
		later, err := m.store.DecisionsAfter(ctx, userID, src.CreatedAt, limit)
		if err != nil {
			return nil, fmt.Errorf("analyze: assumption monitor: later decisions for %s: %w", src.DecisionID, err)
		}

		for _, assumption := range src.Assumptions {
			for _, l := range later {
				contradicted, confidence := Contradicted(assumption, l.Trigger+" "+l.Context+" "+l.Text)
				if !contradicted {
					continue
				}
				if err := m.store.WriteAssumptionInvalidated(ctx, l.DecisionID, src.DecisionID, assumption, m.now()); err != nil {
					return nil, fmt.Errorf("analyze: assumption monitor: write edge: %w", err)
				}
				flagged = append(flagged, InvalidatedAssumption{
					DecisionID: src.DecisionID, DecisionTrigger: src.Trigger,
					Assumption: assumption, InvalidatingDecisionID: l.DecisionID,
					InvalidatingTrigger: l.Trigger, Confidence: confidence,
				})
				break // first contradiction per assumption is enough
			}
		}
	}
	return flagged, nil
}

var negationPhrases = []string{
	"no longer", "deprecated", "replaced by", "removed", "migrated away from",
	"switched from", "moved away from", "abandoned", "dropped support for",
}

var antonymPairs = [][2]string{
	{"monolith", "microservice"},
	{"synchronous", "async"},
	{"sql", "nosql"},
	{"rest", "graphql"},
	{"rest", "grpc"},
	{"single tenant", "multi tenant"},
	{"single-tenant", "multi-tenant"},
	{"postgres", "mongodb"},
	{"postgres", "cassandra"},
	{"jwt", "session"},
	{"class", "functional"},
	{"oop", "functional"},
	{"on-premise", "cloud"},
	{"on-prem", "cloud"},
}

var scaleNumberPattern = regexp.MustCompile(`\b(\d[\d,]*)\s*(req|rps|users|records|gb|mb|kb|ms)\b`)

// Contradicted ports spec.md section 4.6's three keyword-based
// contradiction checks: a negation phrase in the later text together
// with a word of the assumption longer than four characters (both may
// sit anywhere in the later text; their distance is not checked),
// curated antonym pairs, and scale-unit numeric comparisons (>=10x growth).
// Returns (true, confidence) on the first check that matches.
func Contradicted(assumption, laterText string) (bool, float64) {
	assumptionLower := strings.ToLower(assumption)
	laterLower := strings.ToLower(laterText)

	for _, phrase := range negationPhrases {
		if !strings.Contains(laterLower, phrase) {
			continue
		}
		for _, word := range strings.Fields(assumptionLower) {
			if len(word) > 4 && strings.Contains(laterLower, word) {
				return true, 0.75
			}
		}
	}

	for _, pair := range antonymPairs {
		a, b := pair[0], pair[1]
		if strings.Contains(assumptionLower, a) && strings.Contains(laterLower, b) {
			return true, 0.80
		}
		if strings.Contains(assumptionLower, b) && strings.Contains(laterLower, a) {
			return true, 0.80
		}
	}

	assumptionNumbers := scaleNumberPattern.FindAllStringSubmatch(assumptionLower, -1)
	laterNumbers := scaleNumberPattern.FindAllStringSubmatch(laterLower, -1)
	for _, am := range assumptionNumbers {
		aNum, unit := parseScaleNumber(am)
		for _, lm := range laterNumbers {
			lNum, lUnit := parseScaleNumber(lm)
			if unit == lUnit && lNum >= aNum*10 {
				return true, 0.70
			}
		}
	}

	return false, 0
}

func parseScaleNumber(match []string) (int64, string) {
	numStr := strings.ReplaceAll(match[1], ",", "")
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, match[2]
	}
	return n, match[2]
}
