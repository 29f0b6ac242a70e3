package agentctx

import (
	"context"

	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/model"
)

// SummaryResponse is `/api/agent/summary`'s payload: a project overview
// enriched with the signals the background analyzers already compute,
// per spec.md section 6.
type SummaryResponse struct {
	TotalDecisions int                         `json:"total_decisions"`
	ByScope        map[model.Scope]int         `json:"by_scope"`
	Dormant        []analyze.DormantAlternative `json:"dormant_alternatives"`
	Stale          []analyze.StaleDecision      `json:"stale_decisions"`
}

const summaryListLimit = 10

// Summary implements `/api/agent/summary`: a count of decisions by
// scope plus the current dormant-alternative and stale-decision lists,
// so an agent can orient itself before asking anything more specific.
func (s *Service) Summary(ctx context.Context, userID string) (*SummaryResponse, error) {
	rows, err := s.store.ActiveDecisions(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	byScope := make(map[model.Scope]int, len(rows))
	for _, row := range rows {
		byScope[model.Scope(row.Scope)]++
	}

	dormant, err := s.dormant.Find(ctx, userID, s.cfg.DormantMinDays, summaryListLimit)
	if err != nil {
		return nil, err
	}

	stale, err := s.staleness.Scan(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if len(stale) > summaryListLimit {
		stale = stale[:summaryListLimit]
	}

	return &SummaryResponse{
		TotalDecisions: len(rows),
		ByScope:        byScope,
		Dormant:        dormant,
		Stale:          stale,
	}, nil
}
