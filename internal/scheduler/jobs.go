package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/notify"
)

// Default tick intervals for the background analyzers (spec.md section
// 4.6): dormant and ontology mining are cheap-but-wide scans run weekly,
// assumption and staleness checks run daily since they gate
// notifications a user acts on sooner.
const (
	DormantInterval   = 7 * 24 * time.Hour
	AssumptionInterval = 24 * time.Hour
	StalenessInterval  = 24 * time.Hour
	OntologyInterval   = 7 * 24 * time.Hour

	defaultScanLimit = 100
)

// DefaultJobs wires the dormant-alternative detector, assumption
// monitor, staleness classifier, and ontology updater into notify.Service
// so a finding becomes a durable, fanned-out notification (spec.md
// section 4.9). The commit linker is intentionally absent — it's
// webhook-triggered from `/api/git/commit`, not ticker-driven.
func DefaultJobs(dormant *analyze.DormantDetector, assumption *analyze.AssumptionMonitor, staleness *analyze.StalenessClassifier, ontology *analyze.OntologyUpdater, notifier *notify.Service) []Job {
	return []Job{
		{
			Name:     "dormant_alternatives",
			Interval: DormantInterval,
			Run: func(ctx context.Context, userID string) error {
				found, err := dormant.Find(ctx, userID, 90, defaultScanLimit)
				if err != nil {
					return fmt.Errorf("scheduler: dormant: %w", err)
				}
				for _, d := range found {
					if err := notifier.Emit(ctx, userID, model.NotificationDormantFound,
						"Dormant alternative worth reconsidering", d.Text, nil); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:     "assumption_invalidation",
			Interval: AssumptionInterval,
			Run: func(ctx context.Context, userID string) error {
				found, err := assumption.Scan(ctx, userID, defaultScanLimit)
				if err != nil {
					return fmt.Errorf("scheduler: assumption: %w", err)
				}
				for _, a := range found {
					if err := notifier.Emit(ctx, userID, model.NotificationAssumptionBad,
						"An assumption may no longer hold", a.Assumption, nil); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:     "staleness",
			Interval: StalenessInterval,
			Run: func(ctx context.Context, userID string) error {
				found, err := staleness.Scan(ctx, userID, defaultScanLimit)
				if err != nil {
					return fmt.Errorf("scheduler: staleness: %w", err)
				}
				for _, d := range found {
					if err := notifier.Emit(ctx, userID, model.NotificationStaleDecision,
						"Decision is past its staleness threshold", d.DecisionID, nil); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:     "ontology_refresh",
			Interval: OntologyInterval,
			Run: func(ctx context.Context, userID string) error {
				if _, err := ontology.MineGraphVariants(ctx, userID); err != nil {
					return fmt.Errorf("scheduler: ontology: %w", err)
				}
				return nil
			},
		},
	}
}
