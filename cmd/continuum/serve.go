package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/httpapi"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Continuum HTTP API and background analyzers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	commitLinker := analyze.NewCommitLinker(a.graph, analyze.CommitLinkConfig{
		WindowBefore:   time.Duration(cfg.Git.CommitLinkWindowHours) * time.Hour,
		ScoreThreshold: cfg.Git.CommitLinkScoreThreshold,
	})
	dormant := analyze.NewDormantDetector(a.graph)

	router := httpapi.NewRouter(httpapi.Deps{
		Agent:        a.agent,
		Graph:        a.graphAPI(),
		Notify:       a.notifySvc,
		NotifyHub:    a.notifyHub,
		Commits:      commitLinker,
		Dormant:      dormant,
		Capture:      a.capture,
		CaptureStore: a.pg,
	})

	assumption := analyze.NewAssumptionMonitor(a.graph)
	staleness := analyze.NewStalenessClassifier(a.graph, analyze.StalenessThresholds{
		model.ScopeTactical:      time.Duration(cfg.Graph.StaleTacticalDays) * 24 * time.Hour,
		model.ScopeStrategic:     time.Duration(cfg.Graph.StaleStrategicDays) * 24 * time.Hour,
		model.ScopeArchitectural: time.Duration(cfg.Graph.StaleArchitecturalDays) * 24 * time.Hour,
	})
	ontology := a.ontologyUpdater(cfg)

	jobs := scheduler.DefaultJobs(dormant, assumption, staleness, ontology, a.notifySvc)
	sched := scheduler.New(jobs, func() []string { return knownUserIDs(ctx, a) })
	go sched.Start(ctx)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownDrain)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", cfg.HTTP.Addr).Info("continuum: listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// knownUserIDs is the scheduler's tenant list. Continuum has no tenant
// directory of its own yet (spec.md's auth layer is external), so this
// stands in for a real lookup until one exists.
func knownUserIDs(ctx context.Context, a *app) []string {
	return []string{}
}
