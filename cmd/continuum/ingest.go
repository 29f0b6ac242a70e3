package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/continuum-dev/continuum/internal/model"
)

var (
	ingestProject string
	ingestUserID  string
)

var ingestLogCmd = &cobra.Command{
	Use:   "ingest-log <path>",
	Short: "Extract and persist decisions from a single conversation log",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestLog,
}

var ingestWatchCmd = &cobra.Command{
	Use:   "ingest-watch <dir>",
	Short: "Watch a directory for new conversation logs and ingest them as they land",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestWatch,
}

func init() {
	for _, c := range []*cobra.Command{ingestLogCmd, ingestWatchCmd} {
		c.Flags().StringVar(&ingestProject, "project", "default", "project name decisions are scoped to")
		c.Flags().StringVar(&ingestUserID, "user", model.AnonymousUserID, "user id decisions are recorded under")
	}
}

func runIngestLog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return ingestFile(ctx, a, args[0])
}

func ingestFile(ctx context.Context, a *app, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pipeline := a.ingestPipeline()
	result, err := pipeline.IngestLog(ctx, ingestUserID, f, ingestProject, time.Now(), path)
	if err != nil {
		return err
	}

	logger.WithField("decisions", len(result.DecisionIDs)).WithField("export", result.ExportPath).Info("continuum: ingested log")
	return nil
}

func runIngestWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	logger.WithField("dir", dir).Info("continuum: watching for conversation logs")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".jsonl" && filepath.Ext(event.Name) != ".json" {
				continue
			}
			if err := ingestFile(ctx, a, event.Name); err != nil {
				logger.WithError(err).Warn("continuum: ingest failed for watched file")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("continuum: watcher error")
		}
	}
}
