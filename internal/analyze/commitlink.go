package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

// CommitLinkStore is the read/write slice of *graph.Client the commit
// linker needs.
type CommitLinkStore interface {
	CreateCommitAndTouches(ctx context.Context, userID, sha, shortSHA, message, author string, committedAt time.Time, filesChanged []string) error
	DecisionsAffectingWindow(ctx context.Context, userID string, from, to time.Time) ([]graph.DecisionFilesRow, error)
	WriteImplementedBy(ctx context.Context, userID, decisionID, sha string, score float64, linkedAt time.Time) error
}

// CommitLinkConfig controls the linker's time window and score cutoff.
type CommitLinkConfig struct {
	WindowBefore   time.Duration
	ScoreThreshold float64
}

func DefaultCommitLinkConfig() CommitLinkConfig {
	return CommitLinkConfig{WindowBefore: 2 * time.Hour, ScoreThreshold: 0.3}
}

// LinkResult is one decision the linker judged likely implemented by a
// commit.
type LinkResult struct {
	DecisionID string
	Score      float64
}

// CommitLinker handles the `POST /api/git/commit` webhook: persist the
// commit, find decisions in the preceding window whose AFFECTS files
// overlap the commit's changed files, and link the ones above threshold
// (spec.md section 4.6).
type CommitLinker struct {
	store CommitLinkStore
	cfg   CommitLinkConfig
	now   func() time.Time
}

func NewCommitLinker(store CommitLinkStore, cfg CommitLinkConfig) *CommitLinker {
	return &CommitLinker{store: store, cfg: cfg, now: time.Now}
}

func (l *CommitLinker) LinkCommit(ctx context.Context, userID string, commit model.CommitNode) ([]LinkResult, error) {
	if err := l.store.CreateCommitAndTouches(ctx, userID, commit.SHA, commit.ShortSHA, commit.Message, commit.Author, commit.CommittedAt, commit.FilesChanged); err != nil {
		return nil, fmt.Errorf("analyze: commit linker: persist commit: %w", err)
	}

	from := commit.CommittedAt.Add(-l.cfg.WindowBefore)
	candidates, err := l.store.DecisionsAffectingWindow(ctx, userID, from, commit.CommittedAt)
	if err != nil {
		return nil, fmt.Errorf("analyze: commit linker: candidates: %w", err)
	}

	var linked []LinkResult
	linkedAt := l.now()
	for _, cand := range candidates {
		score := Jaccard(cand.Files, commit.FilesChanged)
		if score < l.cfg.ScoreThreshold {
			continue
		}
		if err := l.store.WriteImplementedBy(ctx, userID, cand.DecisionID, commit.SHA, score, linkedAt); err != nil {
			return nil, fmt.Errorf("analyze: commit linker: write implemented_by: %w", err)
		}
		linked = append(linked, LinkResult{DecisionID: cand.DecisionID, Score: score})
	}
	return linked, nil
}

// Jaccard computes |a ∩ b| / |a ∪ b| over two file-path sets, spec.md
// section 4.6's overlap score between a decision's affected files and a
// commit's changed files.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, f := range a {
		set[f] = struct{}{}
	}
	intersection := 0
	union := make(map[string]struct{}, len(a)+len(b))
	for _, f := range a {
		union[f] = struct{}{}
	}
	for _, f := range b {
		union[f] = struct{}{}
		if _, ok := set[f]; ok {
			intersection++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
