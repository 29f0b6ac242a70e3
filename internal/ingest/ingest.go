// Package ingest composes the end-to-end pipeline of spec.md sections
// 4.1-4.5: parse a raw conversation log, split it into episodes, extract
// decision drafts from each episode, and persist every draft through
// agentctx.Remember (which itself handles entity resolution, embedding,
// graph write, and evolution analysis). This mirrors the teacher's
// cmd/crisk-check-server composition order of "parse -> analyze ->
// persist" rather than introducing a new orchestration shape.
package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/continuum-dev/continuum/internal/agentctx"
	"github.com/continuum-dev/continuum/internal/export"
	"github.com/continuum-dev/continuum/internal/extract"
	"github.com/continuum-dev/continuum/internal/logging"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/parse"
)

// Extractor is the narrow slice of *extract.Extractor a Pipeline needs,
// so tests can supply a stub that never calls an LLM.
type Extractor interface {
	Extract(ctx context.Context, userID string, conv *model.Conversation) ([]extract.DecisionDraft, error)
}

// Config controls episode splitting and which source a Remembered
// decision should be tagged with.
type Config struct {
	EpisodeGap time.Duration
	Source     model.SourceType
}

func DefaultConfig() Config {
	return Config{EpisodeGap: 10 * time.Minute, Source: model.SourceClaudeLog}
}

// Pipeline turns a raw conversation log into persisted decisions and an
// exported markdown record.
type Pipeline struct {
	extractor Extractor
	agent     *agentctx.Service
	exporter  *export.Exporter
	cfg       Config
}

func New(extractor Extractor, agent *agentctx.Service, exporter *export.Exporter, cfg Config) *Pipeline {
	return &Pipeline{extractor: extractor, agent: agent, exporter: exporter, cfg: cfg}
}

// Result summarizes one IngestLog call.
type Result struct {
	DecisionIDs  []string
	ExportPath   string
	DecisionsLog string
}

// IngestLog parses r, splits it into episodes, extracts and persists a
// decision per draft found, then exports the conversation to markdown.
// It does not write the project's DECISIONS.md log (Result.DecisionsLog
// stays empty), and the exported file has no Extracted Decisions section.
func (p *Pipeline) IngestLog(ctx context.Context, userID string, r io.Reader, project string, sessionTimestamp time.Time, sourcePath string) (*Result, error) {
	conv, err := parse.Parse(r, project, sessionTimestamp)
	if err != nil {
		return nil, fmt.Errorf("ingest: parse: %w", err)
	}

	episodes := parse.SplitEpisodes(conv.Turns, p.cfg.EpisodeGap)
	if len(episodes) == 0 {
		episodes = []model.Episode{{Turns: conv.Turns}}
	}

	var result Result
	var persisted []*model.Decision
	for _, ep := range episodes {
		episodeConv := &model.Conversation{Project: conv.Project, SessionTimestamp: conv.SessionTimestamp, Turns: ep.Turns}
		drafts, err := p.extractor.Extract(ctx, userID, episodeConv)
		if err != nil {
			logging.Warn("ingest: extraction failed for episode, continuing", "project", project, "error", err)
			continue
		}

		for _, draft := range drafts {
			resp, err := p.agent.Remember(ctx, userID, agentctx.RememberRequest{
				Project: project,
				Source:  p.cfg.Source,
				Draft:   draft,
			})
			if err != nil {
				logging.Warn("ingest: remember failed, skipping draft", "project", project, "error", err)
				continue
			}
			result.DecisionIDs = append(result.DecisionIDs, resp.DecisionID)
		}
	}

	messages := make([]export.ConversationMessage, len(conv.Turns))
	for i, t := range conv.Turns {
		messages[i] = export.ConversationMessage{Role: t.Role, Content: t.Content}
	}
	exportPath, err := p.exporter.ExportConversation(project, sessionTimestamp, messages, sourcePath, persisted)
	if err != nil {
		return nil, fmt.Errorf("ingest: export conversation: %w", err)
	}
	result.ExportPath = exportPath

	return &result, nil
}
