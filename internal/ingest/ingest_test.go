package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/agentctx"
	"github.com/continuum-dev/continuum/internal/export"
	"github.com/continuum-dev/continuum/internal/extract"
	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

type fakeExtractor struct {
	drafts []extract.DecisionDraft
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, userID string, conv *model.Conversation) ([]extract.DecisionDraft, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.drafts, nil
}

type fakeWriter struct {
	writes []graph.DecisionWrite
}

func (f *fakeWriter) Write(ctx context.Context, dw graph.DecisionWrite) error {
	dw.Decision.ID = "decision-" + string(rune('a'+len(f.writes)))
	f.writes = append(f.writes, dw)
	return nil
}

func newTestPipeline(t *testing.T, extractor Extractor) (*Pipeline, *fakeWriter) {
	t.Helper()
	writer := &fakeWriter{}
	agent := agentctx.New(nil, writer, nil, nil, nil, nil, agentctx.DefaultConfig())
	exporter := export.New(t.TempDir())
	return New(extractor, agent, exporter, DefaultConfig()), writer
}

const sampleLog = `{"role":"user","content":"should we use postgres for the event store?"}
{"role":"assistant","content":"yes, postgres over dynamo for transactional guarantees"}`

func TestIngestLogPersistsADraftPerExtractedDecision(t *testing.T) {
	extractor := &fakeExtractor{drafts: []extract.DecisionDraft{
		{AgentDecision: "use postgres for the event store", Confidence: 0.8},
	}}
	pipeline, writer := newTestPipeline(t, extractor)

	result, err := pipeline.IngestLog(context.Background(), "user-1", strings.NewReader(sampleLog), "proj", time.Now(), "log.jsonl")

	require.NoError(t, err)
	assert.Len(t, result.DecisionIDs, 1)
	assert.Len(t, writer.writes, 1)
	assert.NotEmpty(t, result.ExportPath)
}

func TestIngestLogContinuesWhenExtractionFailsForAnEpisode(t *testing.T) {
	extractor := &fakeExtractor{err: assert.AnError}
	pipeline, writer := newTestPipeline(t, extractor)

	result, err := pipeline.IngestLog(context.Background(), "user-1", strings.NewReader(sampleLog), "proj", time.Now(), "log.jsonl")

	require.NoError(t, err)
	assert.Empty(t, result.DecisionIDs)
	assert.Empty(t, writer.writes)
	assert.Equal(t, 1, extractor.calls)
}

func TestIngestLogSkipsEmptyDrafts(t *testing.T) {
	extractor := &fakeExtractor{}
	pipeline, writer := newTestPipeline(t, extractor)

	result, err := pipeline.IngestLog(context.Background(), "user-1", strings.NewReader(sampleLog), "proj", time.Now(), "log.jsonl")

	require.NoError(t, err)
	assert.Empty(t, result.DecisionIDs)
	assert.Empty(t, writer.writes)
}
