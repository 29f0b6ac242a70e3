// Package export writes Continuum's decisions and conversations to
// markdown (spec.md section 6's "Markdown export format"): a
// per-project `DECISIONS.md` plus one `<timestamp>.md` per conversation,
// ported from the original MarkdownExporter's SpecStory-inspired layout
// so the stable, git-diff-friendly structure carries over unchanged.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/continuum-dev/continuum/internal/model"
)

// Exporter writes markdown under a project-scoped root directory.
type Exporter struct {
	rootDir string
}

func New(rootDir string) *Exporter {
	if rootDir == "" {
		rootDir = ".continuum/specs"
	}
	return &Exporter{rootDir: rootDir}
}

// ConversationMessage is one turn of a conversation being exported.
type ConversationMessage struct {
	Role    model.Role
	Content string
}

// ExportConversation writes one `<timestamp>.md` file per conversation,
// per spec.md section 6.
func (e *Exporter) ExportConversation(project string, timestamp time.Time, messages []ConversationMessage, sourcePath string, decisions []*model.Decision) (string, error) {
	projectDir := filepath.Join(e.rootDir, project)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("export: make project dir: %w", err)
	}

	filename := timestamp.Format("20060102-150405") + ".md"
	path := filepath.Join(projectDir, filename)

	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation: %s\n\n", project)
	fmt.Fprintf(&b, "**Date**: %s\n\n", timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Source**: %s\n\n", sourcePath)
	b.WriteString("---\n\n## Conversation\n\n")

	for i, m := range messages {
		fmt.Fprintf(&b, "### Turn %d: %s\n\n", i, titleCase(string(m.Role)))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if len(decisions) > 0 {
		b.WriteString("---\n\n## Extracted Decisions\n\n")
		for i, d := range decisions {
			writeDecisionSection(&b, i+1, d, "###")
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("export: write conversation file: %w", err)
	}
	return path, nil
}

// AppendDecisionsLog rewrites a project's DECISIONS.md with decisions in
// full, the same "regenerate the whole log" approach the original
// exporter takes rather than a true incremental append, so the file
// stays internally consistent even after an edit or delete.
func (e *Exporter) AppendDecisionsLog(project string, decisions []*model.Decision) (string, error) {
	projectDir := filepath.Join(e.rootDir, project)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("export: make project dir: %w", err)
	}
	path := filepath.Join(projectDir, "DECISIONS.md")

	var b strings.Builder
	fmt.Fprintf(&b, "# Decisions: %s\n\n", project)
	fmt.Fprintf(&b, "*Last updated: %s*\n\n---\n\n", time.Now().Format("2006-01-02 15:04:05"))

	for i, d := range decisions {
		writeDecisionSection(&b, i+1, d, "##")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("export: write decisions log: %w", err)
	}
	return path, nil
}

func writeDecisionSection(b *strings.Builder, index int, d *model.Decision, headingLevel string) {
	fmt.Fprintf(b, "%s Decision %d\n\n", headingLevel, index)
	fmt.Fprintf(b, "%s %s\n\n", headingLevel+"#", orNA(d.AgentDecision))
	fmt.Fprintf(b, "**Trigger**: %s\n\n", orNA(d.Trigger))
	fmt.Fprintf(b, "**Context**: %s\n\n", orNA(d.Context))
	b.WriteString("**Options Considered**:\n")
	for _, opt := range d.Options {
		fmt.Fprintf(b, "- %s\n", opt)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "**Rationale**: %s\n\n", orNA(d.AgentRationale))
	fmt.Fprintf(b, "**Confidence**: %.2f\n\n", d.Confidence)
	if d.Provenance.Source.TurnIndex != 0 {
		fmt.Fprintf(b, "**Turn Index**: %d\n\n", d.Provenance.Source.TurnIndex)
	}
	if q := d.Grounding.VerbatimDecision; q != "" {
		b.WriteString("**Verbatim Quote**:\n\n")
		fmt.Fprintf(b, "> %s\n\n", q)
	}
	b.WriteString("---\n\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
