// Package parse turns line-delimited conversation log records into a
// model.Conversation. It is a pure producer: no I/O beyond reading the
// source, no LLM or graph access (spec.md section 4.1).
package parse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/continuum-dev/continuum/internal/model"
)

// rawRecord is the line-delimited JSON shape of one log record.
type rawRecord struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ToolCalls []struct {
		Name      string   `json:"name"`
		FilePaths []string `json:"file_paths"`
	} `json:"tool_calls"`
}

// Parse reads a line-delimited conversation log from r and produces a
// model.Conversation. project and sessionTimestamp describe the source
// session; they aren't derivable from the log body itself.
func Parse(r io.Reader, project string, sessionTimestamp time.Time) (*model.Conversation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	conv := &model.Conversation{Project: project, SessionTimestamp: sessionTimestamp}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse: line %d: %w", lineNo, err)
		}

		role, err := parseRole(rec.Role)
		if err != nil {
			return nil, fmt.Errorf("parse: line %d: %w", lineNo, err)
		}

		turn := model.Turn{
			Role:      role,
			Content:   rec.Content,
			Timestamp: rec.Timestamp,
		}
		for _, tc := range rec.ToolCalls {
			turn.ToolCalls = append(turn.ToolCalls, model.ToolCallRef{
				Name:      tc.Name,
				FilePaths: tc.FilePaths,
			})
		}
		conv.Turns = append(conv.Turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse: scan: %w", err)
	}

	return conv, nil
}

func parseRole(s string) (model.Role, error) {
	switch model.Role(s) {
	case model.RoleUser, model.RoleAssistant, model.RoleSystem:
		return model.Role(s), nil
	default:
		return "", fmt.Errorf("unrecognized role %q", s)
	}
}

// SplitEpisodes splits turns into episodes whenever the gap between two
// consecutive turns' timestamps exceeds gap (default 10 minutes per
// spec.md section 4.1). A pure function, independently testable.
func SplitEpisodes(turns []model.Turn, gap time.Duration) []model.Episode {
	if len(turns) == 0 {
		return nil
	}
	var episodes []model.Episode
	current := []model.Turn{turns[0]}
	for i := 1; i < len(turns); i++ {
		prev, cur := turns[i-1], turns[i]
		if !prev.Timestamp.IsZero() && !cur.Timestamp.IsZero() && cur.Timestamp.Sub(prev.Timestamp) > gap {
			episodes = append(episodes, model.Episode{Turns: current})
			current = nil
		}
		current = append(current, cur)
	}
	episodes = append(episodes, model.Episode{Turns: current})
	return episodes
}
