package store

import (
	"time"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// InstructionRecord is one issued generation instruction. Once written
// it is never mutated except for the Submitted flag, which flips
// exactly once.
type InstructionRecord struct {
	InstructionID  string         `json:"instruction_id"`
	AgentID        string         `json:"agent_id,omitempty"`
	Selection      axis.Selection `json:"selection"`
	TargetTOON     string         `json:"server_target_toon"`
	Prompt         string         `json:"prompt"`
	MustInclude    []string       `json:"must_include,omitempty"`
	MustAvoid      []string       `json:"must_avoid,omitempty"`
	IssuedAt       time.Time      `json:"issued_at"`
	Submitted      bool           `json:"submitted"`
}

// SubmissionRecord is one accepted submission.
type SubmissionRecord struct {
	InstructionID     string         `json:"instruction_id"`
	AgentID           string         `json:"agent_id,omitempty"`
	CaseText          string         `json:"case_text"`
	Selection         axis.Selection `json:"selection"`
	NameCoverageOK    bool           `json:"name_coverage_ok"`
	LeakageOK         bool           `json:"leakage_ok"`
	SimilarityWarning bool           `json:"similarity_warning"`
	SimilarityScore   float64        `json:"similarity_score"`
	SubmittedAt       time.Time      `json:"submitted_at"`
}

// trainRow is one line of the Mistral-format training export: a two-turn
// chat exchange where the user turn is the generation prompt wrapped
// around the submitted case text, and the assistant turn is the locked
// TOON target it must be extracted into.
type trainRow struct {
	Messages []trainMessage `json:"messages"`
}

type trainMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func newTrainRow(prompt, caseText, targetTOON string) trainRow {
	return trainRow{Messages: []trainMessage{
		{Role: "user", Content: prompt + "\n\n## Texte du cas\n" + caseText},
		{Role: "assistant", Content: targetTOON},
	}}
}
