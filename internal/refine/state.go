// Package refine runs the draft refinement graph: a fixed sequence of LLM
// nodes (introduction, conclusion, summary, titles, assemble, clarity pass)
// followed by the validator-gated formatting loop. Nodes never mutate shared
// state; each returns a patch that is merged atomically, so a failed node
// leaves everything it did not touch intact.
package refine

import "github.com/mlutsiv/draftforge/internal/formatter"

// TitleOption is one candidate headline produced by the titles node.
type TitleOption struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Reasoning string `json:"reasoning"`
}

// State is the full record of one pipeline run. Fields fill in node order;
// Error is set by the first node that fails and short-circuits the rest.
type State struct {
	RunID         string `json:"run_id"`
	OriginalDraft string `json:"original_draft"`

	Introduction string        `json:"introduction,omitempty"`
	Conclusion   string        `json:"conclusion,omitempty"`
	Summary      string        `json:"summary,omitempty"`
	TitleOptions []TitleOption `json:"title_options,omitempty"`

	// RefinedDraft is the assembled draft, updated in place by the clarity
	// pass. ClarityFlowSuggestions keeps the clarity node's raw output so the
	// pre-clarity assembly stays reconstructible.
	RefinedDraft           string `json:"refined_draft,omitempty"`
	ClarityFlowSuggestions string `json:"clarity_flow_suggestions,omitempty"`

	FormattedDraft     string                    `json:"formatted_draft,omitempty"`
	FormattingScore    float64                   `json:"formatting_score,omitempty"`
	FormattingMissing  []string                  `json:"formatting_missing,omitempty"`
	FormattingHistory  []formatter.AttemptRecord `json:"formatting_history,omitempty"`
	FormattingAttempts int                       `json:"formatting_attempts,omitempty"`
	FormattingState    string                    `json:"formatting_state,omitempty"`

	Error string `json:"error,omitempty"`
}

// Patch is the delta one node contributes. Nil fields are untouched on merge.
type Patch struct {
	Introduction *string
	Conclusion   *string
	Summary      *string
	TitleOptions *[]TitleOption

	RefinedDraft           *string
	ClarityFlowSuggestions *string

	FormattedDraft     *string
	FormattingScore    *float64
	FormattingMissing  *[]string
	FormattingHistory  *[]formatter.AttemptRecord
	FormattingAttempts *int
	FormattingState    *string

	Error *string
}

// Apply merges the patch into a copy of s and returns the copy.
func (s State) Apply(p Patch) State {
	if p.Introduction != nil {
		s.Introduction = *p.Introduction
	}
	if p.Conclusion != nil {
		s.Conclusion = *p.Conclusion
	}
	if p.Summary != nil {
		s.Summary = *p.Summary
	}
	if p.TitleOptions != nil {
		s.TitleOptions = *p.TitleOptions
	}
	if p.RefinedDraft != nil {
		s.RefinedDraft = *p.RefinedDraft
	}
	if p.ClarityFlowSuggestions != nil {
		s.ClarityFlowSuggestions = *p.ClarityFlowSuggestions
	}
	if p.FormattedDraft != nil {
		s.FormattedDraft = *p.FormattedDraft
	}
	if p.FormattingScore != nil {
		s.FormattingScore = *p.FormattingScore
	}
	if p.FormattingMissing != nil {
		s.FormattingMissing = *p.FormattingMissing
	}
	if p.FormattingHistory != nil {
		s.FormattingHistory = *p.FormattingHistory
	}
	if p.FormattingAttempts != nil {
		s.FormattingAttempts = *p.FormattingAttempts
	}
	if p.FormattingState != nil {
		s.FormattingState = *p.FormattingState
	}
	if p.Error != nil {
		s.Error = *p.Error
	}
	return s
}

func str(s string) *string { return &s }
