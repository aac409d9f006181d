package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/mlutsiv/draftforge/internal/formatter"
	"github.com/mlutsiv/draftforge/internal/prompt"
	"github.com/mlutsiv/draftforge/internal/provider"
)

// DefaultNumTitles is how many headline options the titles node requests.
const DefaultNumTitles = 3

// Pipeline wires the refinement nodes to one provider and one formatting
// loop. Nodes run sequentially; the first node error short-circuits the
// remaining nodes and the formatting loop.
type Pipeline struct {
	completer provider.Completer
	loop      *formatter.Loop
	persona   string
	numTitles int
	log       *zap.Logger
}

// NewPipeline creates a pipeline. persona is the guidance text injected into
// formatting prompts. A nil logger disables logging.
func NewPipeline(completer provider.Completer, loop *formatter.Loop, persona string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		completer: completer,
		loop:      loop,
		persona:   persona,
		numTitles: DefaultNumTitles,
		log:       log,
	}
}

type node struct {
	name string
	run  func(ctx context.Context, st State) Patch
}

// Run executes the full graph on draft and returns the terminal state.
func (p *Pipeline) Run(ctx context.Context, draft string) State {
	st := State{
		RunID:         uuid.New().String(),
		OriginalDraft: draft,
	}

	if strings.TrimSpace(draft) == "" {
		return st.Apply(Patch{Error: str("empty draft")})
	}

	nodes := []node{
		{"introduction", p.introductionNode},
		{"conclusion", p.conclusionNode},
		{"summary", p.summaryNode},
		{"titles", p.titlesNode},
		{"assemble", p.assembleNode},
		{"clarity", p.clarityNode},
	}

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return st.Apply(Patch{Error: str(fmt.Sprintf("%s: %v", n.name, err))})
		}
		p.log.Info("refinement node", zap.String("node", n.name), zap.String("run_id", st.RunID))
		st = st.Apply(n.run(ctx, st))
		if st.Error != "" {
			p.log.Warn("refinement node failed",
				zap.String("node", n.name), zap.String("error", st.Error))
			return st
		}
	}

	return p.format(ctx, st)
}

// Format runs only the formatting loop on an already refined draft. Used by
// the format command to skip the outer graph.
func (p *Pipeline) Format(ctx context.Context, draft string) State {
	st := State{
		RunID:         uuid.New().String(),
		OriginalDraft: draft,
		RefinedDraft:  draft,
	}
	return p.format(ctx, st)
}

func (p *Pipeline) format(ctx context.Context, st State) State {
	res := p.loop.Run(ctx, st.RefinedDraft, p.persona)

	patch := Patch{
		FormattedDraft:     &res.FormattedDraft,
		FormattingScore:    &res.Score,
		FormattingMissing:  &res.Missing,
		FormattingHistory:  &res.History,
		FormattingAttempts: &res.Attempts,
		FormattingState:    str(res.State.String()),
	}
	if res.State == formatter.StateFailed {
		patch.Error = str("formatting failed: no usable draft")
	}
	return st.Apply(patch)
}

func (p *Pipeline) introductionNode(ctx context.Context, st State) Patch {
	out, err := p.completer.Complete(ctx, prompt.Introduction(st.OriginalDraft))
	if err != nil {
		return Patch{Error: str(fmt.Sprintf("introduction: %v", err))}
	}
	if strings.TrimSpace(out) == "" {
		return Patch{Error: str("introduction: empty completion")}
	}
	return Patch{Introduction: str(strings.TrimSpace(out))}
}

func (p *Pipeline) conclusionNode(ctx context.Context, st State) Patch {
	out, err := p.completer.Complete(ctx, prompt.Conclusion(st.OriginalDraft))
	if err != nil {
		return Patch{Error: str(fmt.Sprintf("conclusion: %v", err))}
	}
	if strings.TrimSpace(out) == "" {
		return Patch{Error: str("conclusion: empty completion")}
	}
	return Patch{Conclusion: str(strings.TrimSpace(out))}
}

func (p *Pipeline) summaryNode(ctx context.Context, st State) Patch {
	out, err := p.completer.Complete(ctx, prompt.Summary(st.OriginalDraft))
	if err != nil {
		return Patch{Error: str(fmt.Sprintf("summary: %v", err))}
	}
	if strings.TrimSpace(out) == "" {
		return Patch{Error: str("summary: empty completion")}
	}
	return Patch{Summary: str(strings.TrimSpace(out))}
}

// titlesNode is best-effort: a malformed or missing completion falls back to
// placeholder options instead of failing the run, since titles never gate
// downstream nodes.
func (p *Pipeline) titlesNode(ctx context.Context, st State) Patch {
	out, err := p.completer.Complete(ctx, prompt.Titles(st.OriginalDraft, p.numTitles))
	if err != nil {
		p.log.Warn("titles completion failed, using fallback", zap.Error(err))
		opts := fallbackTitles()
		return Patch{TitleOptions: &opts}
	}
	opts := parseTitleOptions(out)
	if len(opts) == 0 {
		p.log.Warn("titles completion unparseable, using fallback")
		opts = fallbackTitles()
	}
	return Patch{TitleOptions: &opts}
}

func (p *Pipeline) assembleNode(ctx context.Context, st State) Patch {
	assembled := fmt.Sprintf("## Introduction\n\n%s\n\n%s\n\n## Conclusion\n\n%s",
		st.Introduction, st.OriginalDraft, st.Conclusion)
	return Patch{RefinedDraft: str(assembled)}
}

// clarityNode asks for a flow-polished rewrite of the assembled draft. The
// raw output is kept alongside so the pre-clarity assembly stays inspectable.
func (p *Pipeline) clarityNode(ctx context.Context, st State) Patch {
	out, err := p.completer.Complete(ctx, prompt.ClarityFlow(st.RefinedDraft))
	if err != nil {
		return Patch{Error: str(fmt.Sprintf("clarity: %v", err))}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		// A silent clarity pass keeps the assembled draft as-is.
		return Patch{}
	}
	return Patch{
		ClarityFlowSuggestions: str(out),
		RefinedDraft:           str(out),
	}
}

// parseTitleOptions decodes the titles completion. It tolerates fenced output
// and mildly broken JSON by running the payload through jsonrepair before
// giving up.
func parseTitleOptions(raw string) []TitleOption {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var opts []TitleOption
	if err := json.Unmarshal([]byte(raw), &opts); err == nil {
		return compactTitles(opts)
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(repaired), &opts); err != nil {
		return nil
	}
	return compactTitles(opts)
}

func compactTitles(opts []TitleOption) []TitleOption {
	kept := opts[:0]
	for _, o := range opts {
		if strings.TrimSpace(o.Title) != "" {
			kept = append(kept, o)
		}
	}
	return kept
}

func fallbackTitles() []TitleOption {
	return []TitleOption{{
		Title:     "Untitled Draft",
		Subtitle:  "Review and title this post manually",
		Reasoning: "Title generation failed; placeholder inserted",
	}}
}
