// Package formatter runs the validator-gated formatting loop: it asks a
// provider to restructure a draft, scores the candidate with the rubric,
// and retries with an escalating prompt until the score clears the
// acceptance threshold or the attempt ceiling is spent.
package formatter

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mlutsiv/draftforge/internal/prompt"
	"github.com/mlutsiv/draftforge/internal/provider"
	"github.com/mlutsiv/draftforge/internal/rubric"
)

// State names the phase of a formatting run. A run moves
// Pending -> Attempting -> Validating and then either terminates
// (Accepted, Exhausted, Failed) or loops back through Retrying.
type State int

const (
	StatePending State = iota
	StateAttempting
	StateValidating
	StateAccepted
	StateRetrying
	StateExhausted
	StateFailed
)

var stateNames = map[State]string{
	StatePending:    "pending",
	StateAttempting: "attempting",
	StateValidating: "validating",
	StateAccepted:   "accepted",
	StateRetrying:   "retrying",
	StateExhausted:  "exhausted",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateExhausted || s == StateFailed
}

// Preservation penalties compose multiplicatively on the rubric score, so a
// candidate that dropped both prose and equations is penalized twice.
const (
	contentLossPenalty = 0.8
	latexLossPenalty   = 0.9
)

// AttemptRecord is the audit entry for one spent attempt. One record is
// appended per attempt, including attempts that failed before validation
// (provider errors, validator panics), so len(history) always equals the
// number of attempts spent.
type AttemptRecord struct {
	Attempt  int      `json:"attempt"`
	Score    float64  `json:"score"`
	Missing  []string `json:"missing"`
	Present  []string `json:"present"`
	Feedback string   `json:"feedback"`
}

// Config tunes the loop. Zero values fall back to the defaults below.
type Config struct {
	// MaxRetries is the total attempt ceiling, counting the first attempt.
	MaxRetries int
	// Threshold is the minimum penalized score a candidate must reach.
	Threshold float64
	// Weights redistributes rubric check weight. Nil means equal weights.
	Weights rubric.Weights
}

const (
	DefaultMaxRetries = 3
	DefaultThreshold  = 0.85
)

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Weights == nil {
		c.Weights = rubric.DefaultWeights()
	}
	return c
}

// Result is the terminal outcome of a run. FormattedDraft is the accepted
// candidate, or the last candidate best-effort when the ceiling was spent
// without acceptance. Attempts always equals len(History).
type Result struct {
	FormattedDraft string          `json:"formatted_draft"`
	Score          float64         `json:"score"`
	Missing        []string        `json:"missing"`
	Present        []string        `json:"present"`
	History        []AttemptRecord `json:"history"`
	Attempts       int             `json:"attempts"`
	State          State           `json:"-"`
}

// Loop drives formatting attempts against one provider.
type Loop struct {
	completer provider.Completer
	cfg       Config
	log       *zap.Logger
}

// NewLoop creates a formatting loop. A nil logger disables logging.
func NewLoop(completer provider.Completer, cfg Config, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{completer: completer, cfg: cfg.withDefaults(), log: log}
}

// Run formats baseline under the persona guidance and returns the terminal
// result. An empty baseline fails immediately with a single synthetic record
// and no provider calls. Provider errors and validator panics each consume an
// attempt; the loop never spends more than MaxRetries provider calls.
func (l *Loop) Run(ctx context.Context, baseline, persona string) Result {
	if strings.TrimSpace(baseline) == "" {
		l.log.Warn("formatting requested for empty draft")
		rec := AttemptRecord{
			Attempt:  1,
			Score:    0,
			Missing:  []string{"all"},
			Feedback: "no draft content to format",
		}
		return Result{
			Missing:  rec.Missing,
			History:  []AttemptRecord{rec},
			Attempts: 1,
			State:    StateFailed,
		}
	}

	var (
		history   []AttemptRecord
		candidate string
		report    rubric.Report
	)

	for attempt := 1; attempt <= l.cfg.MaxRetries; attempt++ {
		p := prompt.Formatting(baseline, persona)
		if attempt > 1 {
			last := history[len(history)-1]
			p = prompt.FormattingRetry(baseline, persona, prompt.RetryContext{
				Attempt:   attempt,
				LastScore: last.Score,
				Missing:   last.Missing,
			}, l.cfg.MaxRetries)
		}

		l.log.Info("formatting attempt",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", l.cfg.MaxRetries),
			zap.String("provider", l.completer.Name()))

		out, err := l.completer.Complete(ctx, p)
		if err != nil {
			l.log.Warn("formatting attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
			history = append(history, AttemptRecord{
				Attempt:  attempt,
				Score:    0,
				Missing:  []string{"all"},
				Feedback: fmt.Sprintf("provider error: %v", err),
			})
			continue
		}
		candidate = out

		report = l.validate(baseline, candidate)
		rec := AttemptRecord{
			Attempt:  attempt,
			Score:    report.Score,
			Missing:  report.Failed,
			Present:  report.Passed,
			Feedback: feedbackLine(report),
		}
		history = append(history, rec)

		l.log.Info("formatting validated",
			zap.Int("attempt", attempt),
			zap.Float64("score", report.Score),
			zap.Strings("missing", report.Failed))

		if report.Score >= l.cfg.Threshold {
			return Result{
				FormattedDraft: candidate,
				Score:          report.Score,
				Missing:        report.Failed,
				Present:        report.Passed,
				History:        history,
				Attempts:       len(history),
				State:          StateAccepted,
			}
		}
	}

	// Ceiling spent. Surface the last candidate best-effort so callers still
	// get the closest document produced.
	last := history[len(history)-1]
	l.log.Warn("formatting exhausted retries",
		zap.Int("attempts", len(history)),
		zap.Float64("final_score", last.Score))
	return Result{
		FormattedDraft: candidate,
		Score:          last.Score,
		Missing:        last.Missing,
		Present:        last.Present,
		History:        history,
		Attempts:       len(history),
		State:          StateExhausted,
	}
}

// validate scores a candidate and applies the preservation penalties. A panic
// in any check is recovered into a zero-score report so a malformed candidate
// consumes an attempt instead of killing the run.
func (l *Loop) validate(baseline, candidate string) (rep rubric.Report) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("validator panic", zap.Any("panic", r))
			rep = rubric.Report{
				Score:  0,
				Failed: []string{"all"},
				Feedback: map[string]string{
					"all": fmt.Sprintf("validation failure: %v", r),
				},
			}
		}
	}()

	rep = rubric.ScoreWeighted(candidate, l.cfg.Weights)

	if ok, msg := rubric.ContentPreserved(baseline, candidate); !ok {
		rep.Score *= contentLossPenalty
		rep.Failed = append(rep.Failed, rubric.CheckContentPreservation)
		rep.Feedback[rubric.CheckContentPreservation] = msg
	}
	if ok, msg := rubric.LatexPreserved(baseline, candidate); !ok {
		rep.Score *= latexLossPenalty
		rep.Failed = append(rep.Failed, rubric.CheckLatexPreservation)
		rep.Feedback[rubric.CheckLatexPreservation] = msg
	}
	return rep
}

// feedbackLine flattens a report into one human-readable line, listing failed
// checks in their fixed evaluation order so the line is deterministic.
func feedbackLine(rep rubric.Report) string {
	if len(rep.Failed) == 0 {
		return "All formatting requirements met"
	}

	order := append(append([]string{}, rubric.CheckOrder...),
		rubric.CheckContentPreservation, rubric.CheckLatexPreservation, "all")

	failed := make(map[string]bool, len(rep.Failed))
	for _, name := range rep.Failed {
		failed[name] = true
	}

	var b strings.Builder
	b.WriteString("Missing elements: ")
	b.WriteString(strings.Join(rep.Failed, ", "))
	for _, name := range order {
		if !failed[name] {
			continue
		}
		if msg := rep.Feedback[name]; msg != "" {
			fmt.Fprintf(&b, " | %s: %s", name, msg)
		}
	}
	return b.String()
}
