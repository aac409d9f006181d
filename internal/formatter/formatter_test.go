package formatter

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const testBaseline = `## Setup

Install the tool with the following command and read the release notes first.

## Usage

Run it against your draft and inspect the output before publishing.
`

// testCompliant embeds the baseline prose verbatim and adds every structural
// element the rubric requires, so it scores 1.0 with no preservation penalty.
const testCompliant = `> **TL;DR**
> - Install the tool first
> - Run it on a draft
> - Inspect the output

## Setup

Install the tool with the following command and read the release notes first.

> 💡 **Tip:** the defaults are sensible for most drafts.

[IMAGE: setup screenshot]

---

## Usage

Run it against your draft and inspect the output before publishing.

> ⚠️ **Warning:** large drafts take longer to process.
`

// scriptedCompleter replays canned outputs (or errors) and records the
// prompts it received.
type scriptedCompleter struct {
	outputs []string
	errs    []error
	prompts []string
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(_ context.Context, p string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, p)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.outputs) {
		return s.outputs[i], nil
	}
	return s.outputs[len(s.outputs)-1], nil
}

func TestRun_AcceptsCompliantFirstAttempt(t *testing.T) {
	stub := &scriptedCompleter{outputs: []string{testCompliant}}
	loop := NewLoop(stub, Config{}, nil)

	res := loop.Run(context.Background(), testBaseline, "persona")

	if res.State != StateAccepted {
		t.Fatalf("expected accepted, got %s (missing: %v)", res.State, res.Missing)
	}
	if res.Attempts != 1 || len(res.History) != 1 {
		t.Errorf("expected exactly one attempt, got attempts=%d history=%d", res.Attempts, len(res.History))
	}
	if res.Score < DefaultThreshold {
		t.Errorf("accepted score %f below threshold", res.Score)
	}
	if res.FormattedDraft != testCompliant {
		t.Error("accepted draft must be the provider output verbatim")
	}
	if res.History[0].Feedback != "All formatting requirements met" {
		t.Errorf("unexpected feedback: %q", res.History[0].Feedback)
	}
	if len(stub.prompts) != 1 {
		t.Errorf("expected 1 provider call, got %d", len(stub.prompts))
	}
}

func TestRun_ExhaustsCeilingAndSurfacesLastCandidate(t *testing.T) {
	// The provider keeps returning the unformatted baseline, which fails the
	// rubric every time.
	stub := &scriptedCompleter{outputs: []string{testBaseline}}
	loop := NewLoop(stub, Config{MaxRetries: 3}, nil)

	res := loop.Run(context.Background(), testBaseline, "persona")

	if res.State != StateExhausted {
		t.Fatalf("expected exhausted, got %s", res.State)
	}
	if res.Attempts != 3 || len(res.History) != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d history=%d", res.Attempts, len(res.History))
	}
	for i, rec := range res.History {
		if rec.Attempt != i+1 {
			t.Errorf("history[%d] has attempt %d, want %d", i, rec.Attempt, i+1)
		}
	}
	if res.FormattedDraft != testBaseline {
		t.Error("exhausted run must still surface the last candidate")
	}
	if len(stub.prompts) != 3 {
		t.Errorf("expected 3 provider calls, got %d", len(stub.prompts))
	}
}

func TestRun_EmptyBaselineFailsWithoutProviderCall(t *testing.T) {
	stub := &scriptedCompleter{outputs: []string{testCompliant}}
	loop := NewLoop(stub, Config{}, nil)

	res := loop.Run(context.Background(), "   \n\t", "persona")

	if res.State != StateFailed {
		t.Fatalf("expected failed, got %s", res.State)
	}
	if len(res.History) != 1 || res.Attempts != 1 {
		t.Errorf("expected one synthetic record, got attempts=%d history=%d", res.Attempts, len(res.History))
	}
	if len(res.History[0].Missing) != 1 || res.History[0].Missing[0] != "all" {
		t.Errorf("synthetic record must fail everything, got %v", res.History[0].Missing)
	}
	if res.History[0].Score != 0 {
		t.Errorf("synthetic record must score 0, got %f", res.History[0].Score)
	}
	if len(stub.prompts) != 0 {
		t.Errorf("empty baseline must not call the provider, got %d calls", len(stub.prompts))
	}
}

func TestRun_ProviderErrorConsumesAttempt(t *testing.T) {
	stub := &scriptedCompleter{
		outputs: []string{"", testCompliant},
		errs:    []error{errors.New("connection refused")},
	}
	loop := NewLoop(stub, Config{}, nil)

	res := loop.Run(context.Background(), testBaseline, "persona")

	if res.State != StateAccepted {
		t.Fatalf("expected recovery on the second attempt, got %s", res.State)
	}
	if res.Attempts != 2 || len(res.History) != 2 {
		t.Fatalf("expected 2 attempts, got attempts=%d history=%d", res.Attempts, len(res.History))
	}
	first := res.History[0]
	if first.Score != 0 {
		t.Errorf("errored attempt must score 0, got %f", first.Score)
	}
	if !strings.Contains(first.Feedback, "connection refused") {
		t.Errorf("errored attempt should carry the provider error, got %q", first.Feedback)
	}
}

func TestRun_RetryPromptEscalates(t *testing.T) {
	stub := &scriptedCompleter{outputs: []string{testBaseline, testCompliant}}
	loop := NewLoop(stub, Config{}, nil)

	res := loop.Run(context.Background(), testBaseline, "persona")

	if res.State != StateAccepted {
		t.Fatalf("expected accepted on retry, got %s", res.State)
	}
	if len(stub.prompts) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(stub.prompts))
	}
	if strings.Contains(stub.prompts[0], "RETRY ATTEMPT") {
		t.Error("first prompt must not be a retry prompt")
	}
	if !strings.Contains(stub.prompts[1], "RETRY ATTEMPT 2 of 3") {
		t.Error("second prompt must carry the retry banner")
	}
	if !strings.Contains(stub.prompts[1], "tldr_section") {
		t.Error("retry prompt must name the missing elements from the previous attempt")
	}
}

func TestRun_ContentLossPenaltyBlocksAcceptance(t *testing.T) {
	// Structurally perfect, but the Usage section's prose is gone.
	truncated := strings.Replace(testCompliant,
		"Run it against your draft and inspect the output before publishing.", "", 1)
	stub := &scriptedCompleter{outputs: []string{truncated}}
	loop := NewLoop(stub, Config{MaxRetries: 1}, nil)

	res := loop.Run(context.Background(), testBaseline, "persona")

	if res.State != StateExhausted {
		t.Fatalf("expected exhausted, got %s", res.State)
	}
	found := false
	for _, name := range res.Missing {
		if name == "content_preservation" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected content_preservation in missing list, got %v", res.Missing)
	}
	// Rubric alone would give 1.0; the penalty must pull it under threshold.
	if res.Score > 0.8 {
		t.Errorf("penalized score should be at most 0.8, got %f", res.Score)
	}
}

func TestRun_LatexLossPenalizesScore(t *testing.T) {
	baseline := testBaseline + "\nThe relation $a + b = c$ holds and also $E = mc^2$ applies here.\n"
	// Structurally perfect, keeps all prose, but drops the second equation.
	candidate := testCompliant + "\nThe relation $a + b = c$ holds and also applies here.\n"

	stub := &scriptedCompleter{outputs: []string{candidate}}
	loop := NewLoop(stub, Config{MaxRetries: 1}, nil)

	res := loop.Run(context.Background(), baseline, "persona")

	found := false
	for _, name := range res.Missing {
		if name == "latex_preservation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected latex_preservation in missing list, got %v", res.Missing)
	}
	// Rubric alone scores 1.0; the 0.9 penalty must show, yet 0.9 still
	// clears the default threshold.
	if res.Score < 0.85 || res.Score > 0.95 {
		t.Errorf("expected penalized score around 0.9, got %f", res.Score)
	}
	if res.State != StateAccepted {
		t.Errorf("0.9 clears the default threshold, got %s", res.State)
	}
}

func TestRun_LowThresholdAcceptsImperfectCandidate(t *testing.T) {
	stub := &scriptedCompleter{outputs: []string{testBaseline}}
	loop := NewLoop(stub, Config{Threshold: 0.2}, nil)

	res := loop.Run(context.Background(), testBaseline, "persona")

	if res.State != StateAccepted {
		t.Errorf("score above the configured threshold must accept, got %s", res.State)
	}
	if res.Attempts != 1 {
		t.Errorf("expected acceptance on the first attempt, got %d", res.Attempts)
	}
}

func TestState_Strings(t *testing.T) {
	cases := map[State]string{
		StatePending:    "pending",
		StateAttempting: "attempting",
		StateValidating: "validating",
		StateAccepted:   "accepted",
		StateRetrying:   "retrying",
		StateExhausted:  "exhausted",
		StateFailed:     "failed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
	if !StateAccepted.Terminal() || !StateExhausted.Terminal() || !StateFailed.Terminal() {
		t.Error("accepted, exhausted, and failed are terminal")
	}
	if StateRetrying.Terminal() || StatePending.Terminal() {
		t.Error("pending and retrying are not terminal")
	}
}
