package rubric

import (
	"strings"
	"testing"
)

const preserveBaseline = `## Setup

Install the tool with the following command and read the release notes first.
The installer writes its state under the home directory and never touches the
system package manager, which keeps removal trivial.

## Usage

Run it against your draft and inspect the output before publishing. The output
is plain markdown, so any editor can be used for the final review pass.
`

func TestContentPreserved_Identical(t *testing.T) {
	ok, msg := ContentPreserved(preserveBaseline, preserveBaseline)
	if !ok {
		t.Errorf("identical documents must be preserved: %s", msg)
	}
}

func TestContentPreserved_FormattingAdditionsTolerated(t *testing.T) {
	candidate := `> **TL;DR**
> - Install the tool
> - Run it on a draft

` + preserveBaseline + `
> 💡 **Tip:** the defaults are sensible.

[IMAGE: workflow diagram]
`
	ok, msg := ContentPreserved(preserveBaseline, candidate)
	if !ok {
		t.Errorf("pure additions must not count as content loss: %s", msg)
	}
}

func TestContentPreserved_DroppedSectionDetected(t *testing.T) {
	candidate := strings.SplitN(preserveBaseline, "## Usage", 2)[0]
	ok, msg := ContentPreserved(preserveBaseline, candidate)
	if ok {
		t.Errorf("dropping a section must be detected: %s", msg)
	}
}

func TestContentPreserved_RewrittenProseDetected(t *testing.T) {
	// Same rough length, different words.
	candidate := strings.Repeat("completely different words about other topics entirely here ", 25)
	ok, _ := ContentPreserved(preserveBaseline, candidate)
	if ok {
		t.Error("a full rewrite must be detected as content loss")
	}
}

func TestContentPreserved_EmptyBaseline(t *testing.T) {
	ok, _ := ContentPreserved("", "anything at all")
	if !ok {
		t.Error("empty baseline has nothing to lose, must pass")
	}
}

func TestLatexPreserved_NoMath(t *testing.T) {
	ok, msg := LatexPreserved("plain prose only", "still plain prose")
	if !ok {
		t.Errorf("no baseline math must pass: %s", msg)
	}
}

func TestLatexPreserved_InlineExpressionsKept(t *testing.T) {
	baseline := "Energy is $E = mc^2$ and the sum is $a + b$ here."
	candidate := "Energy is $E = mc^2$ and the sum is $a + b$ here, reformatted."
	ok, msg := LatexPreserved(baseline, candidate)
	if !ok {
		t.Errorf("unchanged expressions must pass: %s", msg)
	}
}

func TestLatexPreserved_GroupingIntoDisplayBlock(t *testing.T) {
	baseline := "First $E = mc^2$ then later $a + b = c$ in prose."
	candidate := "The equations are grouped:\n\n$$\nE = mc^2 \\\\\na + b = c\n$$\n"
	ok, msg := LatexPreserved(baseline, candidate)
	if !ok {
		t.Errorf("grouping inline math into one display block must pass: %s", msg)
	}
}

func TestLatexPreserved_DroppedExpression(t *testing.T) {
	baseline := "First $E = mc^2$ then $a + b = c$ in prose."
	candidate := "Only $E = mc^2$ survived."
	ok, msg := LatexPreserved(baseline, candidate)
	if ok {
		t.Error("a dropped expression must fail")
	}
	if !strings.Contains(msg, "2 of 2") {
		t.Errorf("failure message should name the missing expression ordinal, got %q", msg)
	}
}

func TestLatexPreserved_ReorderedExpressionsFail(t *testing.T) {
	baseline := "First $a + b$ then $c + d$."
	candidate := "Now $c + d$ before $a + b$."
	ok, _ := LatexPreserved(baseline, candidate)
	if ok {
		t.Error("reordered expressions must fail the ordered pairing")
	}
}

func TestLatexPreserved_WhitespaceInsensitive(t *testing.T) {
	baseline := "The relation $a+b=c$ holds."
	candidate := "The relation $a + b = c$ holds."
	ok, msg := LatexPreserved(baseline, candidate)
	if !ok {
		t.Errorf("whitespace-only changes inside math must pass: %s", msg)
	}
}

func TestLatexPreserved_DollarInCodeIgnored(t *testing.T) {
	baseline := "Run it:\n\n```bash\necho $PATH and $HOME\n```\n\nDone."
	ok, msg := LatexPreserved(baseline, "totally different text")
	if !ok {
		t.Errorf("shell variables inside code must not count as math: %s", msg)
	}
}
