// Package rubric scores a formatted blog draft against a fixed structural
// rubric (TL;DR block, callouts, dividers, image placeholders, code lead-ins,
// heading depth) and verifies that a formatting pass preserved prose content
// and LaTeX notation. Every check is a deterministic regex/structural
// analyzer; no LLM is involved and repeated calls on the same input produce
// identical reports.
package rubric

import (
	"fmt"
	"regexp"
	"strings"
)

// Rubric check identifiers. Preservation identifiers are synthetic: they are
// appended to a report's Failed list by the formatting loop when the
// corresponding penalty applies, without carrying rubric weight.
const (
	CheckTLDR        = "tldr_section"
	CheckCallouts    = "callouts"
	CheckDividers    = "dividers"
	CheckImages      = "image_placeholders"
	CheckCodeContext = "code_context"
	CheckHeadings    = "heading_hierarchy"

	CheckContentPreservation = "content_preservation"
	CheckLatexPreservation   = "latex_preservation"
)

// CheckOrder is the fixed evaluation order. Reports list identifiers in this
// order so two runs over the same document are bit-identical.
var CheckOrder = []string{
	CheckTLDR,
	CheckCallouts,
	CheckDividers,
	CheckImages,
	CheckCodeContext,
	CheckHeadings,
}

// Weights maps a rubric check identifier to its share of the score. Checks
// absent from the table weigh 1.0. The distribution is configurable because
// equal weighting is a policy choice, not a structural requirement.
type Weights map[string]float64

// DefaultWeights weighs every rubric check equally.
func DefaultWeights() Weights {
	w := make(Weights, len(CheckOrder))
	for _, name := range CheckOrder {
		w[name] = 1.0
	}
	return w
}

func (w Weights) of(name string) float64 {
	if v, ok := w[name]; ok {
		return v
	}
	return 1.0
}

// Report is the outcome of scoring one candidate document. Passed and Failed
// partition the rubric identifiers; Feedback carries a diagnostic per check.
// Score is the weighted fraction of rubric checks passed, before any
// preservation penalty.
type Report struct {
	Score    float64           `json:"score"`
	Passed   []string          `json:"passed"`
	Failed   []string          `json:"failed"`
	Feedback map[string]string `json:"feedback"`
}

type checkFunc func(content string) (bool, string)

// Score runs the full rubric with equal weights.
func Score(content string) Report {
	return ScoreWeighted(content, DefaultWeights())
}

// ScoreWeighted runs the full rubric against content using the given weight
// table. Fenced code blocks are masked before the structural checks that
// would otherwise misfire on markdown inside code samples.
func ScoreWeighted(content string, weights Weights) Report {
	masked, _ := MaskCodeBlocks(content)

	checks := map[string]struct {
		fn    checkFunc
		input string
	}{
		CheckTLDR:        {checkTLDR, content},
		CheckCallouts:    {checkCallouts, content},
		CheckDividers:    {checkDividers, masked},
		CheckImages:      {checkImagePlaceholders, masked},
		CheckCodeContext: {checkCodeContext, content},
		CheckHeadings:    {checkHeadingHierarchy, masked},
	}

	report := Report{Feedback: make(map[string]string, len(CheckOrder))}

	var passedWeight, totalWeight float64
	for _, name := range CheckOrder {
		c := checks[name]
		ok, message := c.fn(c.input)
		report.Feedback[name] = message
		totalWeight += weights.of(name)
		if ok {
			report.Passed = append(report.Passed, name)
			passedWeight += weights.of(name)
		} else {
			report.Failed = append(report.Failed, name)
		}
	}

	if totalWeight > 0 {
		report.Score = passedWeight / totalWeight
	}
	return report
}

// --- individual checks ---

const tldrWindow = 500 // bytes from the top within which the TL;DR must start

var (
	reTLDRHeader = regexp.MustCompile(`(?m)^>\s*\*\*TL;DR\*\*`)
	reTLDRBullet = regexp.MustCompile(`(?m)^>\s*[-*]\s*\S`)
)

// checkTLDR requires a blockquote TL;DR header near the top of the document,
// followed by bullet lines inside the same blockquote (1-5 bullets).
func checkTLDR(content string) (bool, string) {
	loc := reTLDRHeader.FindStringIndex(content)
	if loc == nil {
		return false, "missing TL;DR section: expected a blockquote starting with > **TL;DR**"
	}
	if loc[0] > tldrWindow {
		return false, fmt.Sprintf("TL;DR found at offset %d, must appear within the first %d characters", loc[0], tldrWindow)
	}

	// The TL;DR block runs until the first non-blockquote line.
	block := content[loc[0]:]
	if idx := indexNonBlockquoteLine(block); idx >= 0 {
		block = block[:idx]
	}

	bullets := len(reTLDRBullet.FindAllString(block, -1))
	switch {
	case bullets == 0:
		return false, "TL;DR header present but no blockquote bullet lines follow (use > - …)"
	case bullets > 5:
		return false, fmt.Sprintf("TL;DR has %d bullets, keep it to 3-5 for conciseness", bullets)
	}
	return true, fmt.Sprintf("TL;DR present with %d bullet(s)", bullets)
}

// indexNonBlockquoteLine returns the byte offset of the first line in s that
// does not start with '>', or -1 when every line is part of the blockquote.
func indexNonBlockquoteLine(s string) int {
	offset := 0
	for _, line := range strings.SplitAfter(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, ">") {
			return offset
		}
		offset += len(line)
	}
	return -1
}

// recognized callout glyphs: idea, warning, target
var reCallout = regexp.MustCompile(`(?m)^>\s*(💡|⚠️|🎯)\s*\*\*`)

// checkCallouts requires at least two blockquote callouts tagged with a
// recognized glyph followed by a bolded label.
func checkCallouts(content string) (bool, string) {
	matches := reCallout.FindAllStringSubmatch(content, -1)
	if len(matches) < 2 {
		return false, fmt.Sprintf("only %d callout(s) found, need at least 2 (format: > 💡/⚠️/🎯 **Label:** …)", len(matches))
	}

	counts := map[string]int{}
	for _, m := range matches {
		counts[m[1]]++
	}
	var parts []string
	for _, glyph := range []string{"💡", "⚠️", "🎯"} {
		if counts[glyph] > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", glyph, counts[glyph]))
		}
	}
	return true, fmt.Sprintf("found %d callout(s): %s", len(matches), strings.Join(parts, ", "))
}

var (
	reH2Line      = regexp.MustCompile(`^##\s+\S`)
	reDividerLine = regexp.MustCompile(`^-{3,}\s*$`)
)

// checkDividers requires at least one horizontal rule between two H2
// sections. Documents with fewer than two H2 sections pass trivially.
func checkDividers(masked string) (bool, string) {
	var h2Lines, hrLines []int
	for i, line := range strings.Split(masked, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		switch {
		case reH2Line.MatchString(trimmed):
			h2Lines = append(h2Lines, i)
		case reDividerLine.MatchString(strings.TrimSpace(trimmed)):
			hrLines = append(hrLines, i)
		}
	}

	if len(h2Lines) < 2 {
		return true, fmt.Sprintf("%d H2 section(s); dividers not required", len(h2Lines))
	}

	separating := 0
	for i := 0; i+1 < len(h2Lines); i++ {
		for _, hr := range hrLines {
			if hr > h2Lines[i] && hr < h2Lines[i+1] {
				separating++
				break
			}
		}
	}
	if separating == 0 {
		return false, fmt.Sprintf("%d H2 sections but no --- divider between any of them", len(h2Lines))
	}
	return true, fmt.Sprintf("%d divider(s) separating %d H2 sections", separating, len(h2Lines))
}

var (
	reImagePlaceholder = regexp.MustCompile(`\[IMAGE:\s*[^\]]+\]`)
	reEmptyPlaceholder = regexp.MustCompile(`\[IMAGE:\s*\]`)
)

// checkImagePlaceholders requires at least one non-empty [IMAGE: description]
// placeholder and rejects placeholders with no description.
func checkImagePlaceholders(masked string) (bool, string) {
	if empty := reEmptyPlaceholder.FindAllString(masked, -1); len(empty) > 0 {
		return false, fmt.Sprintf("found %d empty [IMAGE:] placeholder(s), each needs a description", len(empty))
	}
	placeholders := reImagePlaceholder.FindAllString(masked, -1)
	if len(placeholders) == 0 {
		return false, "no [IMAGE: description] placeholders found, add at least one"
	}
	return true, fmt.Sprintf("found %d image placeholder(s)", len(placeholders))
}

// codeContextWindow is how many lines above an opening fence may hold the
// lead-in prose.
const codeContextWindow = 3

// checkCodeContext requires every fenced code block to be preceded, within a
// small window, by non-empty prose rather than a heading or another block.
func checkCodeContext(content string) (bool, string) {
	lines := strings.Split(content, "\n")

	var violations []string
	blockCount := 0
	inBlock := false
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if inBlock {
			inBlock = false
			continue
		}
		inBlock = true
		blockCount++

		hasLeadIn := false
		for j := i - 1; j >= 0 && j >= i-codeContextWindow; j-- {
			if isProseLine(lines[j]) {
				hasLeadIn = true
				break
			}
		}
		if !hasLeadIn {
			violations = append(violations, fmt.Sprintf("line %d", i+1))
		}
	}

	if blockCount == 0 {
		return true, "no code blocks to validate"
	}
	if len(violations) > 0 {
		shown := violations
		suffix := ""
		if len(shown) > 3 {
			shown = shown[:3]
			suffix = "…"
		}
		return false, fmt.Sprintf("%d code block(s) lack a lead-in explanation: %s%s", len(violations), strings.Join(shown, ", "), suffix)
	}
	return true, fmt.Sprintf("all %d code block(s) have a lead-in explanation", blockCount)
}

// isProseLine reports whether line is substantive lead-in text: non-empty and
// neither a heading, a fence, nor a horizontal rule.
func isProseLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") {
		return false
	}
	if reDividerLine.MatchString(trimmed) {
		return false
	}
	return true
}

var (
	reDeepHeading = regexp.MustCompile(`(?m)^#{4,}\s+.+$`)
	reH2          = regexp.MustCompile(`(?m)^##\s+[^#\s]`)
	reH3          = regexp.MustCompile(`(?m)^###\s+[^#\s]`)
)

// checkHeadingHierarchy rejects headings deeper than H3.
func checkHeadingHierarchy(masked string) (bool, string) {
	if violations := reDeepHeading.FindAllString(masked, -1); len(violations) > 0 {
		example := violations[0]
		if len(example) > 60 {
			example = example[:57] + "…"
		}
		return false, fmt.Sprintf("found %d heading(s) deeper than H3 (use H2/H3 only), e.g. %q", len(violations), example)
	}
	h2 := len(reH2.FindAllString(masked, -1))
	h3 := len(reH3.FindAllString(masked, -1))
	return true, fmt.Sprintf("heading hierarchy valid: %d H2, %d H3", h2, h3)
}
