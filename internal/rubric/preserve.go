package rubric

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/text/unicode/norm"

	"github.com/mlutsiv/draftforge/internal/markdown"
)

const (
	// minWordRetention is the fraction of baseline words the candidate must
	// keep. Additions (TL;DR, callouts, placeholders) push the ratio above
	// 1.0 and are always tolerated.
	minWordRetention = 0.95

	// minProseSimilarity is the fraction of baseline prose that must survive
	// unchanged, measured on a character diff of the normalized prose.
	minProseSimilarity = 0.90
)

// ContentPreserved reports whether candidate retains the prose of baseline.
// The comparison is insensitive to whitespace and markdown decoration, so
// added headings, bullets, callouts, dividers, and image placeholders pass,
// while deleted sentences, paragraphs, or sections fail.
func ContentPreserved(baseline, candidate string) (bool, string) {
	baseWords := proseWords(baseline)
	candWords := proseWords(candidate)

	if len(baseWords) == 0 {
		return true, "no baseline prose to compare"
	}

	retention := float64(len(candWords)) / float64(len(baseWords))
	if retention < minWordRetention {
		return false, fmt.Sprintf("content loss detected: %.0f%% of baseline words retained (need >=%.0f%%)",
			retention*100, minWordRetention*100)
	}

	similarity := proseSimilarity(strings.Join(baseWords, " "), strings.Join(candWords, " "))
	if similarity < minProseSimilarity {
		return false, fmt.Sprintf("significant prose changes detected: %.0f%% of baseline prose intact (need >=%.0f%%)",
			similarity*100, minProseSimilarity*100)
	}

	return true, fmt.Sprintf("content preserved: %.0f%% word retention, %.0f%% prose intact",
		retention*100, similarity*100)
}

// proseWords reduces text to its lowercase prose vocabulary: fenced code is
// masked out, image placeholders dropped, markdown decoration stripped via
// plain-text rendering, and the result NFC-normalized and split into words.
func proseWords(text string) []string {
	masked, _ := MaskCodeBlocks(text)
	masked = reImagePlaceholder.ReplaceAllString(masked, " ")
	masked = reCodeMarker.ReplaceAllString(masked, " ")

	plain := markdown.ToPlainText([]byte(masked))
	plain = norm.NFC.String(strings.ToLower(plain))
	return strings.Fields(plain)
}

// proseSimilarity returns the fraction of baseline characters that appear
// unchanged in candidate, per a character-level diff. Pure additions do not
// reduce the score; deletions and rewrites do.
func proseSimilarity(baseline, candidate string) float64 {
	if baseline == candidate {
		return 1.0
	}
	if len(baseline) == 0 {
		return 1.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(baseline, candidate, false)

	intact := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			intact += len(d.Text)
		}
	}
	return float64(intact) / float64(len(baseline))
}

// any math span; the display alternative comes first so $$ never parses as
// two inline markers
var reMathSpan = regexp.MustCompile(`(?s)\$\$.+?\$\$|\$[^$\n]+\$`)

// LatexPreserved reports whether every LaTeX expression in baseline survives
// in candidate, in order. Grouping several baseline equations into one
// display block is allowed; dropping, garbling, or reordering an expression
// is not.
func LatexPreserved(baseline, candidate string) (bool, string) {
	baseExprs := latexExpressions(baseline)
	if len(baseExprs) == 0 {
		return true, "no LaTeX expressions in baseline"
	}

	candExprs := latexExpressions(candidate)
	// One stream of candidate math content keeps grouping legal: an
	// expression merged into a larger display block is still found inside it.
	stream := strings.Join(candExprs, "\n")

	pos := 0
	for i, expr := range baseExprs {
		idx := strings.Index(stream[pos:], expr)
		if idx < 0 {
			shown := expr
			if len(shown) > 40 {
				shown = shown[:37] + "…"
			}
			return false, fmt.Sprintf("LaTeX expression %d of %d missing or altered in candidate: %q",
				i+1, len(baseExprs), shown)
		}
		pos += idx + len(expr)
	}

	return true, fmt.Sprintf("all %d LaTeX expression(s) preserved in order", len(baseExprs))
}

// latexExpressions extracts the ordered sequence of math spans from text,
// normalized by removing every whitespace rune. Fenced code is masked first
// so a $ inside a code sample never counts as a math delimiter.
func latexExpressions(text string) []string {
	masked, _ := MaskCodeBlocks(text)

	var exprs []string
	for _, span := range reMathSpan.FindAllString(masked, -1) {
		inner := span
		if strings.HasPrefix(span, "$$") {
			inner = strings.TrimSuffix(strings.TrimPrefix(span, "$$"), "$$")
		} else {
			inner = strings.Trim(span, "$")
		}
		normalized := stripSpace(inner)
		if normalized != "" {
			exprs = append(exprs, normalized)
		}
	}
	return exprs
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
