// Package postprocess removes common LLM artifacts from completion output.
//
// It is applied to the raw text returned by any provider (Ollama, OpenRouter)
// before the pipeline uses it: the formatting prompt demands the bare
// document, but models still wrap it in fences, echo the instructions, or
// leak reasoning blocks.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips LLM artifacts from text in four phases and returns the
// trimmed result:
//  1. Thinking / reasoning block removal
//  2. Instruction echo removal (prompt leakage)
//  3. Wrapping code-fence removal (```markdown … ```)
//  4. Wrapping quote removal
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeFenceWrapping(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// --- Phase 1: thinking blocks ---

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- Phase 2: instruction echoes ---

// echoPatterns match introductory phrases that LLMs sometimes prepend even
// when instructed not to. Each pattern is anchored to the start of the
// string and requires a colon to reduce false positives on real content.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the] [formatted|refined|polished] [blog] post/draft/document:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:formatted |refined |polished |final )?(?:blog )?(?:post|draft|document|markdown|version)\s*:`),
	// "[The] formatted/refined/polished [blog] post/draft/document:"
	regexp.MustCompile(`(?i)^(?:the )?(?:formatted |refined |polished )(?:blog )?(?:post|draft|document)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] formatted post:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:formatted |refined |polished )?(?:blog )?(?:post|draft|document)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// --- Phase 3: wrapping code fence ---

var (
	openingFenceRe = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n")
	closingFenceRe = regexp.MustCompile("\n```[ \t]*$")
)

// removeFenceWrapping strips one outer ``` fence when the entire completion
// is wrapped in it. Fences inside the document (code samples) are untouched:
// only a fence pair at the very start and very end qualifies.
func removeFenceWrapping(text string) string {
	trimmed := strings.TrimSpace(text)
	open := openingFenceRe.FindStringIndex(trimmed)
	if open == nil {
		return text
	}
	closing := closingFenceRe.FindStringIndex(trimmed)
	if closing == nil || closing[0] <= open[1] {
		return text
	}
	return strings.TrimSpace(trimmed[open[1]:closing[0]])
}

// --- Phase 4: quote wrapping ---

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them (a common LLM artifact).  Supported pairs:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
