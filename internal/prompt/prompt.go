// Package prompt builds the instruction text sent to the LLM for every
// pipeline node. Builders are pure functions of their inputs: the same
// draft, persona guidance, and retry history always produce the same prompt.
//
// Prompts are assembled with fmt.Sprintf rather than text/template so LaTeX
// braces in the draft can never collide with template syntax.
package prompt

import (
	"fmt"
	"strings"
)

// RetryContext carries what the stricter retry prompt reads from the most
// recent attempt record.
type RetryContext struct {
	Attempt   int     // 1-based ordinal of the attempt being retried
	LastScore float64 // most recent recorded validation score
	Missing   []string
}

const formattingRules = `<formatting_rules>
1. **TL;DR**: Add at the VERY TOP as a blockquote: > **TL;DR** followed by > - bullet points (3-5)
2. **BULLETS**: Convert prose lists (3+ items) to bullet points
3. **CALLOUTS**: Add 2-4 callouts using > 💡/⚠️/🎯 **Label:** format where they add value
4. **IMAGES**: Add 2-4 [IMAGE: description] placeholders where visuals help
5. **HEADINGS**: Use H2 for sections, H3 for subsections (no H4+)
6. **DIVIDERS**: Add --- between major H2 sections
7. **CODE**: Ensure each code block has a lead-in explanation
8. **EQUATIONS**: Group related equations together in multi-line display blocks using $$. Avoid scattering inline equations.
</formatting_rules>

<constraints>
**PRESERVE ALL CONTENT** - Never remove or summarize
**PRESERVE CODE BLOCKS** - Exactly as-is
**PRESERVE LINKS/CITATIONS** - All references intact
**PRESERVE EQUATIONS** - Keep LaTeX syntax unchanged
</constraints>

<output_format>
Output the complete formatted markdown document. No JSON, no code fences, no commentary.
</output_format>`

// Formatting builds the first-attempt formatting prompt. The draft is
// inserted verbatim, never truncated.
func Formatting(draft, persona string) string {
	return fmt.Sprintf(`<task>
Transform this blog draft into a **scannable, visually structured** document.
</task>

<persona_instructions>
%s
</persona_instructions>

<blog_draft>
%s
</blog_draft>

%s`, persona, draft, formattingRules)
}

// FormattingRetry builds the stricter prompt for retry attempts. The banner
// names the attempt ordinal, the most recent score, and the missing elements
// from the previous attempt; its wording changes on the final attempt so the
// model knows no further correction is possible.
func FormattingRetry(draft, persona string, rc RetryContext, maxRetries int) string {
	missing := "  - None reported"
	if len(rc.Missing) > 0 {
		var b strings.Builder
		for i, elem := range rc.Missing {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "  - %s", elem)
		}
		missing = b.String()
	}

	strictness := rc.Attempt
	if strictness > 3 {
		strictness = 3
	}

	urgency := "Be thorough and ensure all required elements are included."
	if rc.Attempt >= maxRetries {
		urgency = "This is your FINAL attempt - ensure ALL elements are present."
	}

	return fmt.Sprintf(`**RETRY ATTEMPT %d of %d - STRICT ENFORCEMENT**

Previous issues:
%s

Latest validation score: %.2f

Strictness level: %d/3
%s

<task>
Transform this blog draft into a **scannable, visually structured** document.
**RETRY ATTEMPT** - Previous attempt incomplete. Focus on the missing elements.
</task>

<retry_context>
Attempt: %d of %d
Previous Score: %.2f
Missing Elements:
%s
</retry_context>

<persona_instructions>
%s
</persona_instructions>

<blog_draft>
%s
</blog_draft>

%s`,
		rc.Attempt, maxRetries, missing, rc.LastScore, strictness, urgency,
		rc.Attempt, maxRetries, rc.LastScore, missing,
		persona, draft, formattingRules)
}

// Introduction builds the prompt for the introduction node.
func Introduction(draft string) string {
	return fmt.Sprintf(`You are an expert technical writer tasked with creating a compelling introduction for a blog post.
The full draft of the blog post is provided below.

**Blog Draft:**
%s

**Task:**
Write a professional, engaging introduction paragraph (typically 3-5 sentences) suitable for direct publication.
The introduction should:
1. Hook the reader and clearly state the blog post's main topic or purpose.
2. Briefly mention the key areas or concepts that will be covered.
3. Set a professional and informative tone for the rest of the article.
4. Avoid summarizing the entire content; focus on enticing the reader to continue.

**Output:**
Provide only the raw text for the introduction paragraph. Do NOT include any markdown formatting, section headers, or extraneous text.`, fenced(draft))
}

// Conclusion builds the prompt for the conclusion node.
func Conclusion(draft string) string {
	return fmt.Sprintf(`You are an expert technical writer tasked with creating a concise and impactful conclusion for a blog post.
The full draft of the blog post is provided below.

**Blog Draft:**
%s

**Task:**
Write a professional, concise conclusion paragraph (typically 3-5 sentences) suitable for direct publication.
The conclusion should:
1. Briefly summarize the main takeaways or key points discussed in the blog post.
2. Reiterate the significance or implications of the topic.
3. Offer a final thought, call to action (if appropriate), or suggest next steps for the reader.
4. Provide a sense of closure.

**Output:**
Provide only the raw text for the conclusion paragraph. Do NOT include any markdown formatting, section headers, or extraneous text.`, fenced(draft))
}

// Summary builds the prompt for the summary node.
func Summary(draft string) string {
	return fmt.Sprintf(`You are an expert technical writer tasked with creating a concise summary of a blog post.
The full draft of the blog post is provided below.

**Blog Draft:**
%s

**Task:**
Write a concise summary (target 2-4 sentences) of the entire blog post, suitable for direct use (e.g., meta descriptions, social media previews).
The summary should accurately capture the main topic, key concepts covered, and the overall message or outcome of the post.

**Output:**
Provide only the raw text for the summary. Do NOT include any markdown formatting, headers, or extraneous text.`, fenced(draft))
}

// Titles builds the prompt for the title-options node. The model must answer
// with a JSON array of {title, subtitle, reasoning} objects.
func Titles(draft string, numTitles int) string {
	if numTitles <= 0 {
		numTitles = 3
	}
	return fmt.Sprintf(`You are an expert copywriter and SEO specialist tasked with generating compelling titles and subtitles for a blog post.
The full draft of the blog post is provided below.

Create titles that reflect how an expert practitioner shares insights with peers: direct questions or statements that promise a specific learning outcome grounded in the actual content, not marketing copy.

**Blog Draft:**
%s

**Output:**
Generate exactly %d title option(s) as a JSON array. Each object must follow this exact structure:

[
  {
    "title": "Your compelling title here",
    "subtitle": "Your informative subtitle that adds context",
    "reasoning": "Brief explanation of why this title works"
  }
]

Output ONLY the JSON array, no other text, no markdown code fences.`, fenced(draft), numTitles)
}

// ClarityFlow builds the prompt for the clarity/flow improvement node.
func ClarityFlow(draft string) string {
	return fmt.Sprintf(`You are an expert technical editor tasked with enhancing a blog post draft for clarity, flow, and engagement.
The full draft is provided below.

**Blog Draft:**
%s

**Task:**
Review and improve the draft while **PRESERVING ALL CONTENT AND WORD COUNT**. Focus on:

1. **Remove Duplicates**: Identify and remove exact duplicate headings/sections (keep first instance)
2. **Improve Transitions**: Add connecting sentences between sections that feel disconnected
3. **Fix Flow Issues**: Rephrase awkward transitions, ensure logical progression
4. **Format Consistency**: Standardize heading levels, code blocks, LaTeX formatting
5. **Language Polish**: Fix grammar, typos, clarify ambiguous sentences (without removing detail)

**CRITICAL CONSTRAINTS**:
- DO NOT remove any technical details, examples, or explanations
- Maintain approximately the same word count (±5%%)
- DO NOT summarize or consolidate sections
- Preserve all code blocks, formulas, and tables

**Output:**
Provide the COMPLETE enhanced draft, outputting ONLY the fully formatted markdown content.`, fenced(draft))
}

// fenced wraps draft in a markdown code fence for prompts that quote it as
// source material rather than asking for it back verbatim.
func fenced(draft string) string {
	return "```markdown\n" + draft + "\n```"
}
