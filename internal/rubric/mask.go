package rubric

import (
	"fmt"
	"regexp"
)

var (
	// fenced code blocks: ``` with optional language tag, through the closing fence
	reFencedCode = regexp.MustCompile("(?ms)^```[\\w-]*[ \t]*\n.*?^```[ \t]*$")

	// code mask marker left in place of a fenced block
	reCodeMarker = regexp.MustCompile(`\[CODE(\d+)\]`)
)

// MaskCodeBlocks replaces fenced code blocks with numbered markers
// [CODE0], [CODE1], … in the order they appear, so structural regexes never
// match markdown that only exists inside a code sample. It returns the masked
// text and the captured originals for RestoreCodeBlocks.
func MaskCodeBlocks(text string) (string, []string) {
	var blocks []string
	masked := reFencedCode.ReplaceAllStringFunc(text, func(match string) string {
		id := fmt.Sprintf("[CODE%d]", len(blocks))
		blocks = append(blocks, match)
		return id
	})
	return masked, blocks
}

// RestoreCodeBlocks substitutes [CODEn] markers back with the originals
// captured by MaskCodeBlocks. Unknown indices leave the marker as-is.
func RestoreCodeBlocks(text string, blocks []string) string {
	return reCodeMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reCodeMarker.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(blocks) {
			return match
		}
		return blocks[idx]
	})
}
