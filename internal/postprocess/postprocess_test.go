package postprocess

import "testing"

func TestClean_PlainTextUntouched(t *testing.T) {
	in := "# Title\n\nSome prose with `inline code` and a list:\n- one\n- two"
	if got := Clean(in); got != in {
		t.Errorf("clean text must pass through unchanged, got %q", got)
	}
}

func TestClean_ThinkingBlocks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"closed think tag", "<think>let me reason</think>\n\nThe document.", "The document."},
		{"closed thinking tag", "<thinking>hmm</thinking>The document.", "The document."},
		{"truncated tag swallows tail", "The document.\n<think>unfinished reasoning", "The document."},
		{"reasoning tag", "<reasoning>a\nb</reasoning>\nThe document.", "The document."},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClean_InstructionEchoes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Here is the formatted blog post:\n\n# Title\n\nBody.", "# Title\n\nBody."},
		{"Here's the refined draft:\n# Title", "# Title"},
		{"Sure, here is the formatted post:\n\nBody.", "Body."},
		{"The polished document:\nBody.", "Body."},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClean_EchoLookalikeInProseKept(t *testing.T) {
	in := "Deployment is simple. Here is the formatted post: just kidding, prose continues."
	if got := Clean(in); got != in {
		t.Errorf("mid-text echo lookalike must be kept, got %q", got)
	}
}

func TestClean_WrappingFence(t *testing.T) {
	in := "```markdown\n# Title\n\nBody text.\n```"
	want := "# Title\n\nBody text."
	if got := Clean(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClean_InnerFencesKept(t *testing.T) {
	in := "```markdown\n# Title\n\n```go\nfunc main() {}\n```\n\nAfter the code.\n```"
	got := Clean(in)
	if got != "# Title\n\n```go\nfunc main() {}\n```\n\nAfter the code." {
		t.Errorf("inner code fences must survive unwrapping, got %q", got)
	}
}

func TestClean_FenceOnlyAtStartKept(t *testing.T) {
	in := "```go\nfunc main() {}\n```\n\nExplanation follows."
	if got := Clean(in); got != in {
		t.Errorf("a document starting with a code sample must not be unwrapped, got %q", got)
	}
}

func TestClean_QuoteWrapping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"The whole document."`, "The whole document."},
		{"«Цілий документ.»", "Цілий документ."},
		{"“Curly quoted.”", "Curly quoted."},
		{`He said "this" and left.`, `He said "this" and left.`},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClean_CombinedArtifacts(t *testing.T) {
	in := "<think>planning the layout</think>\nHere is the formatted post:\n```markdown\n# Title\n\nBody.\n```"
	want := "# Title\n\nBody."
	if got := Clean(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
