package provider

import (
	"encoding/json"
	"strings"
)

// ExtractText reduces a provider response body to its textual payload.
// It inspects the payload shape once, in order of likelihood:
//
//  1. OpenAI-style chat: choices[0].message.content
//  2. Ollama-style generate: response
//  3. Bare content / text field
//  4. A plain JSON string
//
// When no structured field is found the raw body is returned as-is, so a
// provider that already answers with plain text still works.
func ExtractText(body []byte) string {
	var chat struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chat); err == nil && len(chat.Choices) > 0 {
		if c := chat.Choices[0].Message.Content; c != "" {
			return c
		}
		if t := chat.Choices[0].Text; t != "" {
			return t
		}
	}

	var generate struct {
		Response string `json:"response"`
		Content  string `json:"content"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(body, &generate); err == nil {
		switch {
		case generate.Response != "":
			return generate.Response
		case generate.Content != "":
			return generate.Content
		case generate.Text != "":
			return generate.Text
		}
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain
	}

	return strings.TrimSpace(string(body))
}
