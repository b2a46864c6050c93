package translate

import (
	"fmt"
	"strings"

	"github.com/dgallion1/deckedit/internal/deck"
)

const SystemPrompt = `You translate a user's instruction for editing a slide deck into exactly one JSON edit command.

Supported commands:
- Replace text: {"action": "update_text", "slide": <slide number>, "oldText": "<exact text currently on the slide>", "newText": "<replacement>"}
- Change background: {"action": "change_bg", "slide": <slide number>, "color": "<6 hex digits, e.g. #1F4E79>"}

Rules:
- Slide numbers start at 1 and must be one of the slides listed.
- "oldText" must be copied exactly, including case and punctuation, from the slide text shown. Use the shortest span that identifies what to change.
- Colour names must be converted to hex.
- If the instruction cannot be expressed as one of these commands, respond with {"error": "<short reason>"}.

Respond with ONLY the JSON object, no other text.`

// MaxPromptTokens bounds the slide text sent with one instruction.
const MaxPromptTokens = 8000

// BuildInstructionPrompt lists the slides and their text followed by the
// user's instruction.
func BuildInstructionPrompt(instruction string, slides []deck.SlideText) string {
	return buildPrompt(instruction, slides, MaxPromptTokens)
}

// buildPrompt lists slide text in order until budget tokens are spent.
// Every slide keeps its header so slide numbers stay valid; text past the
// budget is replaced by an omission marker.
func buildPrompt(instruction string, slides []deck.SlideText, budget int) string {
	var sb strings.Builder
	used := 0
	full := false
	sb.WriteString("Slides:\n")
	for _, s := range slides {
		fmt.Fprintf(&sb, "--- Slide %d", s.Number)
		if s.Background != "" {
			fmt.Fprintf(&sb, " (background #%s)", s.Background)
		}
		sb.WriteString(" ---\n")
		if len(s.Texts) == 0 {
			sb.WriteString("(no text)\n")
		}
		for i, t := range s.Texts {
			cost := EstimateTokens(t)
			if full || used+cost > budget {
				full = true
				fmt.Fprintf(&sb, "(%d more paragraphs omitted)\n", len(s.Texts)-i)
				break
			}
			used += cost
			fmt.Fprintf(&sb, "%q\n", t)
		}
	}
	sb.WriteString("---\n")
	sb.WriteString("Instruction: ")
	sb.WriteString(strings.TrimSpace(instruction))
	return sb.String()
}

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 0.75 words per token for English text.
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
