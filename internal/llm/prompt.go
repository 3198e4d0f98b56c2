package llm

import (
	"fmt"
	"strings"

	"github.com/AbdouB/dialogue/internal/engine"
)

const maxWords = 60

var fieldNames = map[string]string{
	engine.FieldInitialReaction: "opening reaction",
	engine.FieldConcern:         "concern",
	engine.FieldAppreciation:    "point of appreciation",
}

// BuildPrompt assembles the rewrite prompt: who is speaking, how they
// sound, and the rules the rewrite must keep
func BuildPrompt(text string, hints engine.VoiceHints) string {
	var b strings.Builder

	name := hints.Name
	if name == "" {
		name = string(hints.StakeholderID)
	}
	field := fieldNames[hints.Field]
	if field == "" {
		field = "statement"
	}

	fmt.Fprintf(&b, "You are speaking as %s reviewing a national energy scenario.\n", name)
	if hints.Voice.Description != "" {
		fmt.Fprintf(&b, "Voice: %s.\n", strings.TrimSuffix(hints.Voice.Description, "."))
	}
	if t := hints.Tone; t != nil {
		fmt.Fprintf(&b, "Tone: %s risk tolerance, %s towards change, %s in collaboration.\n",
			t.RiskTolerance, t.ChangeOpenness, t.CollaborationStyle)
	}
	if len(hints.Priorities) > 0 {
		top := hints.Priorities[:min(len(hints.Priorities), 3)]
		fmt.Fprintf(&b, "Top priorities: %s.\n", strings.Join(top, "; "))
	}

	if len(hints.Voice.Examples) > 0 {
		b.WriteString("\nExamples of how you talk:\n")
		for _, ex := range hints.Voice.Examples {
			fmt.Fprintf(&b, "- Scenario: %s\n  You: %s\n", ex.Scenario, ex.Response)
		}
	}

	fmt.Fprintf(&b, "\nRewrite the %s below in your own voice.\n", field)
	b.WriteString("Rules:\n")
	b.WriteString("1. Keep the meaning and every figure exactly as given.\n")
	b.WriteString("2. Do not add numbers, facts or claims.\n")
	fmt.Fprintf(&b, "3. At most %d words, plain sentences, no lists.\n", maxWords)
	b.WriteString("4. Reply with the rewritten text only.\n")

	fmt.Fprintf(&b, "\nOriginal: %s\nRewritten:", text)
	return b.String()
}
