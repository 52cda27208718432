package answer

import (
	"fmt"
	"strings"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// systemContract pins the output format. The findings schema here must stay
// in sync with the recovery envelope in recover.go.
const systemContract = `You are a helpful assistant that identifies misinformation and provides corrections. Ignore correct information. Respond with a JSON object containing all instances of only incorrect statements and corresponding corrections in the form: {"findings": [{"text": "misinformation here", "correction": "correct information here"}]}`

const groundingPreamble = "Here are some additional documents for additional context you can reference.\n"

// buildMessages assembles the chat prompt: format contract first, grounding
// passages second (omitted when there are none), the query last.
func buildMessages(query string, passages []domain.RerankedPassage, charCap int) []domain.Message {
	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: systemContract},
	}

	if len(passages) > 0 {
		var b strings.Builder
		b.WriteString(groundingPreamble)
		for i, p := range passages {
			fmt.Fprintf(&b, "%d. %s: %s...\n", i+1, p.Source, truncate(p.Text, charCap))
		}
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: b.String()})
	}

	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: "Query:\n\"" + query + "\"\n\nYour JSON output begins now: ",
	})

	return messages
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
