package answer

import (
	"encoding/json"
	"strings"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// findingsEnvelope is the expected generator output shape.
type findingsEnvelope struct {
	Findings []domain.Finding `json:"findings"`
}

// repairSuffixes are appended in order when the sliced candidate does not
// parse. They cover the two most common truncation points of a max-token
// cutoff: mid-object (missing "}") and mid-array (missing "]}").
var repairSuffixes = []string{"", "}", "]}"}

// recoverFindings extracts a findings list from raw generator output.
// The text between the first "{" and the last "}" is taken as the JSON
// candidate, then the repair suffixes are tried in order. The second return
// value reports whether any strategy parsed; on false the findings are empty,
// never nil, and the caller owns counting the failure.
func recoverFindings(raw string) ([]domain.Finding, bool) {
	candidate := sliceBraces(raw)
	if candidate == "" {
		return []domain.Finding{}, false
	}

	for _, suffix := range repairSuffixes {
		var env findingsEnvelope
		if err := json.Unmarshal([]byte(candidate+suffix), &env); err != nil {
			continue
		}
		if env.Findings == nil {
			env.Findings = []domain.Finding{}
		}
		return env.Findings, true
	}

	return []domain.Finding{}, false
}

// sliceBraces cuts raw down to the first-"{" .. last-"}" span, discarding
// prose the model wraps around the JSON. The empty string means no such
// span exists.
func sliceBraces(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 {
		return ""
	}
	if end == -1 || end < start {
		// No closing brace at all: keep the tail and let the repair
		// suffixes try to close it.
		return raw[start:]
	}
	return raw[start : end+1]
}
