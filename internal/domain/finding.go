package domain

// Finding is one detected incorrect statement plus its correction,
// as emitted by the generative model. Validated before being returned.
type Finding struct {
	Text       string `json:"text"`
	Correction string `json:"correction"`
}

// Metadata carries request-level result metadata.
// CorrectionsCount always equals len(Findings).
type Metadata struct {
	URL              string `json:"url"`
	CorrectionsCount int    `json:"corrections_count"`
}

// AnalysisResult is the external contract payload of a single analysis.
// Sources lists the source labels of the passages actually offered to the
// generator as grounding context, not the full corpus.
type AnalysisResult struct {
	Findings []Finding `json:"findings"`
	Sources  []string  `json:"sources"`
	Metadata Metadata  `json:"metadata"`
}
