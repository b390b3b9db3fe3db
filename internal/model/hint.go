package model

// HintSource records where a hint value was extracted from.
type HintSource string

const (
	SourceSERPTitle          HintSource = "serp_title"
	SourceSERPSnippet        HintSource = "serp_snippet"
	SourceSERPKnowledgeGraph HintSource = "serp_knowledge_graph"
	SourceSERPAnswerBox      HintSource = "serp_answer_box"
	SourceURLSlug            HintSource = "url_slug"
	SourceHeadlineParse      HintSource = "headline_parse"
	SourceUnknown            HintSource = "unknown"
)

// Hint is a possibly-empty extracted value with a provenance tag and a
// confidence in [0,1]. Hints are immutable once computed.
type Hint struct {
	Value      string     `json:"value,omitempty"`
	Confidence float64    `json:"confidence"`
	Source     HintSource `json:"source"`
}

// Present reports whether the hint carries a usable value.
func (h Hint) Present() bool {
	return h.Value != ""
}

// EmptyHint is the zero-confidence absent hint.
func EmptyHint() Hint {
	return Hint{Source: SourceUnknown}
}

// EnrichedHints is the single hint snapshot a candidate is resolved
// against within one run.
type EnrichedHints struct {
	Name     Hint     `json:"name"`
	Headline Hint     `json:"headline"`
	Location Hint     `json:"location"`
	Company  Hint     `json:"company"`

	LinkedInID  string   `json:"linkedin_id"`
	LinkedInURL string   `json:"linkedin_url"`
	Role        RoleType `json:"role_type"`
}
