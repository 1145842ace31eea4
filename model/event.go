package model

// Event is a contractual event produced by the external generator.
// The five named fields are the ones the verifier scores; Error and
// RawResponse are set when the generated content could not be parsed.
type Event struct {
	Name             string `json:"name,omitempty"`
	Description      string `json:"description,omitempty"`
	ClauseReference  string `json:"clause_reference,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	RelativeToNotice string `json:"relative_to_notice,omitempty"`

	// Parse failure marker, passed through unverified
	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`

	SourceCitations []*Citation `json:"source_citations"`
}

// Field returns the value of one of the verifiable fields by its JSON name
func (e *Event) Field(name string) string {
	switch name {
	case "name":
		return e.Name
	case "description":
		return e.Description
	case "clause_reference":
		return e.ClauseReference
	case "deadline":
		return e.Deadline
	case "relative_to_notice":
		return e.RelativeToNotice
	}
	return ""
}

// Citation records that a context chunk textually grounds one or more fields
// of a generated event.
type Citation struct {
	ChunkID       int      `json:"chunk_id"`
	TextSnippet   string   `json:"text_snippet"`
	MatchedFields []string `json:"match_fields"`
	Score         int      `json:"score"`
}
