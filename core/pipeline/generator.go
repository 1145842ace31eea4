package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// FormatContextChunks renders retrieved chunks as plain text for the event
// generation prompt, truncating once the total length would exceed maxLen.
func FormatContextChunks(results []*model.RetrievalResult, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100000
	}

	var formatted strings.Builder
	for _, result := range results {
		block := fmt.Sprintf("Chunk %d (Groups: %s):\n%s\n\n", result.ChunkID, strings.Join(result.GroupsRelated, ", "), result.Text)
		if formatted.Len()+len(block) > maxLen {
			break
		}
		formatted.WriteString(block)
	}
	return strings.TrimSpace(formatted.String())
}

// BuildEventPrompt assembles the event generation prompt from the query and
// the formatted context.
func BuildEventPrompt(query string, results []*model.RetrievalResult, noticeDate string) string {
	return fmt.Sprintf(
		"You are an EPC contract assistant that returns structured events.\n"+
			"Using only the contract excerpts below, answer the question as a JSON object\n"+
			"(or JSON list of objects) with the fields name, description, clause_reference,\n"+
			"deadline and relative_to_notice. Return only JSON, no explanation.\n\n"+
			"Notice date: %s\n\n"+
			"Contract excerpts:\n%s\n\n"+
			"Question: %s",
		noticeDate, FormatContextChunks(results, 0), query,
	)
}

// ParseEventResponse parses the generator output into events. It tries a
// direct decode, then a decode of a JSON string wrapping the payload, and
// finally falls back to a single error event carrying the raw response, so
// malformed content never aborts the pipeline.
func ParseEventResponse(raw string) []*model.Event {
	trimmed := strings.TrimSpace(raw)

	if events, ok := decodeEvents(trimmed); ok {
		return events
	}

	// some models double-encode: a JSON string containing the JSON payload
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		if events, ok := decodeEvents(inner); ok {
			return events
		}
	}

	return []*model.Event{{
		Error:       "response is not a JSON object or list",
		RawResponse: raw,
	}}
}

func decodeEvents(text string) ([]*model.Event, bool) {
	var list []*model.Event
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, true
	}

	var single model.Event
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return []*model.Event{&single}, true
	}

	return nil, false
}

// GenerateEvents runs the external generator over the retrieved context and
// parses its response. Only the call itself can fail; malformed responses are
// returned as error events and passed through unverified.
func GenerateEvents(generate GenerateFunc, query string, results []*model.RetrievalResult, noticeDate string) ([]*model.Event, error) {
	if generate == nil {
		return nil, helper.NewError("generate events", fmt.Errorf("generate function not set"))
	}

	raw, err := generate(BuildEventPrompt(query, results, noticeDate))
	if err != nil {
		return nil, helper.NewError("generate events", err)
	}

	return ParseEventResponse(raw), nil
}
