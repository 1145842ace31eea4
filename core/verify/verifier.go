// Package verify checks that generated events are textually grounded in the
// retrieved context chunks via field-level fuzzy matching.
package verify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/siherrmann/clausegraph/model"
)

// eventFields are the fields scored against each chunk, in scoring order
var eventFields = []string{"name", "description", "clause_reference", "deadline", "relative_to_notice"}

// fieldThresholds are the per-field similarity ratios a fuzzy match must reach.
// clause_reference is listed for completeness but matched exactly instead.
var fieldThresholds = map[string]float64{
	"name":               0.7,
	"description":        0.7,
	"clause_reference":   0.85,
	"deadline":           0.8,
	"relative_to_notice": 0.7,
}

const (
	clauseReferenceWeight = 2
	fuzzyFieldWeight      = 1
	snippetLength         = 300
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Normalize strips everything but alphanumerics and lowercases
func Normalize(text string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(text), "")
}

// FuzzyScore is the longest-common-subsequence similarity ratio of the
// normalized strings, in [0, 1].
func FuzzyScore(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if len(na) == 0 && len(nb) == 0 {
		return 1
	}
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}
	return 2 * float64(lcsLength(na, nb)) / float64(len(na)+len(nb))
}

// lcsLength computes the longest common subsequence length with two rows
func lcsLength(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// MatchChunk scores one chunk text against one event over the fixed field set.
// clause_reference matches as an exact (regex-escaped) substring with weight 2;
// the other fields match fuzzily against their thresholds with weight 1.
func MatchChunk(chunkText string, event *model.Event) (int, []string) {
	score := 0
	var matched []string

	for _, field := range eventFields {
		value := event.Field(field)
		if value == "" {
			continue
		}

		if field == "clause_reference" {
			pattern, err := regexp.Compile(regexp.QuoteMeta(value))
			if err != nil {
				continue
			}
			if pattern.MatchString(chunkText) {
				matched = append(matched, field)
				score += clauseReferenceWeight
			}
			continue
		}

		if FuzzyScore(value, chunkText) >= fieldThresholds[field] {
			matched = append(matched, field)
			score += fuzzyFieldWeight
		}
	}

	return score, matched
}

// VerifyEvents enriches events with citations from the context chunks.
// Events are treated uniformly as a sequence; original fields are preserved,
// only SourceCitations is set. Chunks with score 0 are not cited; citations
// are sorted descending by score and truncated to topK. Events with no
// qualifying chunk carry an empty citation list.
func VerifyEvents(events []*model.Event, contextChunks []*model.RetrievalResult, topK int) []*model.Event {
	if topK <= 0 {
		topK = model.DefaultVerifyConfig().TopK
	}

	verified := make([]*model.Event, 0, len(events))
	for _, event := range events {
		matches := []*model.Citation{}

		for _, chunk := range contextChunks {
			score, fields := MatchChunk(chunk.Text, event)
			if score > 0 {
				matches = append(matches, &model.Citation{
					ChunkID:       chunk.ChunkID,
					TextSnippet:   snippet(chunk.Text),
					MatchedFields: fields,
					Score:         score,
				})
			}
		}

		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
		if len(matches) > topK {
			matches = matches[:topK]
		}

		enriched := *event
		enriched.SourceCitations = matches
		verified = append(verified, &enriched)
	}

	return verified
}

// VerifyEvent is the single-event convenience wrapper
func VerifyEvent(event *model.Event, contextChunks []*model.RetrievalResult, topK int) *model.Event {
	return VerifyEvents([]*model.Event{event}, contextChunks, topK)[0]
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetLength {
		return string(runes[:snippetLength])
	}
	return text
}
