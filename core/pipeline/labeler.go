package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// Labeler generates textual names for multi-member groups.
// Singleton groups keep their deterministic placeholder name.
type Labeler struct {
	label  LabelFunc
	config model.LabelConfig
	log    *slog.Logger
}

// NewLabeler creates a new group labeler
func NewLabeler(label LabelFunc, config model.LabelConfig, logger *slog.Logger) *Labeler {
	return &Labeler{
		label:  label,
		config: config,
		log:    logger,
	}
}

// NameGroups submits every group with more than one member for labeling, up to
// MaxWorkers concurrently. Labeling is best effort: a failed group gets the
// explicit label "Error: <message>" instead of aborting the batch. Results
// are keyed by the group's member-id set so lookups succeed regardless of
// enumeration order.
func (l *Labeler) NameGroups(partition *model.Partition, chunks []*model.Chunk) (map[model.GroupKey]string, error) {
	if l.label == nil {
		return nil, helper.NewError("name groups", fmt.Errorf("label function not set"))
	}

	var eligible []*model.Group
	for _, group := range partition.Groups {
		if group.Size() > 1 {
			eligible = append(eligible, group)
		}
	}

	l.log.Info("Generating group titles",
		slog.Int("num_groups", len(eligible)),
		slog.Int("num_skipped", len(partition.Groups)-len(eligible)),
	)

	labels := make(map[model.GroupKey]string, len(eligible))

	maxWorkers := l.config.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, maxWorkers)

	for _, group := range eligible {
		wg.Add(1)
		sem <- struct{}{}

		go func(group *model.Group) {
			defer wg.Done()
			defer func() { <-sem }()

			texts := make([]string, 0, len(group.MemberIDs))
			for _, id := range group.MemberIDs {
				texts = append(texts, chunks[id].Text)
			}

			label, err := l.label(l.buildPrompt(texts))
			if err != nil {
				label = fmt.Sprintf("Error: %v", err)
			} else {
				label = strings.TrimSpace(label)
			}

			mu.Lock()
			labels[group.Key()] = label
			mu.Unlock()
		}(group)
	}

	wg.Wait()
	return labels, nil
}

// buildPrompt assembles the titling prompt from at most MaxChunksPerPrompt
// member texts in ascending id order.
func (l *Labeler) buildPrompt(texts []string) string {
	maxChunks := l.config.MaxChunksPerPrompt
	if maxChunks < 1 {
		maxChunks = 5
	}
	if len(texts) > maxChunks {
		texts = texts[:maxChunks]
	}

	var block strings.Builder
	for i, text := range texts {
		if i > 0 {
			block.WriteString("\n\n")
		}
		fmt.Fprintf(&block, "%d. %s", i+1, text)
	}

	return fmt.Sprintf(
		"You are a legal assistant specialized in EPC (Engineering, Procurement and Construction) contracts.\n"+
			"Below is a set of paragraphs grouped by semantic similarity, all extracted from the same contract.\n"+
			"Please analyze their content and return a concise, single-line label that best summarizes the shared theme.\n\n"+
			"**Label format rules:**\n"+
			"- Use 2 to 6 words.\n"+
			"- Use formal and specific legal language (e.g., 'Force Majeure Clauses', 'Warranty Obligations', 'Termination Terms').\n"+
			"- Capitalize first letters (Title Case).\n"+
			"- Do not use punctuation at the end.\n"+
			"- Return only the label, no explanation.\n\n"+
			"Here are the paragraphs:\n\n%s\n\nLabel:",
		block.String(),
	)
}
