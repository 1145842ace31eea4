package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
	"gonum.org/v1/gonum/floats"
)

// RelationEngine discovers labeled relations between named groups.
// Candidate pairs are gated by mean-embedding cosine similarity before any
// description call is made; without the gate the number of expensive calls
// grows quadratically with the group count.
type RelationEngine struct {
	describe LabelFunc
	config   model.RelationConfig
	log      *slog.Logger
}

// NewRelationEngine creates a new relation engine
func NewRelationEngine(describe LabelFunc, config model.RelationConfig, logger *slog.Logger) *RelationEngine {
	return &RelationEngine{
		describe: describe,
		config:   config,
		log:      logger,
	}
}

type groupPair struct {
	a, b string
}

// Infer gates all unordered pairs of named groups by similarity, selects
// representative texts per gated group and describes each pair concurrently.
// A gated pair always produces an entry; per-pair failures are recorded as an
// explicit "Error: <message>" label. Edges are stored only in the direction
// in which the pair was evaluated.
func (e *RelationEngine) Infer(index model.MetaIndex, chunks []*model.Chunk) (model.RelationMap, error) {
	if e.describe == nil {
		return nil, helper.NewError("infer relations", fmt.Errorf("relation description function not set"))
	}

	sizes := index.GroupSizes()
	names := make([]string, 0, len(sizes))
	for name := range sizes {
		names = append(names, name)
	}
	sort.Strings(names)

	means := make(map[string][]float64, len(names))
	for _, name := range names {
		mean, err := e.groupMean(index, chunks, name)
		if err != nil {
			return nil, helper.NewError("compute group mean", err)
		}
		means[name] = mean
	}

	var pairs []groupPair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if cosineSimilarity(means[names[i]], means[names[j]]) >= e.config.SimilarityThreshold {
				pairs = append(pairs, groupPair{a: names[i], b: names[j]})
			}
		}
	}

	e.log.Info("Gated group pairs for relation discovery",
		slog.Int("num_groups", len(names)),
		slog.Int("num_pairs", len(pairs)),
	)

	relations := make(model.RelationMap)

	maxWorkers := e.config.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, maxWorkers)

	for _, pair := range pairs {
		wg.Add(1)
		sem <- struct{}{}

		go func(pair groupPair) {
			defer wg.Done()
			defer func() { <-sem }()

			textsA := e.representatives(index, chunks, pair.a)
			textsB := e.representatives(index, chunks, pair.b)

			label, err := e.describe(buildRelationPrompt(pair.a, pair.b, textsA, textsB))
			if err != nil {
				label = fmt.Sprintf("Error: %v", err)
			} else {
				label = strings.TrimSpace(label)
			}

			mu.Lock()
			relations.Add(pair.a, pair.b, label)
			mu.Unlock()
		}(pair)
	}

	wg.Wait()
	return relations, nil
}

// groupMean computes the component-wise mean embedding of a named group
func (e *RelationEngine) groupMean(index model.MetaIndex, chunks []*model.Chunk, name string) ([]float64, error) {
	ids := index.GroupChunkIDs(name)
	if len(ids) == 0 {
		return nil, fmt.Errorf("group %s has no member chunks", name)
	}

	dim := len(chunks[ids[0]].Embedding)
	mean := make([]float64, dim)
	row := make([]float64, dim)

	for _, id := range ids {
		for j, v := range chunks[id].Embedding {
			row[j] = float64(v)
		}
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(len(ids)), mean)

	return mean, nil
}

// representatives selects up to TopKRepresentatives member texts per group:
// the 3*topK members closest to the group centroid by Euclidean distance,
// re-ranked by text length descending. Central members are typical examples;
// longer excerpts make richer evidence for the description prompt.
func (e *RelationEngine) representatives(index model.MetaIndex, chunks []*model.Chunk, name string) []string {
	ids := index.GroupChunkIDs(name)
	if len(ids) == 0 {
		return nil
	}

	topK := e.config.TopKRepresentatives
	if topK < 1 {
		topK = 2
	}

	dim := len(chunks[ids[0]].Embedding)
	centroid := make([]float64, dim)
	row := make([]float64, dim)
	for _, id := range ids {
		for j, v := range chunks[id].Embedding {
			row[j] = float64(v)
		}
		floats.Add(centroid, row)
	}
	floats.Scale(1/float64(len(ids)), centroid)

	type ranked struct {
		id       int
		distance float64
	}
	byDistance := make([]ranked, 0, len(ids))
	for _, id := range ids {
		for j, v := range chunks[id].Embedding {
			row[j] = float64(v) - centroid[j]
		}
		byDistance = append(byDistance, ranked{id: id, distance: math.Sqrt(floats.Dot(row, row))})
	}
	sort.Slice(byDistance, func(i, j int) bool { return byDistance[i].distance < byDistance[j].distance })

	shortlist := byDistance
	if len(shortlist) > 3*topK {
		shortlist = shortlist[:3*topK]
	}

	sort.SliceStable(shortlist, func(i, j int) bool {
		return len(chunks[shortlist[i].id].Text) > len(chunks[shortlist[j].id].Text)
	})
	if len(shortlist) > topK {
		shortlist = shortlist[:topK]
	}

	texts := make([]string, 0, len(shortlist))
	for _, r := range shortlist {
		texts = append(texts, chunks[r.id].Text)
	}
	return texts
}

func buildRelationPrompt(groupA, groupB string, textsA, textsB []string) string {
	var a, b strings.Builder
	for _, text := range textsA {
		fmt.Fprintf(&a, "- %s\n", text)
	}
	for _, text := range textsB {
		fmt.Fprintf(&b, "- %s\n", text)
	}

	return fmt.Sprintf(
		"You are an EPC legal assistant. Below are excerpts from two groups of contract clauses.\n"+
			"Each group consists of semantically similar legal content.\n"+
			"Identify and describe the key legal or functional relationship between the two groups,\n"+
			"using a short, ontological label.\n\n"+
			"Group A – '%s':\n%s\n"+
			"Group B – '%s':\n%s\n"+
			"Return only the relationship as a concise phrase (e.g., 'Contractual Dependency', 'Shared Trigger Event').",
		groupA, a.String(), groupB, b.String(),
	)
}

// cosineSimilarity on float64 vectors; zero vectors yield 0
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dot := floats.Dot(a, b)
	normA := math.Sqrt(floats.Dot(a, a))
	normB := math.Sqrt(floats.Dot(b, b))
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}
