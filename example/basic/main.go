package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"strings"

	"github.com/siherrmann/clausegraph"
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// contractParagraphs is a small EPC contract excerpt, one paragraph per chunk
var contractParagraphs = []string{
	"Payment shall be made within 56 days after the Engineer receives the Statement under Clause 14.7.",
	"The Contractor shall submit an interim payment certificate after completion of each milestone.",
	"Delayed payment bears financing charges calculated monthly under Clause 14.8.",
	"The warranty period runs for 730 days after the Taking-Over Certificate is issued.",
	"Warranty claims must be notified to the Contractor in writing without undue delay.",
	"Either Party may terminate the Contract if the other Party becomes insolvent under Clause 16.2.",
	"The Contract is governed by the laws of England and Wales.",
}

// bagOfWordsEmbedder is a deterministic, offline stand-in for a real embedding
// model: each word hashes into one of dim buckets and the vector is normalized.
// Paragraphs sharing vocabulary end up close in cosine space.
func bagOfWordsEmbedder(dim int) func(text string) ([]float32, error) {
	return func(text string) ([]float32, error) {
		vector := make([]float32, dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(strings.Trim(word, ".,;:")))
			vector[h.Sum32()%uint32(dim)] += 1
		}
		var norm float64
		for _, v := range vector {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for i := range vector {
				vector[i] = float32(float64(vector[i]) / norm)
			}
		}
		return vector, nil
	}
}

// keywordLabeler is a deterministic stand-in for an LLM titling call
func keywordLabeler(prompt string) (string, error) {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "warranty"):
		return "Warranty Obligations", nil
	case strings.Contains(lower, "payment"):
		return "Payment Terms", nil
	default:
		return "General Provisions", nil
	}
}

// cannedGenerator is a deterministic stand-in for an LLM event generation call
func cannedGenerator(prompt string) (string, error) {
	return `[{
		"name": "Interim Payment",
		"description": "Payment shall be made within 56 days after the Engineer receives the Statement",
		"clause_reference": "Clause 14.7",
		"deadline": "56 days",
		"relative_to_notice": "after receipt of the Statement"
	}]`, nil
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	const embeddingDim = 64

	g, err := clausegraph.NewClauseGraph(dbConfig, embeddingDim)
	if err != nil {
		log.Fatalf("Failed to create clausegraph: %v", err)
	}
	defer g.Close()

	// Offline collaborators; swap in a real embedder and LLM calls here
	g.SetCollaborators(bagOfWordsEmbedder(embeddingDim), keywordLabeler, cannedGenerator)

	// Build the knowledge graph over the contract paragraphs
	artifacts, err := g.BuildGraph(contractParagraphs, clausegraph.DefaultBuildConfig())
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	fmt.Printf("Corpus RID: %s\n\n", artifacts.CorpusRID)

	fmt.Println("Semantic groups:")
	for _, group := range artifacts.Partition.Groups {
		fmt.Printf("  %-28s members=%v\n", group.Name, group.MemberIDs)
	}

	fmt.Println("\nKnowledge graph:")
	for name, node := range artifacts.Graph.Nodes {
		marker := ""
		if node.Outlier {
			marker = " (outlier)"
		}
		fmt.Printf("  node %-28s size=%d%s\n", name, node.Size, marker)
	}
	for _, edge := range artifacts.Graph.Edges {
		style := "solid"
		if edge.Dashed {
			style = "dashed"
		}
		fmt.Printf("  edge %s -> %s [%s, %s]\n", edge.Source, edge.Target, edge.Label, style)
	}

	// Hybrid retrieval
	query := "When does payment become due after a milestone?"
	results, err := g.Search(query, model.DefaultQueryConfig())
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nRetrieved %d chunks for %q:\n", len(results), query)
	for _, result := range results {
		fmt.Printf("  chunk %d (groups: %s)\n", result.ChunkID, strings.Join(result.GroupsRelated, ", "))
	}

	// End to end: retrieval, event generation, citation verification
	events, err := g.Ask(query, "2026-03-01", model.DefaultQueryConfig(), model.DefaultVerifyConfig())
	if err != nil {
		log.Fatalf("Failed to answer query: %v", err)
	}

	fmt.Println("\nVerified events:")
	for _, event := range events {
		fmt.Printf("  %s (deadline: %s, ref: %s)\n", event.Name, event.Deadline, event.ClauseReference)
		for _, citation := range event.SourceCitations {
			fmt.Printf("    cited chunk %d score=%d fields=%v\n", citation.ChunkID, citation.Score, citation.MatchedFields)
		}
	}

	// A later process can reload the run by its corpus RID
	if _, err := g.LoadEngine(artifacts.CorpusRID); err != nil {
		log.Fatalf("Failed to reload engine: %v", err)
	}
	fmt.Println("\nReloaded retrieval engine from persisted artifacts.")
}
