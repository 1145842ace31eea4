package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/siherrmann/clausegraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testChunks(texts ...string) []*model.Chunk {
	chunks := make([]*model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &model.Chunk{ID: i, Text: text, Embedding: []float32{1}}
	}
	return chunks
}

func TestLabelerNameGroups(t *testing.T) {
	chunks := testChunks(
		"payment on milestone completion",
		"payment within thirty days",
		"governing law of the contract",
	)

	t.Run("Only multi-member groups are labeled", func(t *testing.T) {
		var prompts []string
		label := func(prompt string) (string, error) {
			prompts = append(prompts, prompt)
			return "Payment Terms", nil
		}

		partition := &model.Partition{Groups: []*model.Group{
			{Name: "group_0", MemberIDs: []int{0, 1}},
			{Name: "group_loneliner_2", MemberIDs: []int{2}},
		}}

		labeler := NewLabeler(label, model.LabelConfig{MaxWorkers: 1, MaxChunksPerPrompt: 5}, testLogger())
		labels, err := labeler.NameGroups(partition, chunks)

		require.NoError(t, err)
		require.Len(t, labels, 1, "Expected the loneliner group to be skipped")
		assert.Equal(t, "Payment Terms", labels[model.NewGroupKey([]int{0, 1})])
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "payment on milestone completion")
		assert.Contains(t, prompts[0], "EPC")
	})

	t.Run("Result keyed by member set regardless of order", func(t *testing.T) {
		label := func(prompt string) (string, error) { return "Warranty Obligations", nil }

		partition := &model.Partition{Groups: []*model.Group{
			{Name: "group_0", MemberIDs: []int{1, 0}},
			{Name: "group_loneliner_2", MemberIDs: []int{2}},
		}}

		labeler := NewLabeler(label, model.DefaultLabelConfig(), testLogger())
		labels, err := labeler.NameGroups(partition, chunks)

		require.NoError(t, err)
		assert.Equal(t, "Warranty Obligations", labels[model.NewGroupKey([]int{0, 1})])
	})

	t.Run("Failed group gets an error label instead of aborting", func(t *testing.T) {
		label := func(prompt string) (string, error) {
			if strings.Contains(prompt, "governing law") {
				return "", fmt.Errorf("rate limited")
			}
			return "Payment Terms", nil
		}

		partition := &model.Partition{Groups: []*model.Group{
			{Name: "group_0", MemberIDs: []int{0, 1}},
			{Name: "group_1", MemberIDs: []int{2}},
		}}
		// make the singleton eligible by adding a second member
		moreChunks := testChunks(
			"payment on milestone completion",
			"payment within thirty days",
			"governing law of the contract",
			"jurisdiction and venue",
		)
		partition.Groups[1].MemberIDs = []int{2, 3}

		labeler := NewLabeler(label, model.DefaultLabelConfig(), testLogger())
		labels, err := labeler.NameGroups(partition, moreChunks)

		require.NoError(t, err)
		assert.Equal(t, "Payment Terms", labels[model.NewGroupKey([]int{0, 1})])
		assert.Equal(t, "Error: rate limited", labels[model.NewGroupKey([]int{2, 3})])
	})

	t.Run("Labels are trimmed", func(t *testing.T) {
		label := func(prompt string) (string, error) { return "  Termination Terms \n", nil }

		partition := &model.Partition{Groups: []*model.Group{
			{Name: "group_0", MemberIDs: []int{0, 1}},
			{Name: "group_loneliner_2", MemberIDs: []int{2}},
		}}

		labeler := NewLabeler(label, model.DefaultLabelConfig(), testLogger())
		labels, err := labeler.NameGroups(partition, chunks)

		require.NoError(t, err)
		assert.Equal(t, "Termination Terms", labels[model.NewGroupKey([]int{0, 1})])
	})

	t.Run("Missing label function rejected", func(t *testing.T) {
		labeler := NewLabeler(nil, model.DefaultLabelConfig(), testLogger())
		_, err := labeler.NameGroups(&model.Partition{}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "label function not set")
	})
}

func TestLabelerBuildPrompt(t *testing.T) {
	labeler := NewLabeler(nil, model.LabelConfig{MaxWorkers: 1, MaxChunksPerPrompt: 2}, testLogger())

	prompt := labeler.buildPrompt([]string{"first paragraph", "second paragraph", "third paragraph"})

	assert.Contains(t, prompt, "1. first paragraph")
	assert.Contains(t, prompt, "2. second paragraph")
	assert.NotContains(t, prompt, "third paragraph", "Expected texts beyond the prompt cap to be dropped")
	assert.Contains(t, prompt, "2 to 6 words")
}
