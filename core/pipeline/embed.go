package pipeline

import (
	"sync"

	"github.com/siherrmann/clausegraph/model"
)

// EmbedChunks embeds every text in the buffer concurrently, bounded by
// maxWorkers, and returns the chunks with dense ids in buffer order.
// Per-item failures do not cancel sibling workers; failed ids come back in the
// error map with a nil embedding on the chunk, so a caller can re-run them
// selectively.
func EmbedChunks(buffer []string, embed EmbedFunc, maxWorkers int) ([]*model.Chunk, map[int]error) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	chunks := make([]*model.Chunk, len(buffer))
	failures := make(map[int]error)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, maxWorkers)

	for i, text := range buffer {
		wg.Add(1)
		sem <- struct{}{}

		go func(id int, text string) {
			defer wg.Done()
			defer func() { <-sem }()

			embedding, err := embed(text)

			mu.Lock()
			defer mu.Unlock()
			chunks[id] = &model.Chunk{ID: id, Text: text, Embedding: embedding}
			if err != nil {
				chunks[id].Embedding = nil
				failures[id] = err
			}
		}(i, text)
	}

	wg.Wait()
	return chunks, failures
}
