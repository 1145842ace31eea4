package model

// RetrievalResult is one retrieved chunk with its group tags.
// Retrieval returns results ordered ascending by chunk id with duplicates
// removed; a chunk selected via several groups appears once.
type RetrievalResult struct {
	ChunkID       int      `json:"chunk_id"`
	Text          string   `json:"text"`
	GroupsRelated []string `json:"groups_related"`
}
