package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// ChunksDBHandlerFunctions defines the interface for chunk table operations
type ChunksDBHandlerFunctions interface {
	InsertChunks(corpusRID uuid.UUID, chunks []*model.Chunk) error
	SelectChunks(corpusRID uuid.UUID) ([]*model.Chunk, error)
	DeleteChunks(corpusRID uuid.UUID) error
}

// ChunksDBHandler persists the chunk embedding table, keyed by corpus run
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// If force is true the table is dropped and recreated.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	handler := &ChunksDBHandler{db: db}
	if err := handler.CreateTable(embeddingDim, force); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return handler, nil
}

// CreateTable creates the 'chunks' table if it does not exist
func (h *ChunksDBHandler) CreateTable(embeddingDim int, force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if force {
		if _, err := h.db.Instance.ExecContext(ctx, `DROP TABLE IF EXISTS chunks;`); err != nil {
			return helper.NewError("drop chunks table", err)
		}
	}

	_, err := h.db.Instance.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS chunks (
			corpus_rid UUID NOT NULL,
			chunk_id INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding VECTOR(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (corpus_rid, chunk_id)
		);`, embeddingDim,
	))
	if err != nil {
		return helper.NewError("create chunks table", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// InsertChunks inserts all chunks of one corpus run
func (h *ChunksDBHandler) InsertChunks(corpusRID uuid.UUID, chunks []*model.Chunk) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn("chunks", "corpus_rid", "chunk_id", "chunk_text", "embedding"))
	if err != nil {
		return helper.NewError("prepare copy", err)
	}

	for _, chunk := range chunks {
		if _, err := stmt.Exec(corpusRID, chunk.ID, chunk.Text, pgvector.NewVector(chunk.Embedding)); err != nil {
			return helper.NewError(fmt.Sprintf("copy chunk %d", chunk.ID), err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		return helper.NewError("flush copy", err)
	}
	if err := stmt.Close(); err != nil {
		return helper.NewError("close copy", err)
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectChunks loads all chunks of one corpus run ordered by chunk id
func (h *ChunksDBHandler) SelectChunks(corpusRID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT chunk_id, chunk_text, embedding FROM chunks WHERE corpus_rid = $1 ORDER BY chunk_id;`,
		corpusRID,
	)
	if err != nil {
		return nil, helper.NewError("select chunks", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.Text, &embedding); err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// DeleteChunks removes all chunks of one corpus run
func (h *ChunksDBHandler) DeleteChunks(corpusRID uuid.UUID) error {
	_, err := h.db.Instance.Exec(`DELETE FROM chunks WHERE corpus_rid = $1;`, corpusRID)
	if err != nil {
		return helper.NewError("delete chunks", err)
	}
	return nil
}
