package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// MetaLabelsDBHandlerFunctions defines the interface for meta-label table operations
type MetaLabelsDBHandlerFunctions interface {
	InsertMetaIndex(corpusRID uuid.UUID, index model.MetaIndex) error
	SelectMetaIndex(corpusRID uuid.UUID) (model.MetaIndex, error)
	DeleteMetaIndex(corpusRID uuid.UUID) error
}

// MetaLabelsDBHandler persists the meta-label table, keyed by corpus run
type MetaLabelsDBHandler struct {
	db *helper.Database
}

// NewMetaLabelsDBHandler creates a new meta-labels database handler.
// If force is true the table is dropped and recreated.
func NewMetaLabelsDBHandler(db *helper.Database, force bool) (*MetaLabelsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	handler := &MetaLabelsDBHandler{db: db}
	if err := handler.CreateTable(force); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MetaLabelsDBHandler")

	return handler, nil
}

// CreateTable creates the 'meta_labels' table if it does not exist
func (h *MetaLabelsDBHandler) CreateTable(force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if force {
		if _, err := h.db.Instance.ExecContext(ctx, `DROP TABLE IF EXISTS meta_labels;`); err != nil {
			return helper.NewError("drop meta_labels table", err)
		}
	}

	_, err := h.db.Instance.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS meta_labels (
			corpus_rid UUID NOT NULL,
			chunk_id INTEGER NOT NULL,
			groups_related TEXT[] NOT NULL,
			chunk_text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (corpus_rid, chunk_id)
		);`,
	)
	if err != nil {
		return helper.NewError("create meta_labels table", err)
	}

	h.db.Logger.Info("Checked/created table meta_labels")

	return nil
}

// InsertMetaIndex inserts the meta labels of one corpus run
func (h *MetaLabelsDBHandler) InsertMetaIndex(corpusRID uuid.UUID, index model.MetaIndex) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, label := range index {
		_, err := tx.Exec(
			`INSERT INTO meta_labels (corpus_rid, chunk_id, groups_related, chunk_text) VALUES ($1, $2, $3, $4);`,
			corpusRID, label.ChunkID, pq.Array(label.GroupsRelated), label.Text,
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert meta label %d", label.ChunkID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectMetaIndex loads the meta labels of one corpus run
func (h *MetaLabelsDBHandler) SelectMetaIndex(corpusRID uuid.UUID) (model.MetaIndex, error) {
	rows, err := h.db.Instance.Query(
		`SELECT chunk_id, groups_related, chunk_text FROM meta_labels WHERE corpus_rid = $1 ORDER BY chunk_id;`,
		corpusRID,
	)
	if err != nil {
		return nil, helper.NewError("select meta labels", err)
	}
	defer rows.Close()

	index := make(model.MetaIndex)
	for rows.Next() {
		label := &model.MetaLabel{}
		var groups pq.StringArray
		if err := rows.Scan(&label.ChunkID, &groups, &label.Text); err != nil {
			return nil, helper.NewError("scan", err)
		}
		label.GroupsRelated = []string(groups)
		index[label.ChunkID] = label
	}

	return index, rows.Err()
}

// DeleteMetaIndex removes the meta labels of one corpus run
func (h *MetaLabelsDBHandler) DeleteMetaIndex(corpusRID uuid.UUID) error {
	_, err := h.db.Instance.Exec(`DELETE FROM meta_labels WHERE corpus_rid = $1;`, corpusRID)
	if err != nil {
		return helper.NewError("delete meta labels", err)
	}
	return nil
}
