package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// RelationsDBHandlerFunctions defines the interface for relation table operations
type RelationsDBHandlerFunctions interface {
	InsertRelations(corpusRID uuid.UUID, relations model.RelationMap) error
	SelectRelations(corpusRID uuid.UUID) (model.RelationMap, error)
	DeleteRelations(corpusRID uuid.UUID) error
}

// RelationsDBHandler persists directed group relations, keyed by corpus run
type RelationsDBHandler struct {
	db *helper.Database
}

// NewRelationsDBHandler creates a new relations database handler.
// If force is true the table is dropped and recreated.
func NewRelationsDBHandler(db *helper.Database, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	handler := &RelationsDBHandler{db: db}
	if err := handler.CreateTable(force); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return handler, nil
}

// CreateTable creates the 'relations' table if it does not exist
func (h *RelationsDBHandler) CreateTable(force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if force {
		if _, err := h.db.Instance.ExecContext(ctx, `DROP TABLE IF EXISTS relations;`); err != nil {
			return helper.NewError("drop relations table", err)
		}
	}

	_, err := h.db.Instance.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS relations (
			corpus_rid UUID NOT NULL,
			source_group TEXT NOT NULL,
			target_group TEXT NOT NULL,
			relation_label TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (corpus_rid, source_group, target_group)
		);`,
	)
	if err != nil {
		return helper.NewError("create relations table", err)
	}

	h.db.Logger.Info("Checked/created table relations")

	return nil
}

// InsertRelations inserts the directed relations of one corpus run
func (h *RelationsDBHandler) InsertRelations(corpusRID uuid.UUID, relations model.RelationMap) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for source, targets := range relations {
		for target, label := range targets {
			_, err := tx.Exec(
				`INSERT INTO relations (corpus_rid, source_group, target_group, relation_label) VALUES ($1, $2, $3, $4);`,
				corpusRID, source, target, label,
			)
			if err != nil {
				return helper.NewError(fmt.Sprintf("insert relation %s -> %s", source, target), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectRelations loads the directed relations of one corpus run
func (h *RelationsDBHandler) SelectRelations(corpusRID uuid.UUID) (model.RelationMap, error) {
	rows, err := h.db.Instance.Query(
		`SELECT source_group, target_group, relation_label FROM relations WHERE corpus_rid = $1 ORDER BY source_group, target_group;`,
		corpusRID,
	)
	if err != nil {
		return nil, helper.NewError("select relations", err)
	}
	defer rows.Close()

	relations := make(model.RelationMap)
	for rows.Next() {
		var source, target, label string
		if err := rows.Scan(&source, &target, &label); err != nil {
			return nil, helper.NewError("scan", err)
		}
		relations.Add(source, target, label)
	}

	return relations, rows.Err()
}

// DeleteRelations removes the directed relations of one corpus run
func (h *RelationsDBHandler) DeleteRelations(corpusRID uuid.UUID) error {
	_, err := h.db.Instance.Exec(`DELETE FROM relations WHERE corpus_rid = $1;`, corpusRID)
	if err != nil {
		return helper.NewError("delete relations", err)
	}
	return nil
}
