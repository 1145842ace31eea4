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

// GroupsDBHandlerFunctions defines the interface for group table operations
type GroupsDBHandlerFunctions interface {
	InsertPartition(corpusRID uuid.UUID, partition *model.Partition) error
	SelectPartition(corpusRID uuid.UUID) (*model.Partition, error)
	DeletePartition(corpusRID uuid.UUID) error
}

// GroupsDBHandler persists the group partition table, keyed by corpus run
type GroupsDBHandler struct {
	db *helper.Database
}

// NewGroupsDBHandler creates a new groups database handler.
// If force is true the table is dropped and recreated.
func NewGroupsDBHandler(db *helper.Database, force bool) (*GroupsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	handler := &GroupsDBHandler{db: db}
	if err := handler.CreateTable(force); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized GroupsDBHandler")

	return handler, nil
}

// CreateTable creates the 'semantic_groups' table if it does not exist
func (h *GroupsDBHandler) CreateTable(force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if force {
		if _, err := h.db.Instance.ExecContext(ctx, `DROP TABLE IF EXISTS semantic_groups;`); err != nil {
			return helper.NewError("drop semantic_groups table", err)
		}
	}

	_, err := h.db.Instance.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS semantic_groups (
			corpus_rid UUID NOT NULL,
			group_name TEXT NOT NULL,
			member_ids INTEGER[] NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (corpus_rid, group_name)
		);`,
	)
	if err != nil {
		return helper.NewError("create semantic_groups table", err)
	}

	h.db.Logger.Info("Checked/created table semantic_groups")

	return nil
}

// InsertPartition inserts all groups of one corpus run
func (h *GroupsDBHandler) InsertPartition(corpusRID uuid.UUID, partition *model.Partition) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, group := range partition.Groups {
		members := make([]int64, len(group.MemberIDs))
		for i, id := range group.MemberIDs {
			members[i] = int64(id)
		}

		_, err := tx.Exec(
			`INSERT INTO semantic_groups (corpus_rid, group_name, member_ids) VALUES ($1, $2, $3);`,
			corpusRID, group.Name, pq.Array(members),
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert group %s", group.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectPartition loads the partition of one corpus run, groups ordered by
// their smallest member id.
func (h *GroupsDBHandler) SelectPartition(corpusRID uuid.UUID) (*model.Partition, error) {
	rows, err := h.db.Instance.Query(
		`SELECT group_name, member_ids FROM semantic_groups WHERE corpus_rid = $1 ORDER BY member_ids[1];`,
		corpusRID,
	)
	if err != nil {
		return nil, helper.NewError("select groups", err)
	}
	defer rows.Close()

	partition := &model.Partition{}
	for rows.Next() {
		group := &model.Group{}
		var members pq.Int64Array
		if err := rows.Scan(&group.Name, &members); err != nil {
			return nil, helper.NewError("scan", err)
		}
		group.MemberIDs = make([]int, len(members))
		for i, id := range members {
			group.MemberIDs[i] = int(id)
		}
		partition.Groups = append(partition.Groups, group)
	}

	return partition, rows.Err()
}

// DeletePartition removes all groups of one corpus run
func (h *GroupsDBHandler) DeletePartition(corpusRID uuid.UUID) error {
	_, err := h.db.Instance.Exec(`DELETE FROM semantic_groups WHERE corpus_rid = $1;`, corpusRID)
	if err != nil {
		return helper.NewError("delete groups", err)
	}
	return nil
}
