package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/clausegraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroupsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewGroupsDBHandler", func(t *testing.T) {
		groupsDbHandler, err := NewGroupsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewGroupsDBHandler to not return an error")
		require.NotNil(t, groupsDbHandler, "Expected NewGroupsDBHandler to return a non-nil instance")
		require.NotNil(t, groupsDbHandler.db, "Expected NewGroupsDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewGroupsDBHandler with nil database", func(t *testing.T) {
		_, err := NewGroupsDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestGroupsInsertSelectDelete(t *testing.T) {
	database := initDB(t)

	groupsDbHandler, err := NewGroupsDBHandler(database, true)
	require.NoError(t, err)

	corpusRID := uuid.New()
	partition := &model.Partition{Groups: []*model.Group{
		{Name: "Payment Terms", MemberIDs: []int{0, 1}},
		{Name: "Delay Damages", MemberIDs: []int{2, 3}},
		{Name: "group_loneliner_4", MemberIDs: []int{4}},
	}}

	t.Run("Insert partition", func(t *testing.T) {
		err := groupsDbHandler.InsertPartition(corpusRID, partition)
		assert.NoError(t, err)
	})

	t.Run("Select partition ordered by smallest member id", func(t *testing.T) {
		selected, err := groupsDbHandler.SelectPartition(corpusRID)
		require.NoError(t, err)
		require.Len(t, selected.Groups, 3)

		assert.Equal(t, "Payment Terms", selected.Groups[0].Name)
		assert.Equal(t, []int{0, 1}, selected.Groups[0].MemberIDs)
		assert.Equal(t, "Delay Damages", selected.Groups[1].Name)
		assert.Equal(t, "group_loneliner_4", selected.Groups[2].Name)
		assert.True(t, selected.Groups[2].IsOutlier())

		assert.NoError(t, selected.Validate(5), "Expected the reloaded partition to still be a strict partition")
	})

	t.Run("Duplicate group name in one corpus rejected", func(t *testing.T) {
		err := groupsDbHandler.InsertPartition(corpusRID, &model.Partition{Groups: []*model.Group{
			{Name: "Payment Terms", MemberIDs: []int{9}},
		}})
		assert.Error(t, err, "Expected the primary key to reject the duplicate")
	})

	t.Run("Delete partition", func(t *testing.T) {
		err := groupsDbHandler.DeletePartition(corpusRID)
		assert.NoError(t, err)

		selected, err := groupsDbHandler.SelectPartition(corpusRID)
		require.NoError(t, err)
		assert.Empty(t, selected.Groups)
	})
}
