package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

// ArtifactTables lists the persisted artifact tables in creation order.
// Each one is independently reloadable so later pipeline stages can be rerun
// without recomputing earlier ones.
var ArtifactTables = []string{
	"chunks",
	"semantic_groups",
	"meta_labels",
	"relations",
}

// Init initializes database extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// CheckTables verifies that all artifact tables exist in the database
func CheckTables(db *sql.DB) (bool, error) {
	var allExist bool
	for _, table := range ArtifactTables {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1);`,
			table,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of table %s: %w", table, err)
		}
		if !allExist {
			log.Printf("Table %s does not exist", table)
			break
		}
	}
	return allExist, nil
}
