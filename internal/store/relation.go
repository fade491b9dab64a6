package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RelationStore manages rows in the many-to-many join tables.
// Ownership of both endpoints is verified by the caller before mutation.
type RelationStore struct {
	db *sql.DB
}

func NewRelationStore(db *sql.DB) *RelationStore {
	return &RelationStore{db: db}
}

// Add links parent and child. Attaching an existing pair is a no-op.
func (s *RelationStore) Add(ctx context.Context, joinTable, parentColumn, childColumn string, parentID, childID int64) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		joinTable, parentColumn, childColumn,
	)
	_, err := s.db.ExecContext(ctx, query, parentID, childID)
	return err
}

// Remove unlinks parent and child. Removing an absent pair is a no-op.
func (s *RelationStore) Remove(ctx context.Context, joinTable, parentColumn, childColumn string, parentID, childID int64) error {
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		joinTable, parentColumn, childColumn,
	)
	_, err := s.db.ExecContext(ctx, query, parentID, childID)
	return err
}
