package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/life-master/apiserver/types"
)

// EntityStore answers owner-scoped existence questions across all resource
// kinds. It backs the ownership checks of file uploads and relation edits.
type EntityStore struct {
	db *sql.DB
}

func NewEntityStore(db *sql.DB) *EntityStore {
	return &EntityStore{db: db}
}

var kindTables = map[types.Kind]string{
	types.KindCategory: "categories",
	types.KindTask:     "tasks",
	types.KindNote:     "notes",
	types.KindHabit:    "habits",
}

// Exists reports whether the given resource exists and is owned by ownerID.
func (s *EntityStore) Exists(ctx context.Context, ownerID int64, kind types.Kind, id int64) (bool, error) {
	table, ok := kindTables[kind]
	if !ok {
		return false, fmt.Errorf("unknown entity kind %q", kind)
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND user_id = $2)`, table)
	var exists bool
	err := s.db.QueryRowContext(ctx, query, id, ownerID).Scan(&exists)
	return exists, err
}

// CountByOwner returns the number of rows the owner holds in each resource
// kind, backing the dashboard stats endpoint.
func (s *EntityStore) CountByOwner(ctx context.Context, ownerID int64) (map[types.Kind]int64, error) {
	counts := make(map[types.Kind]int64, len(kindTables))
	for kind, table := range kindTables {
		query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE user_id = $1`, table)
		var count int64
		if err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
			return nil, err
		}
		counts[kind] = count
	}
	return counts, nil
}
