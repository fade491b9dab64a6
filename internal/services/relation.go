package services

import (
	"context"

	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
)

// EntityResolver answers owner-scoped existence questions for any kind.
type EntityResolver interface {
	Exists(ctx context.Context, ownerID int64, kind types.Kind, id int64) (bool, error)
}

// RelationLinker mutates join-table rows.
type RelationLinker interface {
	Add(ctx context.Context, joinTable, parentColumn, childColumn string, parentID, childID int64) error
	Remove(ctx context.Context, joinTable, parentColumn, childColumn string, parentID, childID int64) error
}

// RelationService attaches and detaches resources across the relation
// graph. Both endpoints must exist and belong to the caller; anything else
// reads as not found.
type RelationService struct {
	entities EntityResolver
	links    RelationLinker
}

func NewRelationService(entities EntityResolver, links RelationLinker) *RelationService {
	return &RelationService{entities: entities, links: links}
}

func (s *RelationService) Attach(ctx context.Context, ownerID int64, parentKind types.Kind, parentID int64, childKind types.Kind, childID int64) error {
	rel, err := s.resolve(ctx, ownerID, parentKind, parentID, childKind, childID)
	if err != nil {
		return err
	}
	return s.links.Add(ctx, rel.JoinTable, rel.ParentColumn, rel.ChildColumn, parentID, childID)
}

func (s *RelationService) Detach(ctx context.Context, ownerID int64, parentKind types.Kind, parentID int64, childKind types.Kind, childID int64) error {
	rel, err := s.resolve(ctx, ownerID, parentKind, parentID, childKind, childID)
	if err != nil {
		return err
	}
	return s.links.Remove(ctx, rel.JoinTable, rel.ParentColumn, rel.ChildColumn, parentID, childID)
}

func (s *RelationService) resolve(ctx context.Context, ownerID int64, parentKind types.Kind, parentID int64, childKind types.Kind, childID int64) (types.Relation, error) {
	rel, ok := types.RelationBetween(parentKind, childKind)
	if !ok {
		return types.Relation{}, store.ErrNotFound
	}

	for _, endpoint := range []struct {
		kind types.Kind
		id   int64
	}{
		{parentKind, parentID},
		{childKind, childID},
	} {
		exists, err := s.entities.Exists(ctx, ownerID, endpoint.kind, endpoint.id)
		if err != nil {
			return types.Relation{}, err
		}
		if !exists {
			return types.Relation{}, store.ErrNotFound
		}
	}
	return rel, nil
}
