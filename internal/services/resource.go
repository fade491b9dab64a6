package services

import (
	"context"
	"strings"

	"github.com/life-master/apiserver/internal/events"
	"github.com/life-master/apiserver/types"
)

// ResourceRepository defines persistence operations shared by all four
// resource kinds. Every operation is owner-scoped.
type ResourceRepository[T types.Entity] interface {
	List(ctx context.Context, ownerID int64, pr types.PageRequest) (types.Page[T], error)
	ListRelated(ctx context.Context, ownerID int64, rel types.Relation, parentID int64, pr types.PageRequest) (types.Page[T], error)
	Get(ctx context.Context, ownerID, id int64) (T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// ResourceService encapsulates the use-cases of one resource kind and emits
// change events on every mutation.
type ResourceService[T types.Entity] struct {
	repo ResourceRepository[T]
	kind types.Kind
	bus  *events.Bus
}

func NewResourceService[T types.Entity](repo ResourceRepository[T], kind types.Kind, bus *events.Bus) *ResourceService[T] {
	return &ResourceService[T]{repo: repo, kind: kind, bus: bus}
}

// Kind returns the resource kind this service manages.
func (s *ResourceService[T]) Kind() types.Kind {
	return s.kind
}

func (s *ResourceService[T]) List(ctx context.Context, ownerID int64, pr types.PageRequest) (types.Page[T], error) {
	return s.repo.List(ctx, ownerID, pr)
}

func (s *ResourceService[T]) ListRelated(ctx context.Context, ownerID int64, rel types.Relation, parentID int64, pr types.PageRequest) (types.Page[T], error) {
	return s.repo.ListRelated(ctx, ownerID, rel, parentID, pr)
}

func (s *ResourceService[T]) Get(ctx context.Context, ownerID, id int64) (T, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Authorize reports whether the owner can access the resource, without
// returning it. Used before relation listings and edits.
func (s *ResourceService[T]) Authorize(ctx context.Context, ownerID, id int64) error {
	_, err := s.repo.Get(ctx, ownerID, id)
	return err
}

func (s *ResourceService[T]) Create(ctx context.Context, item T) (T, error) {
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		var zero T
		return zero, err
	}
	s.publish(ctx, "created", created)
	return created, nil
}

func (s *ResourceService[T]) Update(ctx context.Context, item T) (T, error) {
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		var zero T
		return zero, err
	}
	s.publish(ctx, "updated", updated)
	return updated, nil
}

func (s *ResourceService[T]) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	_ = s.bus.Publish(ctx, events.Event{
		Type:       s.eventType("deleted"),
		OwnerID:    ownerID,
		EntityType: s.kind,
		EntityID:   id,
	})
	return nil
}

// publish is best-effort: a broker failure never fails the mutation.
func (s *ResourceService[T]) publish(ctx context.Context, action string, item T) {
	_ = s.bus.Publish(ctx, events.Event{
		Type:       s.eventType(action),
		OwnerID:    item.OwnerID(),
		EntityType: s.kind,
		EntityID:   item.EntityID(),
	})
}

func (s *ResourceService[T]) eventType(action string) string {
	return strings.ToLower(string(s.kind)) + "." + action
}
