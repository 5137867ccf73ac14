package application

import (
	"context"
	"errors"

	"github.com/example/liveboard/internal/persistence"
)

// Repository is the keyed store every service persists through. The in-memory
// persistence.Collection satisfies it; a durable store can replace it without
// touching service code.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
	Len(ctx context.Context) (int, error)
	Insert(ctx context.Context, id string, value T, conflicts func(candidate, existing T) bool) error
	Update(ctx context.Context, id string, mutate func(current T) (T, error), conflicts func(candidate, existing T) bool) (T, error)
	Upsert(ctx context.Context, id string, mutate func(current T, exists bool) (T, error)) (T, bool, error)
	Delete(ctx context.Context, id string) (T, error)
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
