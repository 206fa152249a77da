package ports

import (
	"context"
)

// RelationResolver maps a root key to the dependent keys whose cache entries
// derive from it, so a write to the root can invalidate the whole family.
type RelationResolver[K comparable] interface {
	Resolve(ctx context.Context, root K) ([]K, error)
}

// RelationResolverFunc adapts a plain function to the RelationResolver
// interface.
type RelationResolverFunc[K comparable] func(ctx context.Context, root K) ([]K, error)

// Resolve calls the wrapped function.
func (f RelationResolverFunc[K]) Resolve(ctx context.Context, root K) ([]K, error) {
	return f(ctx, root)
}
