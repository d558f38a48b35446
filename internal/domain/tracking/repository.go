package tracking

import "context"

// Repository describes tracked group persistence needs from use cases.
type Repository interface {
	ListGroups(ctx context.Context) ([]Group, error)
	GetByID(ctx context.Context, groupID string) (Group, bool, error)
	Save(ctx context.Context, group Group) error
	Delete(ctx context.Context, groupID string) error
}
