package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	basecache "github.com/riskibarqy/focus-tracker/internal/platform/cache"
)

const (
	listKey     = "group:list"
	groupPrefix = "group:id:"
)

// GroupRepository is a read-through cache in front of another tracking.Repository.
// Writes go to next and drop the cached entries they affect. It is only
// coherent when this process is the sole writer.
type GroupRepository struct {
	next   tracking.Repository
	lists  *basecache.Store[[]tracking.Group]
	groups *basecache.Store[cachedGroup]
}

type cachedGroup struct {
	value  tracking.Group
	exists bool
}

var _ tracking.Repository = (*GroupRepository)(nil)

func NewGroupRepository(next tracking.Repository, ttl time.Duration) *GroupRepository {
	return &GroupRepository{
		next:   next,
		lists:  basecache.NewStore[[]tracking.Group](ttl),
		groups: basecache.NewStore[cachedGroup](ttl),
	}
}

func (r *GroupRepository) ListGroups(ctx context.Context) ([]tracking.Group, error) {
	items, err := r.lists.GetOrLoad(ctx, listKey, r.next.ListGroups)
	if err != nil {
		return nil, err
	}

	out := make([]tracking.Group, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID string) (tracking.Group, bool, error) {
	cached, err := r.groups.GetOrLoad(ctx, groupPrefix+groupID, func(ctx context.Context) (cachedGroup, error) {
		group, exists, err := r.next.GetByID(ctx, groupID)
		if err != nil {
			return cachedGroup{}, err
		}
		return cachedGroup{value: group, exists: exists}, nil
	})
	if err != nil {
		return tracking.Group{}, false, err
	}
	return cached.value.Clone(), cached.exists, nil
}

func (r *GroupRepository) Save(ctx context.Context, group tracking.Group) error {
	defer r.invalidate(ctx, group.ID)
	return r.next.Save(ctx, group)
}

func (r *GroupRepository) Delete(ctx context.Context, groupID string) error {
	defer r.invalidate(ctx, groupID)
	return r.next.Delete(ctx, groupID)
}

func (r *GroupRepository) invalidate(ctx context.Context, groupID string) {
	r.groups.Delete(ctx, groupPrefix+groupID)
	r.lists.Delete(ctx, listKey)
}
