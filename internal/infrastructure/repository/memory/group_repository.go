package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
)

// GroupRepository keeps tracked groups in process. Groups are copied in and
// out so callers never share slices with the store.
type GroupRepository struct {
	mu     sync.RWMutex
	order  []string
	groups map[string]tracking.Group
}

var _ tracking.Repository = (*GroupRepository)(nil)

func NewGroupRepository(seed []tracking.Group) *GroupRepository {
	repo := &GroupRepository{groups: make(map[string]tracking.Group, len(seed))}
	for _, group := range seed {
		if _, exists := repo.groups[group.ID]; !exists {
			repo.order = append(repo.order, group.ID)
		}
		repo.groups[group.ID] = group.Clone()
	}
	return repo
}

func (r *GroupRepository) ListGroups(_ context.Context) ([]tracking.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tracking.Group, 0, len(r.order))
	for _, groupID := range r.order {
		out = append(out, r.groups[groupID].Clone())
	}
	return out, nil
}

func (r *GroupRepository) GetByID(_ context.Context, groupID string) (tracking.Group, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.groups[groupID]
	if !ok {
		return tracking.Group{}, false, nil
	}
	return group.Clone(), true, nil
}

func (r *GroupRepository) Save(_ context.Context, group tracking.Group) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("save group %s: %w", group.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[group.ID]; !exists {
		r.order = append(r.order, group.ID)
	}
	r.groups[group.ID] = group.Clone()
	return nil
}

func (r *GroupRepository) Delete(_ context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[groupID]; !exists {
		return nil
	}
	delete(r.groups, groupID)
	for i, id := range r.order {
		if id == groupID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
