package tracking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrGroupFull          = errors.New("tracked player limit reached")
	ErrInvalidEntity      = errors.New("invalid tracked player")
	ErrInvalidGroup       = errors.New("invalid tracked group")
	ErrDuplicateEntityKey = errors.New("duplicate tracked player")
	ErrInvalidSink        = errors.New("invalid notification sink")
)

// ValidateSinkID accepts a non-zero signed chat id such as "-1001234567890".
func ValidateSinkID(sinkID string) error {
	value := strings.TrimSpace(sinkID)
	if value == "" {
		return fmt.Errorf("%w: sink id is required", ErrInvalidSink)
	}
	chatID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || chatID == 0 {
		return fmt.Errorf("%w: %q is not a chat id", ErrInvalidSink, sinkID)
	}
	return nil
}

// Validate checks the fields every stored entity must carry.
func (e Entity) Validate() error {
	if strings.TrimSpace(e.ExternalID) == "" {
		return fmt.Errorf("%w: external id is required", ErrInvalidEntity)
	}
	if e.Key() == "" {
		return fmt.Errorf("%w: display name is required", ErrInvalidEntity)
	}
	if strings.TrimSpace(e.RoutingKey) == "" {
		return fmt.Errorf("%w: routing key is required for %s", ErrInvalidEntity, e.DisplayName)
	}
	return nil
}

// Validate checks group-level rules before persistence.
func (g Group) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalidGroup)
	}
	if len(g.Entities) > MaxEntitiesPerGroup {
		return fmt.Errorf("%w: %d players exceeds %d", ErrGroupFull, len(g.Entities), MaxEntitiesPerGroup)
	}

	seen := make(map[string]struct{}, len(g.Entities))
	for _, entity := range g.Entities {
		if err := entity.Validate(); err != nil {
			return err
		}
		if _, exists := seen[entity.Key()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateEntityKey, entity.DisplayName)
		}
		seen[entity.Key()] = struct{}{}
	}
	return nil
}
