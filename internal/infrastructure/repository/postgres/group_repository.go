package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	qb "github.com/riskibarqy/focus-tracker/internal/platform/querybuilder"
)

const upsertGroupSuffix = `ON CONFLICT (id) DO UPDATE SET
    sink_id = EXCLUDED.sink_id,
    updated_at = EXCLUDED.updated_at`

const upsertPlayersSuffix = `ON CONFLICT (group_id, display_key) DO UPDATE SET
    position = EXCLUDED.position,
    external_id = EXCLUDED.external_id,
    display_name = EXCLUDED.display_name,
    region = EXCLUDED.region,
    routing_key = EXCLUDED.routing_key,
    last_seen = EXCLUDED.last_seen,
    history = EXCLUDED.history,
    win_streak_notified = EXCLUDED.win_streak_notified,
    loss_streak_notified = EXCLUDED.loss_streak_notified,
    bad_streak_active = EXCLUDED.bad_streak_active,
    bad_streak_notified = EXCLUDED.bad_streak_notified,
    tracked_at = EXCLUDED.tracked_at`

type GroupRepository struct {
	db *sqlx.DB
}

var _ tracking.Repository = (*GroupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func listPlayersQuery(groupIDs []any) (string, []any, error) {
	return qb.Select("*").
		From(trackedPlayersTable).
		Where(qb.In("group_id", groupIDs)).
		OrderBy("group_id", "position").
		ToSQL()
}

func (r *GroupRepository) ListGroups(ctx context.Context) ([]tracking.Group, error) {
	query, args, err := qb.Select("*").From(trackedGroupsTable).OrderBy("created_at", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list groups query: %w", err)
	}
	var groupRows []groupTableModel
	if err := r.db.SelectContext(ctx, &groupRows, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(groupRows) == 0 {
		return nil, nil
	}

	groupIDs := make([]any, 0, len(groupRows))
	for _, row := range groupRows {
		groupIDs = append(groupIDs, row.ID)
	}
	query, args, err = listPlayersQuery(groupIDs)
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}
	var playerRows []playerTableModel
	if err := r.db.SelectContext(ctx, &playerRows, query, args...); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	byGroup := make(map[string][]playerTableModel, len(groupRows))
	for _, row := range playerRows {
		byGroup[row.GroupID] = append(byGroup[row.GroupID], row)
	}

	out := make([]tracking.Group, 0, len(groupRows))
	for _, row := range groupRows {
		group, err := groupFromRows(row, byGroup[row.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID string) (tracking.Group, bool, error) {
	query, args, err := qb.Select("*").From(trackedGroupsTable).Where(qb.Eq("id", groupID)).ToSQL()
	if err != nil {
		return tracking.Group{}, false, fmt.Errorf("build get group query: %w", err)
	}
	var groupRow groupTableModel
	if err := r.db.GetContext(ctx, &groupRow, query, args...); err != nil {
		if isNotFound(err) {
			return tracking.Group{}, false, nil
		}
		return tracking.Group{}, false, fmt.Errorf("get group %s: %w", groupID, err)
	}

	query, args, err = qb.Select("*").From(trackedPlayersTable).Where(qb.Eq("group_id", groupID)).OrderBy("position").ToSQL()
	if err != nil {
		return tracking.Group{}, false, fmt.Errorf("build list group players query: %w", err)
	}
	var playerRows []playerTableModel
	if err := r.db.SelectContext(ctx, &playerRows, query, args...); err != nil {
		return tracking.Group{}, false, fmt.Errorf("list players of group %s: %w", groupID, err)
	}

	group, err := groupFromRows(groupRow, playerRows)
	if err != nil {
		return tracking.Group{}, false, err
	}
	return group, true, nil
}

// Save writes the group and its players in one transaction. Players no longer in
// the group are deleted.
func (r *GroupRepository) Save(ctx context.Context, group tracking.Group) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("save group %s: %w", group.ID, err)
	}
	players, err := playerRowsFromGroup(group)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save group tx: %w", err)
	}
	defer rollback(tx)

	query, args, err := qb.InsertModels(trackedGroupsTable, []groupUpsertModel{{
		ID:        group.ID,
		SinkID:    group.SinkID,
		UpdatedAt: group.UpdatedAt,
	}}, upsertGroupSuffix)
	if err != nil {
		return fmt.Errorf("build upsert group query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert group %s: %w", group.ID, err)
	}

	keys := make([]any, 0, len(players))
	for _, row := range players {
		keys = append(keys, row.DisplayKey)
	}
	query, args, err = qb.DeleteFrom(trackedPlayersTable).
		Where(qb.Eq("group_id", group.ID), qb.NotIn("display_key", keys)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build prune players query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune players of group %s: %w", group.ID, err)
	}

	if len(players) > 0 {
		query, args, err = qb.InsertModels(trackedPlayersTable, players, upsertPlayersSuffix)
		if err != nil {
			return fmt.Errorf("build upsert players query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("upsert players of group %s: %w", group.ID, tracking.ErrDuplicateEntityKey)
			}
			return fmt.Errorf("upsert players of group %s: %w", group.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save group %s: %w", group.ID, err)
	}
	return nil
}

// Delete removes the group; its players go with it through the foreign key.
func (r *GroupRepository) Delete(ctx context.Context, groupID string) error {
	query, args, err := qb.DeleteFrom(trackedGroupsTable).Where(qb.Eq("id", groupID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete group query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}
	return nil
}

func groupFromRows(row groupTableModel, players []playerTableModel) (tracking.Group, error) {
	group := tracking.Group{
		ID:        row.ID,
		SinkID:    row.SinkID,
		UpdatedAt: row.UpdatedAt,
		Entities:  make([]tracking.Entity, 0, len(players)),
	}
	for _, player := range players {
		entity, err := entityFromRow(player)
		if err != nil {
			return tracking.Group{}, fmt.Errorf("decode player %s of group %s: %w", player.DisplayKey, row.ID, err)
		}
		group.Entities = append(group.Entities, entity)
	}
	return group, nil
}

func entityFromRow(row playerTableModel) (tracking.Entity, error) {
	var history []tracking.PerformanceRecord
	if len(row.History) > 0 {
		if err := sonic.UnmarshalString(row.History, &history); err != nil {
			return tracking.Entity{}, fmt.Errorf("decode history: %w", err)
		}
	}
	return tracking.Entity{
		ExternalID:  row.ExternalID,
		DisplayName: row.DisplayName,
		Region:      row.Region,
		RoutingKey:  row.RoutingKey,
		LastSeen:    append([]string(nil), row.LastSeen...),
		History:     history,
		Flags: tracking.StreakFlags{
			WinStreakNotified:            row.WinStreakNotified,
			LossStreakNotified:           row.LossStreakNotified,
			BadPerformanceStreakActive:   row.BadPerformanceStreakActive,
			BadPerformanceStreakNotified: row.BadPerformanceStreakNotified,
		},
		TrackedAt: row.TrackedAt,
	}, nil
}

func playerRowsFromGroup(group tracking.Group) ([]playerTableModel, error) {
	rows := make([]playerTableModel, 0, len(group.Entities))
	for i, entity := range group.Entities {
		history := entity.History
		if history == nil {
			history = []tracking.PerformanceRecord{}
		}
		encoded, err := sonic.MarshalString(history)
		if err != nil {
			return nil, fmt.Errorf("encode history of %s: %w", entity.DisplayName, err)
		}
		lastSeen := entity.LastSeen
		if lastSeen == nil {
			lastSeen = []string{}
		}
		rows = append(rows, playerTableModel{
			GroupID:                      group.ID,
			DisplayKey:                   entity.Key(),
			Position:                     i,
			ExternalID:                   entity.ExternalID,
			DisplayName:                  entity.DisplayName,
			Region:                       entity.Region,
			RoutingKey:                   entity.RoutingKey,
			LastSeen:                     pq.StringArray(lastSeen),
			History:                      encoded,
			WinStreakNotified:            entity.Flags.WinStreakNotified,
			LossStreakNotified:           entity.Flags.LossStreakNotified,
			BadPerformanceStreakActive:   entity.Flags.BadPerformanceStreakActive,
			BadPerformanceStreakNotified: entity.Flags.BadPerformanceStreakNotified,
			TrackedAt:                    entity.TrackedAt,
		})
	}
	return rows, nil
}
