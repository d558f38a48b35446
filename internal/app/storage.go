package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/focus-tracker/internal/config"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/focus-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/focus-tracker/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

const dbPingTimeout = 5 * time.Second

// openGroupRepository returns the configured tracked group store. The *sqlx.DB
// is nil for the memory driver.
func openGroupRepository(ctx context.Context, cfg config.Config, logger *logging.Logger) (tracking.Repository, *sqlx.DB, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		logger.Warn("using in-memory storage, tracked players are lost on restart")
		return memory.NewGroupRepository(nil), nil, nil
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres storage ready", "db", dbNameFromURL(dsn), "max_open_conns", cfg.DBMaxOpenConns, "cache_ttl", cfg.StorageCacheTTL.String())

	var repo tracking.Repository = postgres.NewGroupRepository(db)
	if cfg.StorageCacheTTL > 0 {
		repo = cache.NewGroupRepository(repo, cfg.StorageCacheTTL)
	}
	return repo, db, nil
}

func closeDB(db *sqlx.DB, logger *logging.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("close postgres", "error", err)
	}
}

const maxTracedQueryLength = 512

// formatDBQueryForTrace collapses whitespace so span names stay on one line.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}

// normalizeDBURL opts out of binary prepared results, which poolers in
// transaction mode reject.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromURL accepts both URL and key=value DSNs.
func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	}

	for _, token := range strings.Fields(trimmed) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}
