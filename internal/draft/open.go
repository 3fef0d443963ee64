package draft

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/database"
)

// Driver names accepted in DRAFT_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open connects the configured draft store, applying migrations for the SQL
// drivers.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.DraftDriver {
	case DriverMemory:
		log.Warn().Msg("Drafts are kept in memory and will not survive a restart")
		return NewMemoryStore(), nil

	case DriverSQLite, "":
		db, err := database.OpenSQLite(ctx, cfg.DraftSQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateUp(database.DialectSQLite, cfg.DraftSQLitePath); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLiteStore(db)

	case DriverRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(rdb, cfg.DraftTTL), nil

	case DriverPostgres:
		if err := database.MigrateUp(database.DialectPostgres, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil

	default:
		return nil, fmt.Errorf("unknown draft driver %q", cfg.DraftDriver)
	}
}
