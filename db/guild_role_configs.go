package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "costreambackend/db/tx"
	"costreambackend/models"
)

type PostgresGuildRoleConfigsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for guild_role_configs table
var guildRoleConfigsColumns = []string{
	"id",
	"organization_id",
	"guild_id",
	"guild_name",
	"default_role_id",
	"role_name",
	"is_connected",
	"created_at",
	"updated_at",
}

func NewPostgresGuildRoleConfigsRepository(db *sqlx.DB, schema string) *PostgresGuildRoleConfigsRepository {
	return &PostgresGuildRoleConfigsRepository{db: db, schema: schema}
}

// UpsertGuildRoleConfig creates or replaces the single guild/role selection
// for an organization
func (r *PostgresGuildRoleConfigsRepository) UpsertGuildRoleConfig(
	ctx context.Context,
	config *models.GuildRoleConfig,
) error {
	returningStr := strings.Join(guildRoleConfigsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.guild_role_configs
			(id, organization_id, guild_id, guild_name, default_role_id, role_name, is_connected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			guild_name = EXCLUDED.guild_name,
			default_role_id = EXCLUDED.default_role_id,
			role_name = EXCLUDED.role_name,
			is_connected = EXCLUDED.is_connected,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	db := dbtx.GetTransactional(ctx, r.db)
	err := db.QueryRowxContext(ctx, query,
		config.ID,
		config.OrganizationID,
		config.GuildID,
		config.GuildName,
		config.DefaultRoleID,
		config.RoleName,
		config.IsConnected,
	).StructScan(config)
	if err != nil {
		return fmt.Errorf("failed to upsert guild role config: %w", err)
	}

	return nil
}

func (r *PostgresGuildRoleConfigsRepository) GetGuildRoleConfigByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.GuildRoleConfig], error) {
	if organizationID == "" {
		return mo.None[*models.GuildRoleConfig](), fmt.Errorf("organization ID cannot be empty")
	}

	columnsStr := strings.Join(guildRoleConfigsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.guild_role_configs
		WHERE organization_id = $1`, columnsStr, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	var config models.GuildRoleConfig
	err := db.GetContext(ctx, &config, query, organizationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.GuildRoleConfig](), nil
		}
		return mo.None[*models.GuildRoleConfig](), fmt.Errorf(
			"failed to get guild role config by organization ID: %w",
			err,
		)
	}

	return mo.Some(&config), nil
}

func (r *PostgresGuildRoleConfigsRepository) DeleteGuildRoleConfigByOrganizationID(
	ctx context.Context,
	organizationID string,
) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s.guild_role_configs WHERE organization_id = $1`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	result, err := db.ExecContext(ctx, query, organizationID)
	if err != nil {
		return false, fmt.Errorf("failed to delete guild role config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected > 0, nil
}
