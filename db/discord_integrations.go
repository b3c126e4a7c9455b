package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "costreambackend/db/tx"
	"costreambackend/models"
)

type PostgresDiscordIntegrationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for discord_integrations table
var discordIntegrationsColumns = []string{
	"id",
	"organization_id",
	"discord_user_id",
	"access_token",
	"refresh_token",
	"expires_at",
	"guild_ids",
	"selected_guild_id",
	"selected_role_id",
	"created_at",
	"updated_at",
}

func NewPostgresDiscordIntegrationsRepository(db *sqlx.DB, schema string) *PostgresDiscordIntegrationsRepository {
	return &PostgresDiscordIntegrationsRepository{db: db, schema: schema}
}

// UpsertDiscordIntegration creates or replaces the single integration row for
// an organization (OAuth handshake completion)
func (r *PostgresDiscordIntegrationsRepository) UpsertDiscordIntegration(
	ctx context.Context,
	integration *models.DiscordIntegration,
) error {
	returningStr := strings.Join(discordIntegrationsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.discord_integrations
			(id, organization_id, discord_user_id, access_token, refresh_token,
			 expires_at, guild_ids, selected_guild_id, selected_role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			discord_user_id = EXCLUDED.discord_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			guild_ids = EXCLUDED.guild_ids,
			selected_guild_id = EXCLUDED.selected_guild_id,
			selected_role_id = EXCLUDED.selected_role_id,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	db := dbtx.GetTransactional(ctx, r.db)
	err := db.QueryRowxContext(ctx, query,
		integration.ID,
		integration.OrganizationID,
		integration.DiscordUserID,
		integration.AccessToken,
		integration.RefreshToken,
		integration.ExpiresAt,
		integration.GuildIDs,
		integration.SelectedGuildID,
		integration.SelectedRoleID,
	).StructScan(integration)
	if err != nil {
		return fmt.Errorf("failed to upsert discord integration: %w", err)
	}

	return nil
}

func (r *PostgresDiscordIntegrationsRepository) GetDiscordIntegrationByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.DiscordIntegration], error) {
	if organizationID == "" {
		return mo.None[*models.DiscordIntegration](), fmt.Errorf("organization ID cannot be empty")
	}

	columnsStr := strings.Join(discordIntegrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.discord_integrations
		WHERE organization_id = $1`, columnsStr, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	var integration models.DiscordIntegration
	err := db.GetContext(ctx, &integration, query, organizationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.DiscordIntegration](), nil
		}
		return mo.None[*models.DiscordIntegration](), fmt.Errorf(
			"failed to get discord integration by organization ID: %w",
			err,
		)
	}

	return mo.Some(&integration), nil
}

// UpdateDiscordIntegrationTokens atomically overwrites the token triple after
// a successful refresh exchange
func (r *PostgresDiscordIntegrationsRepository) UpdateDiscordIntegrationTokens(
	ctx context.Context,
	organizationID, accessToken, refreshToken string,
	expiresAt time.Time,
) error {
	query := fmt.Sprintf(`
		UPDATE %s.discord_integrations
		SET access_token = $2, refresh_token = $3, expires_at = $4, updated_at = NOW()
		WHERE organization_id = $1`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	result, err := db.ExecContext(ctx, query, organizationID, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update discord integration tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("discord integration not found for organization: %s", organizationID)
	}

	return nil
}

func (r *PostgresDiscordIntegrationsRepository) DeleteDiscordIntegrationByOrganizationID(
	ctx context.Context,
	organizationID string,
) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s.discord_integrations WHERE organization_id = $1`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	result, err := db.ExecContext(ctx, query, organizationID)
	if err != nil {
		return false, fmt.Errorf("failed to delete discord integration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected > 0, nil
}
