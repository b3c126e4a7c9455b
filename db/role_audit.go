package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "costreambackend/db/tx"
	"costreambackend/models"
)

type PostgresRoleAuditRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for role_audit_entries table
var roleAuditColumns = []string{
	"id",
	"organization_id",
	"guild_id",
	"discord_user_id",
	"role_id",
	"action",
	"success",
	"attempts",
	"error_message",
	"application_id",
	"tournament_id",
	"created_at",
}

func NewPostgresRoleAuditRepository(db *sqlx.DB, schema string) *PostgresRoleAuditRepository {
	return &PostgresRoleAuditRepository{db: db, schema: schema}
}

// CreateRoleAuditEntry appends a terminal outcome. Entries are immutable;
// there is no update or delete.
func (r *PostgresRoleAuditRepository) CreateRoleAuditEntry(
	ctx context.Context,
	entry *models.RoleAuditEntry,
) error {
	returningStr := strings.Join(roleAuditColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.role_audit_entries
			(id, organization_id, guild_id, discord_user_id, role_id, action,
			 success, attempts, error_message, application_id, tournament_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING %s`, r.schema, returningStr)

	db := dbtx.GetTransactional(ctx, r.db)
	err := db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.OrganizationID,
		entry.GuildID,
		entry.DiscordUserID,
		entry.RoleID,
		entry.Action,
		entry.Success,
		entry.Attempts,
		entry.ErrorMessage,
		entry.ApplicationID,
		entry.TournamentID,
	).StructScan(entry)
	if err != nil {
		return fmt.Errorf("failed to create role audit entry: %w", err)
	}

	return nil
}

// HasSuccessfulAssignment probes for an existing success for the correlation
// key and action. The audit log is the source of truth for "did this
// assignment already succeed".
func (r *PostgresRoleAuditRepository) HasSuccessfulAssignment(
	ctx context.Context,
	applicationID, tournamentID string,
	action models.RoleAction,
) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1
			FROM %s.role_audit_entries
			WHERE application_id = $1 AND tournament_id = $2 AND action = $3 AND success = TRUE
		)`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	var exists bool
	err := db.GetContext(ctx, &exists, query, applicationID, tournamentID, action)
	if err != nil {
		return false, fmt.Errorf("failed to check for successful assignment: %w", err)
	}

	return exists, nil
}

func (r *PostgresRoleAuditRepository) ListRoleAuditEntriesByOrganizationID(
	ctx context.Context,
	organizationID string,
	limit int,
) ([]*models.RoleAuditEntry, error) {
	if organizationID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}

	columnsStr := strings.Join(roleAuditColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.role_audit_entries
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, columnsStr, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	var entries []*models.RoleAuditEntry
	err := db.SelectContext(ctx, &entries, query, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list role audit entries: %w", err)
	}

	return entries, nil
}
