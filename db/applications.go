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

type PostgresApplicationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for the applications table, aliased for the tournaments join
var applicationsColumns = []string{
	"a.id",
	"a.tournament_id",
	"a.streamer_id",
	"a.discord_user_id",
	"a.status",
	"a.discord_role_assigned",
	"a.discord_role_assigned_at",
	"a.discord_role_removed_at",
	"t.organization_id",
	"a.created_at",
	"a.updated_at",
}

func NewPostgresApplicationsRepository(db *sqlx.DB, schema string) *PostgresApplicationsRepository {
	return &PostgresApplicationsRepository{db: db, schema: schema}
}

func (r *PostgresApplicationsRepository) GetApplicationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Application], error) {
	if id == "" {
		return mo.None[*models.Application](), fmt.Errorf("application ID cannot be empty")
	}

	columnsStr := strings.Join(applicationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.applications a
		JOIN %s.tournaments t ON t.id = a.tournament_id
		WHERE a.id = $1`, columnsStr, r.schema, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	var application models.Application
	err := db.GetContext(ctx, &application, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Application](), nil
		}
		return mo.None[*models.Application](), fmt.Errorf("failed to get application by ID: %w", err)
	}

	return mo.Some(&application), nil
}

// GetApplicationByTournamentAndStreamer resolves the application the webhook
// and change-event triggers identify by (tournament, streamer) instead of by
// primary key
func (r *PostgresApplicationsRepository) GetApplicationByTournamentAndStreamer(
	ctx context.Context,
	tournamentID, streamerID string,
) (mo.Option[*models.Application], error) {
	if tournamentID == "" || streamerID == "" {
		return mo.None[*models.Application](), fmt.Errorf("tournament ID and streamer ID cannot be empty")
	}

	columnsStr := strings.Join(applicationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.applications a
		JOIN %s.tournaments t ON t.id = a.tournament_id
		WHERE a.tournament_id = $1 AND a.streamer_id = $2`, columnsStr, r.schema, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	var application models.Application
	err := db.GetContext(ctx, &application, query, tournamentID, streamerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Application](), nil
		}
		return mo.None[*models.Application](), fmt.Errorf(
			"failed to get application by tournament and streamer: %w",
			err,
		)
	}

	return mo.Some(&application), nil
}

func (r *PostgresApplicationsRepository) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status models.ApplicationStatus,
) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s.applications
		SET status = $2, updated_at = NOW()
		WHERE id = $1`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	result, err := db.ExecContext(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update application status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected > 0, nil
}

// MarkDiscordRoleAssigned sets the denormalized role-assigned flag after a
// successful grant
func (r *PostgresApplicationsRepository) MarkDiscordRoleAssigned(
	ctx context.Context,
	applicationID string,
) error {
	query := fmt.Sprintf(`
		UPDATE %s.applications
		SET discord_role_assigned = TRUE, discord_role_assigned_at = NOW(), updated_at = NOW()
		WHERE id = $1`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	if _, err := db.ExecContext(ctx, query, applicationID); err != nil {
		return fmt.Errorf("failed to mark discord role assigned: %w", err)
	}

	return nil
}

// MarkDiscordRoleRemoved clears the flag after a successful revoke
func (r *PostgresApplicationsRepository) MarkDiscordRoleRemoved(
	ctx context.Context,
	applicationID string,
) error {
	query := fmt.Sprintf(`
		UPDATE %s.applications
		SET discord_role_assigned = FALSE, discord_role_removed_at = NOW(), updated_at = NOW()
		WHERE id = $1`, r.schema)

	db := dbtx.GetTransactional(ctx, r.db)
	if _, err := db.ExecContext(ctx, query, applicationID); err != nil {
		return fmt.Errorf("failed to mark discord role removed: %w", err)
	}

	return nil
}
