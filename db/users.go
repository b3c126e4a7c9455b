package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	"costreambackend/core"
	dbtx "costreambackend/db/tx"
	"costreambackend/models"
)

type PostgresUsersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for users table
var usersColumns = []string{
	"id",
	"auth_provider",
	"auth_provider_id",
	"email",
	"organization_id",
	"created_at",
	"updated_at",
}

func NewPostgresUsersRepository(db *sqlx.DB, schema string) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, schema: schema}
}

func (r *PostgresUsersRepository) GetUserByAuthProvider(
	ctx context.Context,
	authProvider, authProviderID string,
) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(usersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE auth_provider = $1 AND auth_provider_id = $2`, columnsStr, r.schema)

	user := &models.User{}
	err := db.QueryRowxContext(ctx, query, authProvider, authProviderID).StructScan(user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by auth provider: %w", err)
	}

	return user, nil
}

// GetOrCreateUser returns the existing user or provisions a new one together
// with its organization
func (r *PostgresUsersRepository) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID, email string,
) (*models.User, error) {
	existing, err := r.GetUserByAuthProvider(ctx, authProvider, authProviderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	db := dbtx.GetTransactional(ctx, r.db)

	orgID := core.NewID("org")
	orgQuery := fmt.Sprintf(`
		INSERT INTO %s.organizations (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())`, r.schema)
	if _, err := db.ExecContext(ctx, orgQuery, orgID, email); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	columnsStr := strings.Join(usersColumns, ", ")
	userQuery := fmt.Sprintf(`
		INSERT INTO %s.users (id, auth_provider, auth_provider_id, email, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING %s`, r.schema, columnsStr)

	user := &models.User{}
	err = db.QueryRowxContext(ctx, userQuery, core.NewID("u"), authProvider, authProviderID, email, orgID).
		StructScan(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
