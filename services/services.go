package services

import (
	"context"

	"github.com/samber/mo"

	"costreambackend/models"
)

// UsersService defines the interface for user-related operations
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID, email string) (*models.User, error)
}

// DiscordIntegrationsService owns the per-organization OAuth credentials and
// guild/role configuration: handshake completion, proactive refresh, and
// disconnect with the compensating bot guild-leave.
type DiscordIntegrationsService interface {
	CompleteOAuthConnect(
		ctx context.Context,
		organizationID, discordAuthCode, guildID, redirectURL string,
	) (*models.GuildRoleConfig, error)
	GetIntegrationByOrganizationID(
		ctx context.Context,
		organizationID string,
	) (mo.Option[*models.DiscordIntegration], error)
	GetGuildRoleConfigByOrganizationID(
		ctx context.Context,
		organizationID string,
	) (mo.Option[*models.GuildRoleConfig], error)
	EnsureFreshToken(ctx context.Context, integration *models.DiscordIntegration) (string, error)
	GetIntegrationStatus(ctx context.Context, organizationID string) (*models.DiscordIntegrationStatus, error)
	Disconnect(ctx context.Context, organizationID string) error
}

// RoleAssignmentService is the retry/backoff orchestrator turning a role
// assignment intent into a terminal outcome, recording every outcome in the
// audit log.
type RoleAssignmentService interface {
	Assign(ctx context.Context, intent models.RoleAssignmentIntent) models.RoleAssignmentOutcome
	ListRoleHistory(ctx context.Context, organizationID string, limit int) ([]*models.RoleAuditEntry, error)
}

// ApplicationsService defines the application status operations the trigger
// adapters depend on
type ApplicationsService interface {
	GetApplicationByID(ctx context.Context, id string) (mo.Option[*models.Application], error)
	GetApplicationByTournamentAndStreamer(
		ctx context.Context,
		tournamentID, streamerID string,
	) (mo.Option[*models.Application], error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error)
}

// TransactionManager coordinates multi-statement database work
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
