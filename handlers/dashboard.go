package handlers

import (
	"context"
	"fmt"
	"log"

	"costreambackend/clients/discord"
	"costreambackend/config"
	"costreambackend/core"
	"costreambackend/models"
	"costreambackend/services"
	"costreambackend/statetoken"
	"costreambackend/usecases/rolesync"
)

// DashboardAPIHandler carries the business-level operations behind the
// dashboard HTTP endpoints. HTTP parsing and status-code mapping live in
// DashboardHTTPHandler.
type DashboardAPIHandler struct {
	integrationsService   services.DiscordIntegrationsService
	applicationsService   services.ApplicationsService
	roleAssignmentService services.RoleAssignmentService
	rolesyncUseCase       *rolesync.RoleSyncUseCase
	stateIssuer           *statetoken.Issuer
	discordConfig         config.DiscordConfig
}

func NewDashboardAPIHandler(
	integrationsService services.DiscordIntegrationsService,
	applicationsService services.ApplicationsService,
	roleAssignmentService services.RoleAssignmentService,
	rolesyncUseCase *rolesync.RoleSyncUseCase,
	stateIssuer *statetoken.Issuer,
	discordConfig config.DiscordConfig,
) *DashboardAPIHandler {
	return &DashboardAPIHandler{
		integrationsService:   integrationsService,
		applicationsService:   applicationsService,
		roleAssignmentService: roleAssignmentService,
		rolesyncUseCase:       rolesyncUseCase,
		stateIssuer:           stateIssuer,
		discordConfig:         discordConfig,
	}
}

// BuildConnectURL issues a fresh state token for the organization and returns
// the Discord authorize URL the dashboard should redirect the organizer to
func (h *DashboardAPIHandler) BuildConnectURL(organizationID string) (string, error) {
	state, err := h.stateIssuer.Issue(organizationID)
	if err != nil {
		return "", fmt.Errorf("failed to issue state token: %w", err)
	}

	return discord.AuthorizationURL(h.discordConfig.ClientID, h.discordConfig.RedirectURL, state), nil
}

// CompleteCallback verifies the OAuth state token and finishes the connect
// handshake for the organization the token was issued for
func (h *DashboardAPIHandler) CompleteCallback(
	ctx context.Context,
	code, state, guildID string,
) (*models.GuildRoleConfig, error) {
	organizationID, err := h.stateIssuer.Verify(state)
	if err != nil {
		return nil, err
	}

	config, err := h.integrationsService.CompleteOAuthConnect(
		ctx,
		organizationID,
		code,
		guildID,
		h.discordConfig.RedirectURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete OAuth connect: %w", err)
	}

	return config, nil
}

// Disconnect removes the organization's Discord integration, leaving the guild
func (h *DashboardAPIHandler) Disconnect(ctx context.Context, organizationID string) error {
	return h.integrationsService.Disconnect(ctx, organizationID)
}

// TestConfig reports the health of the organization's Discord configuration
func (h *DashboardAPIHandler) TestConfig(
	ctx context.Context,
	organizationID string,
) (*models.DiscordIntegrationStatus, error) {
	return h.integrationsService.GetIntegrationStatus(ctx, organizationID)
}

// ListRoleHistory returns the organization's most recent role assignment
// outcomes, newest first
func (h *DashboardAPIHandler) ListRoleHistory(
	ctx context.Context,
	organizationID string,
	limit int,
) ([]*models.RoleAuditEntry, error) {
	return h.roleAssignmentService.ListRoleHistory(ctx, organizationID, limit)
}

// DecideApplication transitions the application and best-effort syncs the
// Discord role. A Discord failure never rolls back the status change; it is
// reported in the returned DiscordStatus.
func (h *DashboardAPIHandler) DecideApplication(
	ctx context.Context,
	organizationID, applicationID string,
	status models.ApplicationStatus,
) (*models.Application, *models.DiscordStatus, error) {
	maybeApp, err := h.applicationsService.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if !maybeApp.IsPresent() || maybeApp.MustGet().OrganizationID != organizationID {
		return nil, nil, core.ErrNotFound
	}

	app, err := h.applicationsService.UpdateApplicationStatus(ctx, applicationID, status)
	if err != nil {
		return nil, nil, err
	}

	discordStatus := h.rolesyncUseCase.SyncApplication(ctx, app)
	log.Printf(
		"📋 Application %s decided as %s (discord attempted=%v success=%v)",
		app.ID, status, discordStatus.Attempted, discordStatus.Success,
	)
	return app, discordStatus, nil
}

// AssignRole backs the direct role-assignment helper endpoint
func (h *DashboardAPIHandler) AssignRole(
	ctx context.Context,
	intent models.RoleAssignmentIntent,
) models.RoleAssignmentOutcome {
	return h.rolesyncUseCase.DirectAssign(ctx, intent)
}
