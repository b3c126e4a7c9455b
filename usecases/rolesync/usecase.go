// Package rolesync is the shared logic behind the three role assignment
// triggers (webhook, change-event listener, direct approve handler). Each
// trigger resolves an application-status transition into a role assignment
// intent here; none of them carries retry or classification logic of its own.
package rolesync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"costreambackend/core"
	"costreambackend/models"
	"costreambackend/services"
)

const (
	skipReasonNotConfigured   = "Discord integration not configured"
	skipReasonNoApplication   = "Application not found"
	skipReasonMissingIdentity = "Streamer has not provided Discord User ID"
)

type RoleSyncUseCase struct {
	integrationsService   services.DiscordIntegrationsService
	applicationsService   services.ApplicationsService
	roleAssignmentService services.RoleAssignmentService
}

func NewRoleSyncUseCase(
	integrationsService services.DiscordIntegrationsService,
	applicationsService services.ApplicationsService,
	roleAssignmentService services.RoleAssignmentService,
) *RoleSyncUseCase {
	return &RoleSyncUseCase{
		integrationsService:   integrationsService,
		applicationsService:   applicationsService,
		roleAssignmentService: roleAssignmentService,
	}
}

// actionForStatus maps an application status transition to the Discord-side
// action it requires
func actionForStatus(status models.ApplicationStatus) (models.RoleAction, error) {
	switch status {
	case models.ApplicationStatusApproved:
		return models.RoleActionGrant, nil
	case models.ApplicationStatusRejected, models.ApplicationStatusRevoked:
		return models.RoleActionRevoke, nil
	default:
		return "", fmt.Errorf("no role action for application status: %s", status)
	}
}

// ProcessApplicationDecision is the entry point for the webhook and
// change-event triggers, which identify the application by (tournament,
// streamer) rather than by primary key.
func (u *RoleSyncUseCase) ProcessApplicationDecision(
	ctx context.Context,
	organizationID, tournamentID, streamerID string,
	status models.ApplicationStatus,
) (*models.DiscordStatus, error) {
	log.Printf(
		"📋 Starting to process application decision %s for tournament: %s, streamer: %s",
		status, tournamentID, streamerID,
	)

	if _, err := actionForStatus(status); err != nil {
		return nil, err
	}

	maybeApp, err := u.applicationsService.GetApplicationByTournamentAndStreamer(ctx, tournamentID, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve application: %w", err)
	}
	if !maybeApp.IsPresent() {
		log.Printf("📋 Skipping role sync: %s", skipReasonNoApplication)
		return &models.DiscordStatus{Skipped: true, SkipReason: skipReasonNoApplication}, nil
	}

	app := maybeApp.MustGet()
	if organizationID != "" && app.OrganizationID != organizationID {
		return nil, fmt.Errorf("application does not belong to organization %s", organizationID)
	}
	app.Status = status

	return u.SyncApplication(ctx, app), nil
}

// SyncApplication reconciles Discord role membership with the application's
// current status. It never returns an error: every Discord-side failure is
// downgraded into the returned DiscordStatus so the primary business action
// is never blocked.
func (u *RoleSyncUseCase) SyncApplication(
	ctx context.Context,
	app *models.Application,
) *models.DiscordStatus {
	action, err := actionForStatus(app.Status)
	if err != nil {
		return &models.DiscordStatus{Skipped: true, SkipReason: err.Error()}
	}

	maybeConfig, err := u.integrationsService.GetGuildRoleConfigByOrganizationID(ctx, app.OrganizationID)
	if err != nil {
		log.Printf("❌ Failed to load guild role config: %v", err)
		return &models.DiscordStatus{Attempted: false, Error: err.Error()}
	}
	if !maybeConfig.IsPresent() || !maybeConfig.MustGet().IsConnected {
		log.Printf("📋 Skipping role sync: %s", skipReasonNotConfigured)
		return &models.DiscordStatus{Skipped: true, SkipReason: skipReasonNotConfigured}
	}
	config := maybeConfig.MustGet()

	if app.DiscordUserID == nil || *app.DiscordUserID == "" {
		log.Printf("📋 Skipping role sync: %s", skipReasonMissingIdentity)
		return &models.DiscordStatus{Skipped: true, SkipReason: skipReasonMissingIdentity}
	}

	u.ensureFreshCredentials(ctx, app.OrganizationID)

	intent := models.RoleAssignmentIntent{
		GuildID:        config.GuildID,
		DiscordUserID:  *app.DiscordUserID,
		RoleID:         config.DefaultRoleID,
		RoleName:       config.RoleName,
		Action:         action,
		ApplicationID:  app.ID,
		TournamentID:   app.TournamentID,
		OrganizationID: app.OrganizationID,
	}

	outcome := u.roleAssignmentService.Assign(ctx, intent)

	status := &models.DiscordStatus{
		Attempted: true,
		Success:   outcome.Success,
		Error:     outcome.Error,
	}
	log.Printf(
		"📋 Completed role sync for application %s: success=%v attempts=%d",
		app.ID, outcome.Success, outcome.Attempts,
	)
	return status
}

// DirectAssign backs the role-assignment helper endpoint, which names the
// guild and user explicitly instead of resolving them from configuration
func (u *RoleSyncUseCase) DirectAssign(
	ctx context.Context,
	intent models.RoleAssignmentIntent,
) models.RoleAssignmentOutcome {
	log.Printf(
		"📋 Starting direct role %s for user %s in guild %s",
		intent.Action, intent.DiscordUserID, intent.GuildID,
	)

	if intent.OrganizationID != "" {
		u.ensureFreshCredentials(ctx, intent.OrganizationID)
	}

	return u.roleAssignmentService.Assign(ctx, intent)
}

// ensureFreshCredentials proactively refreshes the organizer's OAuth token. A
// refresh failure is a warning, never a blocker: a stale token simply fails
// downstream with an auth error the orchestrator treats as permanent.
func (u *RoleSyncUseCase) ensureFreshCredentials(ctx context.Context, organizationID string) {
	maybeIntegration, err := u.integrationsService.GetIntegrationByOrganizationID(ctx, organizationID)
	if err != nil {
		log.Printf("⚠️ Failed to load discord integration for token refresh: %v", err)
		return
	}
	if !maybeIntegration.IsPresent() {
		return
	}

	if _, err := u.integrationsService.EnsureFreshToken(ctx, maybeIntegration.MustGet()); err != nil {
		if errors.Is(err, core.ErrTokenRefreshFailed) {
			log.Printf("⚠️ Proceeding with stale Discord token: %v", err)
			return
		}
		log.Printf("⚠️ Unexpected error refreshing Discord token: %v", err)
	}
}
