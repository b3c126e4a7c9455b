package roleassignment

import (
	"context"
	"fmt"
	"log"
	"time"

	"costreambackend/clients"
	"costreambackend/clients/discord"
	"costreambackend/core"
	"costreambackend/models"
)

const (
	maxAttempts    = 3
	initialBackoff = 2 * time.Second
)

// RoleAuditRepository defines the interface for role audit repository operations
type RoleAuditRepository interface {
	CreateRoleAuditEntry(ctx context.Context, entry *models.RoleAuditEntry) error
	HasSuccessfulAssignment(
		ctx context.Context,
		applicationID, tournamentID string,
		action models.RoleAction,
	) (bool, error)
	ListRoleAuditEntriesByOrganizationID(
		ctx context.Context,
		organizationID string,
		limit int,
	) ([]*models.RoleAuditEntry, error)
}

// ApplicationFlagsRepository defines the denormalized flag updates performed
// after a terminal success
type ApplicationFlagsRepository interface {
	MarkDiscordRoleAssigned(ctx context.Context, applicationID string) error
	MarkDiscordRoleRemoved(ctx context.Context, applicationID string) error
}

// RoleAssignmentService turns a RoleAssignmentIntent into a terminal outcome.
// Each invocation runs its own bounded retry sequence: up to maxAttempts
// attempts with exponential backoff (2s, 4s) after transient errors, aborting
// immediately on permanent ones. Exactly one audit entry is written per
// invocation. Backoff blocks only the calling goroutine; concurrent
// invocations proceed independently.
type RoleAssignmentService struct {
	guildClient      clients.DiscordGuildClient
	auditRepo        RoleAuditRepository
	applicationsRepo ApplicationFlagsRepository

	// sleep is swappable so tests can observe backoff without waiting
	sleep func(time.Duration)
}

func NewRoleAssignmentService(
	guildClient clients.DiscordGuildClient,
	auditRepo RoleAuditRepository,
	applicationsRepo ApplicationFlagsRepository,
) *RoleAssignmentService {
	return &RoleAssignmentService{
		guildClient:      guildClient,
		auditRepo:        auditRepo,
		applicationsRepo: applicationsRepo,
		sleep:            time.Sleep,
	}
}

// Assign executes the intent and returns the terminal outcome. Safe to invoke
// repeatedly for the same intent: an earlier recorded success for the same
// (application, tournament, action) short-circuits to a deduplicated no-op,
// and the Discord grant/revoke endpoints are idempotent regardless.
func (s *RoleAssignmentService) Assign(
	ctx context.Context,
	intent models.RoleAssignmentIntent,
) models.RoleAssignmentOutcome {
	log.Printf(
		"📋 Starting role %s for user %s in guild %s (application: %s)",
		intent.Action, intent.DiscordUserID, intent.GuildID, intent.ApplicationID,
	)

	if intent.GuildID == "" || intent.DiscordUserID == "" {
		errMsg := "missing required parameters: guild ID and discord user ID"
		log.Printf("❌ Role %s rejected: %s", intent.Action, errMsg)
		s.writeAuditEntry(ctx, intent, "", false, 0, errMsg)
		return models.RoleAssignmentOutcome{Success: false, Attempts: 0, Error: errMsg}
	}

	if intent.ApplicationID != "" && intent.TournamentID != "" {
		alreadyDone, err := s.auditRepo.HasSuccessfulAssignment(
			ctx,
			intent.ApplicationID,
			intent.TournamentID,
			intent.Action,
		)
		if err != nil {
			log.Printf("⚠️ Failed to check audit log for earlier success, proceeding: %v", err)
		} else if alreadyDone {
			log.Printf(
				"📋 Role %s already succeeded for application %s, skipping",
				intent.Action, intent.ApplicationID,
			)
			return models.RoleAssignmentOutcome{
				Success:      true,
				Attempts:     0,
				RoleID:       intent.RoleID,
				Deduplicated: true,
			}
		}
	}

	roleID := intent.RoleID
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		log.Printf("📋 Role %s attempt %d/%d", intent.Action, attempt, maxAttempts)

		resolvedRoleID, err := s.attemptOnce(intent, roleID)
		if err == nil {
			roleID = resolvedRoleID
			s.writeAuditEntry(ctx, intent, roleID, true, attempts, "")
			s.updateApplicationFlags(ctx, intent)
			log.Printf("✅ Role %s succeeded on attempt %d", intent.Action, attempt)
			return models.RoleAssignmentOutcome{Success: true, Attempts: attempts, RoleID: roleID}
		}
		if resolvedRoleID != "" {
			// Keep the resolved role across retries so find-or-create runs once
			roleID = resolvedRoleID
		}

		lastErr = err
		if !discord.IsTransient(err) {
			log.Printf("❌ Role %s failed permanently on attempt %d: %v", intent.Action, attempt, err)
			break
		}

		log.Printf("⚠️ Role %s attempt %d failed: %v", intent.Action, attempt, err)
		if attempt < maxAttempts {
			delay := initialBackoff << (attempt - 1)
			log.Printf("📋 Retrying role %s after %s", intent.Action, delay)
			s.sleep(delay)
		}
	}

	errMsg := lastErr.Error()
	s.writeAuditEntry(ctx, intent, roleID, false, attempts, errMsg)
	log.Printf("❌ Role %s failed after %d attempt(s): %s", intent.Action, attempts, errMsg)
	return models.RoleAssignmentOutcome{Success: false, Attempts: attempts, RoleID: roleID, Error: errMsg}
}

// attemptOnce performs a single grant/revoke attempt, resolving the role by
// name first when no role ID is known yet. Returns the resolved role ID even
// on failure so retries don't re-run find-or-create.
func (s *RoleAssignmentService) attemptOnce(
	intent models.RoleAssignmentIntent,
	roleID string,
) (string, error) {
	if roleID == "" {
		roleName := intent.RoleName
		if roleName == "" {
			roleName = models.DefaultApprovedRoleName
		}
		role, err := s.guildClient.FindOrCreateRole(intent.GuildID, roleName, models.DefaultApprovedRoleColor)
		if err != nil {
			return "", fmt.Errorf("failed to resolve role %q: %w", roleName, err)
		}
		roleID = role.ID
	}

	switch intent.Action {
	case models.RoleActionGrant:
		return roleID, s.guildClient.GrantRole(intent.GuildID, intent.DiscordUserID, roleID)
	case models.RoleActionRevoke:
		return roleID, s.guildClient.RevokeRole(intent.GuildID, intent.DiscordUserID, roleID)
	default:
		return roleID, fmt.Errorf("unknown role action: %s", intent.Action)
	}
}

// writeAuditEntry records the single terminal audit entry for this
// invocation. Audit failures are logged but never change the outcome.
func (s *RoleAssignmentService) writeAuditEntry(
	ctx context.Context,
	intent models.RoleAssignmentIntent,
	roleID string,
	success bool,
	attempts int,
	errMsg string,
) {
	entry := &models.RoleAuditEntry{
		ID:             core.NewID("ra"),
		OrganizationID: intent.OrganizationID,
		GuildID:        intent.GuildID,
		DiscordUserID:  intent.DiscordUserID,
		RoleID:         roleID,
		Action:         intent.Action,
		Success:        success,
		Attempts:       attempts,
		ApplicationID:  intent.ApplicationID,
		TournamentID:   intent.TournamentID,
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}

	if err := s.auditRepo.CreateRoleAuditEntry(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to write role audit entry: %v", err)
	}
}

// updateApplicationFlags maintains the denormalized role-assigned flag on the
// application after a terminal success
func (s *RoleAssignmentService) updateApplicationFlags(
	ctx context.Context,
	intent models.RoleAssignmentIntent,
) {
	if intent.ApplicationID == "" {
		return
	}

	var err error
	switch intent.Action {
	case models.RoleActionGrant:
		err = s.applicationsRepo.MarkDiscordRoleAssigned(ctx, intent.ApplicationID)
	case models.RoleActionRevoke:
		err = s.applicationsRepo.MarkDiscordRoleRemoved(ctx, intent.ApplicationID)
	}
	if err != nil {
		log.Printf("⚠️ Failed to update application discord flags: %v", err)
	}
}

// ListRoleHistory returns the most recent audit entries for an organization
func (s *RoleAssignmentService) ListRoleHistory(
	ctx context.Context,
	organizationID string,
	limit int,
) ([]*models.RoleAuditEntry, error) {
	log.Printf("📋 Starting to list role history for organization: %s", organizationID)
	if organizationID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	entries, err := s.auditRepo.ListRoleAuditEntriesByOrganizationID(ctx, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list role history: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d role audit entries", len(entries))
	return entries, nil
}
