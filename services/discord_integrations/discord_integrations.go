package discordintegrations

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/samber/mo"

	"costreambackend/clients"
	"costreambackend/core"
	"costreambackend/models"
	"costreambackend/services"
)

// refreshWindow is how close to expiry a token must be before a proactive
// refresh is attempted
const refreshWindow = 5 * time.Minute

// DiscordIntegrationsRepository defines the interface for Discord integration repository operations
type DiscordIntegrationsRepository interface {
	UpsertDiscordIntegration(ctx context.Context, integration *models.DiscordIntegration) error
	GetDiscordIntegrationByOrganizationID(
		ctx context.Context,
		organizationID string,
	) (mo.Option[*models.DiscordIntegration], error)
	UpdateDiscordIntegrationTokens(
		ctx context.Context,
		organizationID, accessToken, refreshToken string,
		expiresAt time.Time,
	) error
	DeleteDiscordIntegrationByOrganizationID(ctx context.Context, organizationID string) (bool, error)
}

// GuildRoleConfigsRepository defines the interface for guild role config repository operations
type GuildRoleConfigsRepository interface {
	UpsertGuildRoleConfig(ctx context.Context, config *models.GuildRoleConfig) error
	GetGuildRoleConfigByOrganizationID(
		ctx context.Context,
		organizationID string,
	) (mo.Option[*models.GuildRoleConfig], error)
	DeleteGuildRoleConfigByOrganizationID(ctx context.Context, organizationID string) (bool, error)
}

type DiscordIntegrationsService struct {
	integrationsRepo    DiscordIntegrationsRepository
	configsRepo         GuildRoleConfigsRepository
	oauthClient         clients.DiscordOAuthClient
	guildClient         clients.DiscordGuildClient
	txManager           services.TransactionManager
	discordClientID     string
	discordClientSecret string
	now                 func() time.Time
}

func NewDiscordIntegrationsService(
	integrationsRepo DiscordIntegrationsRepository,
	configsRepo GuildRoleConfigsRepository,
	oauthClient clients.DiscordOAuthClient,
	guildClient clients.DiscordGuildClient,
	txManager services.TransactionManager,
	discordClientID, discordClientSecret string,
) *DiscordIntegrationsService {
	return &DiscordIntegrationsService{
		integrationsRepo:    integrationsRepo,
		configsRepo:         configsRepo,
		oauthClient:         oauthClient,
		guildClient:         guildClient,
		txManager:           txManager,
		discordClientID:     discordClientID,
		discordClientSecret: discordClientSecret,
		now:                 time.Now,
	}
}

// CompleteOAuthConnect finishes the bot-install handshake: exchanges the
// authorization code, records the organizer's guilds and tokens, ensures the
// approved co-streamer role exists in the selected guild, and upserts both the
// integration and the guild role config.
func (s *DiscordIntegrationsService) CompleteOAuthConnect(
	ctx context.Context,
	organizationID, discordAuthCode, guildID, redirectURL string,
) (*models.GuildRoleConfig, error) {
	log.Printf("📋 Starting to complete Discord OAuth connect for organization: %s", organizationID)
	if !core.IsValidULID(organizationID) {
		return nil, fmt.Errorf("organization ID must be a valid ULID")
	}
	if discordAuthCode == "" {
		return nil, fmt.Errorf("discord auth code cannot be empty")
	}
	if guildID == "" {
		return nil, fmt.Errorf("discord guild ID cannot be empty")
	}

	oauthResponse, err := s.oauthClient.ExchangeCodeForToken(
		&http.Client{},
		s.discordClientID,
		s.discordClientSecret,
		discordAuthCode,
		redirectURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange OAuth code with Discord: %w", err)
	}
	if oauthResponse.AccessToken == "" {
		return nil, fmt.Errorf("access token not found in Discord OAuth response")
	}

	guilds, err := s.oauthClient.GetUserGuilds(&http.Client{}, oauthResponse.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizer guilds: %w", err)
	}

	guildInfo, err := s.guildClient.GetGuildByID(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Discord guild information: %w", err)
	}
	if guildInfo.Name == "" {
		return nil, fmt.Errorf("guild name not found in Discord API response")
	}

	role, err := s.guildClient.FindOrCreateRole(
		guildID,
		models.DefaultApprovedRoleName,
		models.DefaultApprovedRoleColor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create approved role: %w", err)
	}

	guildIDs := make([]string, 0, len(guilds))
	for _, g := range guilds {
		guildIDs = append(guildIDs, g.ID)
	}

	integration := &models.DiscordIntegration{
		ID:              core.NewID("di"),
		OrganizationID:  organizationID,
		AccessToken:     oauthResponse.AccessToken,
		RefreshToken:    oauthResponse.RefreshToken,
		ExpiresAt:       s.now().Add(time.Duration(oauthResponse.ExpiresIn) * time.Second),
		GuildIDs:        guildIDs,
		SelectedGuildID: guildID,
		SelectedRoleID:  role.ID,
	}

	config := &models.GuildRoleConfig{
		ID:             core.NewID("dc"),
		OrganizationID: organizationID,
		GuildID:        guildID,
		GuildName:      guildInfo.Name,
		DefaultRoleID:  role.ID,
		RoleName:       role.Name,
		IsConnected:    true,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.integrationsRepo.UpsertDiscordIntegration(txCtx, integration); err != nil {
			return fmt.Errorf("failed to upsert discord integration: %w", err)
		}
		if err := s.configsRepo.UpsertGuildRoleConfig(txCtx, config); err != nil {
			return fmt.Errorf("failed to upsert guild role config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf(
		"📋 Completed successfully - connected Discord guild %q with role %q for organization: %s",
		guildInfo.Name,
		role.Name,
		organizationID,
	)
	return config, nil
}

func (s *DiscordIntegrationsService) GetIntegrationByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.DiscordIntegration], error) {
	log.Printf("📋 Starting to get discord integration for organization: %s", organizationID)
	if organizationID == "" {
		return mo.None[*models.DiscordIntegration](), fmt.Errorf("organization ID cannot be empty")
	}

	maybeIntegration, err := s.integrationsRepo.GetDiscordIntegrationByOrganizationID(ctx, organizationID)
	if err != nil {
		return mo.None[*models.DiscordIntegration](), fmt.Errorf(
			"failed to get discord integration: %w",
			err,
		)
	}

	if !maybeIntegration.IsPresent() {
		log.Printf("📋 Completed successfully - discord integration not found")
		return mo.None[*models.DiscordIntegration](), nil
	}

	log.Printf("📋 Completed successfully - found discord integration")
	return maybeIntegration, nil
}

func (s *DiscordIntegrationsService) GetGuildRoleConfigByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.GuildRoleConfig], error) {
	log.Printf("📋 Starting to get guild role config for organization: %s", organizationID)
	if organizationID == "" {
		return mo.None[*models.GuildRoleConfig](), fmt.Errorf("organization ID cannot be empty")
	}

	maybeConfig, err := s.configsRepo.GetGuildRoleConfigByOrganizationID(ctx, organizationID)
	if err != nil {
		return mo.None[*models.GuildRoleConfig](), fmt.Errorf("failed to get guild role config: %w", err)
	}

	log.Printf("📋 Completed successfully - guild role config present: %v", maybeConfig.IsPresent())
	return maybeConfig, nil
}

// EnsureFreshToken returns a usable access token for the integration,
// refreshing proactively when expiry is less than refreshWindow away. A failed
// refresh is downgraded to a core.ErrTokenRefreshFailed warning and the
// existing (possibly stale) token is returned: a stale token fails downstream
// with an auth error the orchestrator classifies as non-retryable.
func (s *DiscordIntegrationsService) EnsureFreshToken(
	ctx context.Context,
	integration *models.DiscordIntegration,
) (string, error) {
	if integration == nil {
		return "", fmt.Errorf("integration cannot be nil")
	}

	if integration.ExpiresAt.Sub(s.now()) >= refreshWindow {
		return integration.AccessToken, nil
	}

	log.Printf("📋 Starting to refresh Discord token for organization: %s", integration.OrganizationID)
	oauthResponse, err := s.oauthClient.RefreshAccessToken(
		&http.Client{},
		s.discordClientID,
		s.discordClientSecret,
		integration.RefreshToken,
	)
	if err != nil {
		log.Printf("⚠️ Discord token refresh failed, proceeding with existing token: %v", err)
		return integration.AccessToken, fmt.Errorf("%w: %v", core.ErrTokenRefreshFailed, err)
	}

	refreshToken := oauthResponse.RefreshToken
	if refreshToken == "" {
		// Discord may not rotate the refresh token; keep the old one
		refreshToken = integration.RefreshToken
	}
	expiresAt := s.now().Add(time.Duration(oauthResponse.ExpiresIn) * time.Second)

	err = s.integrationsRepo.UpdateDiscordIntegrationTokens(
		ctx,
		integration.OrganizationID,
		oauthResponse.AccessToken,
		refreshToken,
		expiresAt,
	)
	if err != nil {
		log.Printf("⚠️ Failed to persist refreshed Discord tokens: %v", err)
		return oauthResponse.AccessToken, fmt.Errorf("%w: %v", core.ErrTokenRefreshFailed, err)
	}

	integration.AccessToken = oauthResponse.AccessToken
	integration.RefreshToken = refreshToken
	integration.ExpiresAt = expiresAt

	log.Printf("📋 Completed successfully - refreshed Discord token for organization: %s", integration.OrganizationID)
	return oauthResponse.AccessToken, nil
}

// GetIntegrationStatus reports integration health for the test-config endpoint
func (s *DiscordIntegrationsService) GetIntegrationStatus(
	ctx context.Context,
	organizationID string,
) (*models.DiscordIntegrationStatus, error) {
	log.Printf("📋 Starting to get integration status for organization: %s", organizationID)

	maybeConfig, err := s.configsRepo.GetGuildRoleConfigByOrganizationID(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild role config: %w", err)
	}

	if !maybeConfig.IsPresent() {
		log.Printf("📋 Completed successfully - integration not configured")
		return &models.DiscordIntegrationStatus{Configured: false, Connected: false}, nil
	}

	config := maybeConfig.MustGet()
	status := &models.DiscordIntegrationStatus{
		Configured: true,
		Connected:  config.IsConnected,
		GuildID:    config.GuildID,
		GuildName:  config.GuildName,
		RoleID:     config.DefaultRoleID,
		RoleName:   config.RoleName,
	}

	log.Printf("📋 Completed successfully - integration status connected: %v", status.Connected)
	return status, nil
}

// Disconnect removes the integration and guild role config rows and makes the
// bot leave the guild. The guild-leave is a compensating action: a bot that is
// already absent (404) counts as success.
func (s *DiscordIntegrationsService) Disconnect(ctx context.Context, organizationID string) error {
	log.Printf("📋 Starting to disconnect Discord integration for organization: %s", organizationID)
	if organizationID == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}

	maybeConfig, err := s.configsRepo.GetGuildRoleConfigByOrganizationID(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("failed to get guild role config: %w", err)
	}
	if !maybeConfig.IsPresent() {
		return core.ErrNotFound
	}
	config := maybeConfig.MustGet()

	if err := s.guildClient.LeaveGuild(config.GuildID); err != nil {
		return fmt.Errorf("failed to remove bot from guild: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.configsRepo.DeleteGuildRoleConfigByOrganizationID(txCtx, organizationID); err != nil {
			return fmt.Errorf("failed to delete guild role config: %w", err)
		}
		if _, err := s.integrationsRepo.DeleteDiscordIntegrationByOrganizationID(txCtx, organizationID); err != nil {
			return fmt.Errorf("failed to delete discord integration: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("📋 Completed successfully - disconnected Discord integration for organization: %s", organizationID)
	return nil
}
