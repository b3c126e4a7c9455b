package discordintegrations

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"costreambackend/models"
)

// MockDiscordIntegrationsService is a mock implementation of the DiscordIntegrationsService interface
type MockDiscordIntegrationsService struct {
	mock.Mock
}

func (m *MockDiscordIntegrationsService) CompleteOAuthConnect(
	ctx context.Context,
	organizationID, discordAuthCode, guildID, redirectURL string,
) (*models.GuildRoleConfig, error) {
	args := m.Called(ctx, organizationID, discordAuthCode, guildID, redirectURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildRoleConfig), args.Error(1)
}

func (m *MockDiscordIntegrationsService) GetIntegrationByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.DiscordIntegration], error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return mo.None[*models.DiscordIntegration](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.DiscordIntegration]), args.Error(1)
}

func (m *MockDiscordIntegrationsService) GetGuildRoleConfigByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.GuildRoleConfig], error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return mo.None[*models.GuildRoleConfig](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.GuildRoleConfig]), args.Error(1)
}

func (m *MockDiscordIntegrationsService) EnsureFreshToken(
	ctx context.Context,
	integration *models.DiscordIntegration,
) (string, error) {
	args := m.Called(ctx, integration)
	return args.String(0), args.Error(1)
}

func (m *MockDiscordIntegrationsService) GetIntegrationStatus(
	ctx context.Context,
	organizationID string,
) (*models.DiscordIntegrationStatus, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiscordIntegrationStatus), args.Error(1)
}

func (m *MockDiscordIntegrationsService) Disconnect(ctx context.Context, organizationID string) error {
	args := m.Called(ctx, organizationID)
	return args.Error(0)
}
