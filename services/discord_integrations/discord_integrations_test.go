package discordintegrations

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"costreambackend/clients"
	"costreambackend/clients/discord"
	"costreambackend/core"
	"costreambackend/models"
	"costreambackend/services/txmanager"
)

// MockDiscordIntegrationsRepository is a mock implementation of the DiscordIntegrationsRepository interface
type MockDiscordIntegrationsRepository struct {
	mock.Mock
}

func (m *MockDiscordIntegrationsRepository) UpsertDiscordIntegration(
	ctx context.Context,
	integration *models.DiscordIntegration,
) error {
	args := m.Called(ctx, integration)
	return args.Error(0)
}

func (m *MockDiscordIntegrationsRepository) GetDiscordIntegrationByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.DiscordIntegration], error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return mo.None[*models.DiscordIntegration](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.DiscordIntegration]), args.Error(1)
}

func (m *MockDiscordIntegrationsRepository) UpdateDiscordIntegrationTokens(
	ctx context.Context,
	organizationID, accessToken, refreshToken string,
	expiresAt time.Time,
) error {
	args := m.Called(ctx, organizationID, accessToken, refreshToken, expiresAt)
	return args.Error(0)
}

func (m *MockDiscordIntegrationsRepository) DeleteDiscordIntegrationByOrganizationID(
	ctx context.Context,
	organizationID string,
) (bool, error) {
	args := m.Called(ctx, organizationID)
	return args.Bool(0), args.Error(1)
}

// MockGuildRoleConfigsRepository is a mock implementation of the GuildRoleConfigsRepository interface
type MockGuildRoleConfigsRepository struct {
	mock.Mock
}

func (m *MockGuildRoleConfigsRepository) UpsertGuildRoleConfig(
	ctx context.Context,
	config *models.GuildRoleConfig,
) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockGuildRoleConfigsRepository) GetGuildRoleConfigByOrganizationID(
	ctx context.Context,
	organizationID string,
) (mo.Option[*models.GuildRoleConfig], error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return mo.None[*models.GuildRoleConfig](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.GuildRoleConfig]), args.Error(1)
}

func (m *MockGuildRoleConfigsRepository) DeleteGuildRoleConfigByOrganizationID(
	ctx context.Context,
	organizationID string,
) (bool, error) {
	args := m.Called(ctx, organizationID)
	return args.Bool(0), args.Error(1)
}

type serviceFixture struct {
	service          *DiscordIntegrationsService
	integrationsRepo *MockDiscordIntegrationsRepository
	configsRepo      *MockGuildRoleConfigsRepository
	oauthClient      *discord.MockDiscordOAuthClient
	guildClient      *discord.MockDiscordGuildClient
	txManager        *txmanager.MockTransactionManager
	now              time.Time
}

func newFixture() *serviceFixture {
	integrationsRepo := new(MockDiscordIntegrationsRepository)
	configsRepo := new(MockGuildRoleConfigsRepository)
	oauthClient := new(discord.MockDiscordOAuthClient)
	guildClient := new(discord.MockDiscordGuildClient)
	txManager := new(txmanager.MockTransactionManager)

	service := NewDiscordIntegrationsService(
		integrationsRepo,
		configsRepo,
		oauthClient,
		guildClient,
		txManager,
		"client-id",
		"client-secret",
	)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	return &serviceFixture{
		service:          service,
		integrationsRepo: integrationsRepo,
		configsRepo:      configsRepo,
		oauthClient:      oauthClient,
		guildClient:      guildClient,
		txManager:        txManager,
		now:              now,
	}
}

// runTransaction makes the mock transaction manager execute the callback
func (f *serviceFixture) runTransaction() {
	f.txManager.On("WithTransaction", mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(ctx context.Context) error)
			_ = fn(args.Get(0).(context.Context))
		})
}

func testIntegration(f *serviceFixture, expiresIn time.Duration) *models.DiscordIntegration {
	return &models.DiscordIntegration{
		ID:              "di_1",
		OrganizationID:  "org_1",
		AccessToken:     "old-access",
		RefreshToken:    "old-refresh",
		ExpiresAt:       f.now.Add(expiresIn),
		SelectedGuildID: "guild123",
	}
}

func TestEnsureFreshToken_ReturnsTokenWhenNotNearExpiry(t *testing.T) {
	f := newFixture()

	token, err := f.service.EnsureFreshToken(context.Background(), testIntegration(f, time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "old-access", token)
	f.oauthClient.AssertNotCalled(t, "RefreshAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureFreshToken_RefreshesNearExpiry(t *testing.T) {
	f := newFixture()

	integration := testIntegration(f, 2*time.Minute)
	f.oauthClient.On("RefreshAccessToken", mock.Anything, "client-id", "client-secret", "old-refresh").
		Return(&clients.DiscordOAuthResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    604800,
		}, nil)
	f.integrationsRepo.On(
		"UpdateDiscordIntegrationTokens",
		mock.Anything, "org_1", "new-access", "new-refresh",
		f.now.Add(604800*time.Second),
	).Return(nil)

	token, err := f.service.EnsureFreshToken(context.Background(), integration)

	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, "new-access", integration.AccessToken)
	assert.Equal(t, "new-refresh", integration.RefreshToken)
	f.integrationsRepo.AssertExpectations(t)
}

func TestEnsureFreshToken_KeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	f := newFixture()

	integration := testIntegration(f, time.Minute)
	f.oauthClient.On("RefreshAccessToken", mock.Anything, "client-id", "client-secret", "old-refresh").
		Return(&clients.DiscordOAuthResponse{AccessToken: "new-access", ExpiresIn: 3600}, nil)
	f.integrationsRepo.On(
		"UpdateDiscordIntegrationTokens",
		mock.Anything, "org_1", "new-access", "old-refresh", mock.Anything,
	).Return(nil)

	_, err := f.service.EnsureFreshToken(context.Background(), integration)

	require.NoError(t, err)
	assert.Equal(t, "old-refresh", integration.RefreshToken)
	f.integrationsRepo.AssertExpectations(t)
}

func TestEnsureFreshToken_RefreshFailureReturnsExistingToken(t *testing.T) {
	f := newFixture()

	integration := testIntegration(f, time.Minute)
	f.oauthClient.On("RefreshAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	token, err := f.service.EnsureFreshToken(context.Background(), integration)

	assert.Equal(t, "old-access", token)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenRefreshFailed)
	assert.Equal(t, "old-access", integration.AccessToken)
}

func TestGetIntegrationStatus_NotConfigured(t *testing.T) {
	f := newFixture()

	f.configsRepo.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.None[*models.GuildRoleConfig](), nil)

	status, err := f.service.GetIntegrationStatus(context.Background(), "org_1")

	require.NoError(t, err)
	assert.False(t, status.Configured)
	assert.False(t, status.Connected)
}

func TestGetIntegrationStatus_Connected(t *testing.T) {
	f := newFixture()

	f.configsRepo.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.Some(&models.GuildRoleConfig{
			OrganizationID: "org_1",
			GuildID:        "guild123",
			GuildName:      "Test Guild",
			DefaultRoleID:  "role456",
			RoleName:       models.DefaultApprovedRoleName,
			IsConnected:    true,
		}), nil)

	status, err := f.service.GetIntegrationStatus(context.Background(), "org_1")

	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
	assert.Equal(t, "guild123", status.GuildID)
	assert.Equal(t, "Test Guild", status.GuildName)
	assert.Equal(t, "role456", status.RoleID)
}

func TestDisconnect_RemovesIntegrationAndLeavesGuild(t *testing.T) {
	f := newFixture()

	f.configsRepo.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.Some(&models.GuildRoleConfig{OrganizationID: "org_1", GuildID: "guild123"}), nil)
	f.guildClient.On("LeaveGuild", "guild123").Return(nil)
	f.runTransaction()
	f.configsRepo.On("DeleteGuildRoleConfigByOrganizationID", mock.Anything, "org_1").Return(true, nil)
	f.integrationsRepo.On("DeleteDiscordIntegrationByOrganizationID", mock.Anything, "org_1").Return(true, nil)

	err := f.service.Disconnect(context.Background(), "org_1")

	require.NoError(t, err)
	f.guildClient.AssertExpectations(t)
	f.configsRepo.AssertExpectations(t)
	f.integrationsRepo.AssertExpectations(t)
}

func TestDisconnect_NotFoundWithoutConfig(t *testing.T) {
	f := newFixture()

	f.configsRepo.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.None[*models.GuildRoleConfig](), nil)

	err := f.service.Disconnect(context.Background(), "org_1")

	assert.ErrorIs(t, err, core.ErrNotFound)
	f.guildClient.AssertNotCalled(t, "LeaveGuild", mock.Anything)
}

func TestCompleteOAuthConnect_CreatesIntegrationAndConfig(t *testing.T) {
	f := newFixture()

	organizationID := core.NewID("org")
	f.oauthClient.On("ExchangeCodeForToken", mock.Anything, "client-id", "client-secret", "auth-code", "https://api.example.com/api/discord/callback").
		Return(&clients.DiscordOAuthResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresIn:    604800,
		}, nil)
	f.oauthClient.On("GetUserGuilds", mock.Anything, "access").
		Return([]clients.DiscordGuild{{ID: "guild123", Name: "Test Guild"}}, nil)
	f.guildClient.On("GetGuildByID", "guild123").
		Return(&clients.DiscordGuild{ID: "guild123", Name: "Test Guild"}, nil)
	f.guildClient.On("FindOrCreateRole", "guild123", models.DefaultApprovedRoleName, models.DefaultApprovedRoleColor).
		Return(&clients.DiscordRole{ID: "role456", Name: models.DefaultApprovedRoleName}, nil)
	f.runTransaction()
	f.integrationsRepo.On("UpsertDiscordIntegration", mock.Anything, mock.MatchedBy(func(i *models.DiscordIntegration) bool {
		return i.OrganizationID == organizationID &&
			i.AccessToken == "access" &&
			i.SelectedGuildID == "guild123" &&
			i.SelectedRoleID == "role456"
	})).Return(nil)
	f.configsRepo.On("UpsertGuildRoleConfig", mock.Anything, mock.MatchedBy(func(c *models.GuildRoleConfig) bool {
		return c.OrganizationID == organizationID &&
			c.GuildID == "guild123" &&
			c.GuildName == "Test Guild" &&
			c.DefaultRoleID == "role456" &&
			c.IsConnected
	})).Return(nil)

	config, err := f.service.CompleteOAuthConnect(
		context.Background(),
		organizationID,
		"auth-code",
		"guild123",
		"https://api.example.com/api/discord/callback",
	)

	require.NoError(t, err)
	assert.Equal(t, "guild123", config.GuildID)
	assert.True(t, config.IsConnected)
	f.integrationsRepo.AssertExpectations(t)
	f.configsRepo.AssertExpectations(t)
}

func TestCompleteOAuthConnect_RejectsInvalidOrganizationID(t *testing.T) {
	f := newFixture()

	_, err := f.service.CompleteOAuthConnect(context.Background(), "not-a-ulid", "code", "guild123", "url")

	assert.Error(t, err)
	f.oauthClient.AssertNotCalled(t, "ExchangeCodeForToken",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
