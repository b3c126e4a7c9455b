package discord

import (
	"net/http"

	"github.com/stretchr/testify/mock"

	"costreambackend/clients"
)

// MockDiscordOAuthClient is a mock implementation of clients.DiscordOAuthClient
type MockDiscordOAuthClient struct {
	mock.Mock
}

func (m *MockDiscordOAuthClient) ExchangeCodeForToken(
	httpClient *http.Client,
	clientID, clientSecret, code, redirectURL string,
) (*clients.DiscordOAuthResponse, error) {
	args := m.Called(httpClient, clientID, clientSecret, code, redirectURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordOAuthResponse), args.Error(1)
}

func (m *MockDiscordOAuthClient) RefreshAccessToken(
	httpClient *http.Client,
	clientID, clientSecret, refreshToken string,
) (*clients.DiscordOAuthResponse, error) {
	args := m.Called(httpClient, clientID, clientSecret, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordOAuthResponse), args.Error(1)
}

func (m *MockDiscordOAuthClient) GetUserGuilds(
	httpClient *http.Client,
	accessToken string,
) ([]clients.DiscordGuild, error) {
	args := m.Called(httpClient, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.DiscordGuild), args.Error(1)
}

// MockDiscordGuildClient is a mock implementation of clients.DiscordGuildClient
type MockDiscordGuildClient struct {
	mock.Mock
}

func (m *MockDiscordGuildClient) GetGuildByID(guildID string) (*clients.DiscordGuild, error) {
	args := m.Called(guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordGuild), args.Error(1)
}

func (m *MockDiscordGuildClient) ListRoles(guildID string) ([]clients.DiscordRole, error) {
	args := m.Called(guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.DiscordRole), args.Error(1)
}

func (m *MockDiscordGuildClient) CreateRole(guildID, name string, color int) (*clients.DiscordRole, error) {
	args := m.Called(guildID, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordRole), args.Error(1)
}

func (m *MockDiscordGuildClient) FindOrCreateRole(guildID, name string, color int) (*clients.DiscordRole, error) {
	args := m.Called(guildID, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordRole), args.Error(1)
}

func (m *MockDiscordGuildClient) GrantRole(guildID, userID, roleID string) error {
	args := m.Called(guildID, userID, roleID)
	return args.Error(0)
}

func (m *MockDiscordGuildClient) RevokeRole(guildID, userID, roleID string) error {
	args := m.Called(guildID, userID, roleID)
	return args.Error(0)
}

func (m *MockDiscordGuildClient) LeaveGuild(guildID string) error {
	args := m.Called(guildID)
	return args.Error(0)
}
