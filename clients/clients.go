package clients

import (
	"net/http"
)

// DiscordOAuthResponse represents the response from Discord's OAuth2 token
// endpoint, for both authorization_code and refresh_token grants.
type DiscordOAuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// DiscordGuild represents a Discord guild (server)
type DiscordGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiscordRole represents a role within a Discord guild
type DiscordRole struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
}

// DiscordOAuthClient defines the OAuth2 operations used during the connect
// handshake and proactive token refresh
type DiscordOAuthClient interface {
	ExchangeCodeForToken(
		httpClient *http.Client,
		clientID, clientSecret, code, redirectURL string,
	) (*DiscordOAuthResponse, error)
	RefreshAccessToken(
		httpClient *http.Client,
		clientID, clientSecret, refreshToken string,
	) (*DiscordOAuthResponse, error)
	GetUserGuilds(httpClient *http.Client, accessToken string) ([]DiscordGuild, error)
}

// DiscordGuildClient defines the bot-authenticated guild/role/member
// operations. Implementations classify every non-2xx response as transient or
// permanent so the orchestrator can decide whether to retry.
type DiscordGuildClient interface {
	GetGuildByID(guildID string) (*DiscordGuild, error)
	ListRoles(guildID string) ([]DiscordRole, error)
	CreateRole(guildID, name string, color int) (*DiscordRole, error)
	FindOrCreateRole(guildID, name string, color int) (*DiscordRole, error)
	GrantRole(guildID, userID, roleID string) error
	RevokeRole(guildID, userID, roleID string) error
	LeaveGuild(guildID string) error
}
