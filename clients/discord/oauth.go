package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"costreambackend/clients"
)

// manageRolesPermission is the only permission the bot requests (MANAGE_ROLES)
const manageRolesPermission = "268435456"

// DiscordOAuthClient implements the clients.DiscordOAuthClient interface using
// raw HTTP form posts; discordgo does not support OAuth2 token exchange
type DiscordOAuthClient struct{}

// NewDiscordOAuthClient creates a new Discord OAuth client
func NewDiscordOAuthClient() clients.DiscordOAuthClient {
	return &DiscordOAuthClient{}
}

// AuthorizationURL builds the Discord authorize URL for the bot-install
// handshake, carrying the signed CSRF state token
func AuthorizationURL(clientID, redirectURL, state string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("permissions", manageRolesPermission)
	params.Set("redirect_uri", redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "bot applications.commands")
	params.Set("state", state)

	return "https://discord.com/oauth2/authorize?" + params.Encode()
}

// ExchangeCodeForToken exchanges an OAuth authorization code for access tokens
func (c *DiscordOAuthClient) ExchangeCodeForToken(
	httpClient *http.Client,
	clientID, clientSecret, code, redirectURL string,
) (*clients.DiscordOAuthResponse, error) {
	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURL)

	return c.postTokenEndpoint(httpClient, data)
}

// RefreshAccessToken exchanges a refresh token for a fresh access token
func (c *DiscordOAuthClient) RefreshAccessToken(
	httpClient *http.Client,
	clientID, clientSecret, refreshToken string,
) (*clients.DiscordOAuthResponse, error) {
	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	return c.postTokenEndpoint(httpClient, data)
}

func (c *DiscordOAuthClient) postTokenEndpoint(
	httpClient *http.Client,
	data url.Values,
) (*clients.DiscordOAuthResponse, error) {
	req, err := http.NewRequestWithContext(
		context.Background(),
		"POST",
		discordOAuthURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute OAuth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OAuth request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth response body: %w", err)
	}

	var oauthResp clients.DiscordOAuthResponse
	if err := json.Unmarshal(body, &oauthResp); err != nil {
		return nil, fmt.Errorf("failed to decode OAuth response: %w", err)
	}

	return &oauthResp, nil
}

// GetUserGuilds fetches the guilds the authorizing user administers, using the
// OAuth access token from the handshake
func (c *DiscordOAuthClient) GetUserGuilds(
	httpClient *http.Client,
	accessToken string,
) ([]clients.DiscordGuild, error) {
	req, err := http.NewRequestWithContext(
		context.Background(),
		"GET",
		discordAPIBase+"/users/@me/guilds",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create guilds request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute guilds request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("guilds request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var guilds []clients.DiscordGuild
	if err := json.NewDecoder(resp.Body).Decode(&guilds); err != nil {
		return nil, fmt.Errorf("failed to decode guilds response: %w", err)
	}

	return guilds, nil
}
