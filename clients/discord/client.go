package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"costreambackend/clients"
	"costreambackend/core"
)

var (
	discordAPIBase  = "https://discord.com/api/v10"
	discordOAuthURL = "https://discord.com/api/oauth2/token"
)

// DiscordGuildClient implements the clients.DiscordGuildClient interface using
// the bot token. Role/member endpoints are called over raw HTTP so every
// status code can be classified for the orchestrator's retry policy;
// discordgo's built-in rate limit handling would fight that policy.
type DiscordGuildClient struct {
	httpClient *http.Client
	botToken   string
}

// NewDiscordGuildClient creates a new bot-authenticated guild client
func NewDiscordGuildClient(httpClient *http.Client, botToken string) clients.DiscordGuildClient {
	return &DiscordGuildClient{
		httpClient: httpClient,
		botToken:   botToken,
	}
}

// GetGuildByID fetches guild information using the bot token via discordgo
func (c *DiscordGuildClient) GetGuildByID(guildID string) (*clients.DiscordGuild, error) {
	if c.botToken == "" {
		return nil, fmt.Errorf("bot token missing: %w", core.ErrNotConfigured)
	}

	sdkClient, err := discordgo.New("Bot " + c.botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	sdkClient.Client = c.httpClient

	discordGuild, err := sdkClient.Guild(guildID, discordgo.WithContext(context.Background()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild: %w", err)
	}
	if discordGuild == nil {
		return nil, fmt.Errorf("guild not found")
	}

	return &clients.DiscordGuild{
		ID:   discordGuild.ID,
		Name: discordGuild.Name,
	}, nil
}

// ListRoles fetches all roles in a guild
func (c *DiscordGuildClient) ListRoles(guildID string) ([]clients.DiscordRole, error) {
	var roles []clients.DiscordRole
	err := c.do("GET", fmt.Sprintf("%s/guilds/%s/roles", discordAPIBase, guildID), nil, &roles)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild roles: %w", err)
	}
	return roles, nil
}

// CreateRole creates a new role in a guild with no permissions
func (c *DiscordGuildClient) CreateRole(guildID, name string, color int) (*clients.DiscordRole, error) {
	payload := map[string]any{
		"name":        name,
		"color":       color,
		"permissions": "0",
		"mentionable": false,
	}

	var role clients.DiscordRole
	err := c.do("POST", fmt.Sprintf("%s/guilds/%s/roles", discordAPIBase, guildID), payload, &role)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild role: %w", err)
	}
	return &role, nil
}

// FindOrCreateRole lists the guild's roles, matches by exact name, and creates
// the role only on a miss. Not transactional against concurrent creators: a
// race can produce duplicate same-named roles, which callers must tolerate.
func (c *DiscordGuildClient) FindOrCreateRole(guildID, name string, color int) (*clients.DiscordRole, error) {
	roles, err := c.ListRoles(guildID)
	if err != nil {
		return nil, err
	}

	for _, role := range roles {
		if role.Name == name {
			return &role, nil
		}
	}

	return c.CreateRole(guildID, name, color)
}

// GrantRole adds a role to a guild member. Discord treats granting an
// already-held role as a no-op success.
func (c *DiscordGuildClient) GrantRole(guildID, userID, roleID string) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", discordAPIBase, guildID, userID, roleID)
	if err := c.do("PUT", url, nil, nil); err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// RevokeRole removes a role from a guild member
func (c *DiscordGuildClient) RevokeRole(guildID, userID, roleID string) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", discordAPIBase, guildID, userID, roleID)
	if err := c.do("DELETE", url, nil, nil); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

// LeaveGuild makes the bot leave the guild. A 404 means the bot is already
// absent and counts as success.
func (c *DiscordGuildClient) LeaveGuild(guildID string) error {
	url := fmt.Sprintf("%s/users/@me/guilds/%s", discordAPIBase, guildID)
	err := c.do("DELETE", url, nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to leave guild: %w", err)
	}
	return nil
}

// do executes a bot-authenticated request and maps any non-2xx response to a
// classified *APIError
func (c *DiscordGuildClient) do(method, url string, payload any, out any) error {
	if c.botToken == "" {
		return fmt.Errorf("bot token missing: %w", core.ErrNotConfigured)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp),
		}
	}

	if out != nil {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// readErrorMessage extracts Discord's {"message": ...} error detail, falling
// back to the raw body
func readErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return resp.Status
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(body)
}
