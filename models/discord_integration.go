package models

import (
	"time"

	"github.com/lib/pq"
)

// DiscordIntegration holds the per-organization OAuth credentials obtained when
// a tournament organizer connects the bot to their Discord server. There is at
// most one row per organization; it is created on a successful OAuth handshake,
// mutated only by token refresh, and deleted on explicit disconnect.
type DiscordIntegration struct {
	ID              string         `db:"id"                json:"id"`
	OrganizationID  string         `db:"organization_id"   json:"organization_id"`
	DiscordUserID   string         `db:"discord_user_id"   json:"discord_user_id"`
	AccessToken     string         `db:"access_token"      json:"-"`
	RefreshToken    string         `db:"refresh_token"     json:"-"`
	ExpiresAt       time.Time      `db:"expires_at"        json:"expires_at"`
	GuildIDs        pq.StringArray `db:"guild_ids"         json:"guild_ids"`
	SelectedGuildID string         `db:"selected_guild_id" json:"selected_guild_id"`
	SelectedRoleID  string         `db:"selected_role_id"  json:"selected_role_id"`
	CreatedAt       time.Time      `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"        json:"updated_at"`
}

// DiscordIntegrationStatus is the health summary reported by the test-config
// endpoint.
type DiscordIntegrationStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	GuildID    string `json:"guild_id,omitempty"`
	GuildName  string `json:"guild_name,omitempty"`
	RoleID     string `json:"role_id,omitempty"`
	RoleName   string `json:"role_name,omitempty"`
}
