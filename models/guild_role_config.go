package models

import (
	"time"
)

// DefaultApprovedRoleName is the role granted to approved co-streamers when the
// organizer has not picked a custom one.
const DefaultApprovedRoleName = "Approved Co-Streamer"

// DefaultApprovedRoleColor is the brand cyan used when auto-creating the role.
const DefaultApprovedRoleColor = 0x00D9FF

// GuildRoleConfig is the per-organization Discord guild/role selection read by
// the trigger adapters to resolve role assignment targets. Deleted on
// disconnect together with the bot leaving the guild.
type GuildRoleConfig struct {
	ID             string    `db:"id"              json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	GuildID        string    `db:"guild_id"        json:"guild_id"`
	GuildName      string    `db:"guild_name"      json:"guild_name"`
	DefaultRoleID  string    `db:"default_role_id" json:"default_role_id"`
	RoleName       string    `db:"role_name"       json:"role_name"`
	IsConnected    bool      `db:"is_connected"    json:"is_connected"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}
