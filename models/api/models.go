package api

import (
	"time"
)

// UserModel represents the user data returned by the API
type UserModel struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GuildRoleConfigModel represents the guild/role selection returned after a
// successful OAuth connect. Tokens never leave the backend.
type GuildRoleConfigModel struct {
	ID            string    `json:"id"`
	GuildID       string    `json:"guild_id"`
	GuildName     string    `json:"guild_name"`
	DefaultRoleID string    `json:"default_role_id"`
	RoleName      string    `json:"role_name"`
	IsConnected   bool      `json:"is_connected"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RoleAuditEntryModel represents one role-history row returned by the API
type RoleAuditEntryModel struct {
	ID            string    `json:"id"`
	GuildID       string    `json:"guild_id"`
	DiscordUserID string    `json:"discord_user_id"`
	RoleID        string    `json:"role_id"`
	Action        string    `json:"action"`
	Success       bool      `json:"success"`
	Attempts      int       `json:"attempts"`
	ErrorMessage  *string   `json:"error_message"`
	ApplicationID string    `json:"application_id"`
	TournamentID  string    `json:"tournament_id"`
	CreatedAt     time.Time `json:"created_at"`
}
