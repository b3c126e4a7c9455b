package models

import (
	"time"
)

type RoleAction string

const (
	RoleActionGrant  RoleAction = "grant"
	RoleActionRevoke RoleAction = "revoke"
)

// RoleAssignmentIntent is the ephemeral input to the role assignment
// orchestrator: the desired grant/revoke outcome plus the correlation key
// (application + tournament) that ties it back to the business event.
// It is never persisted as its own entity.
type RoleAssignmentIntent struct {
	GuildID        string
	DiscordUserID  string
	RoleID         string
	RoleName       string
	Action         RoleAction
	ApplicationID  string
	TournamentID   string
	OrganizationID string
}

// RoleAssignmentOutcome is the terminal result of one orchestrator invocation.
// Deduplicated means an earlier invocation already succeeded for the same
// correlation key and action, so nothing was attempted.
type RoleAssignmentOutcome struct {
	Success      bool   `json:"success"`
	Attempts     int    `json:"attempts"`
	RoleID       string `json:"role_id,omitempty"`
	Error        string `json:"error,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

// DiscordStatus is the best-effort sub-result attached to the primary
// approval/rejection response. A Discord-side failure never fails the
// business action; it is reported here instead.
type DiscordStatus struct {
	Attempted  bool   `json:"attempted"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skipReason,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RoleAuditEntry is the append-only record of a terminal role assignment
// outcome. Entries are never updated or deleted; they are the source of truth
// for "did this assignment already succeed".
type RoleAuditEntry struct {
	ID             string     `db:"id"              json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	GuildID        string     `db:"guild_id"        json:"guild_id"`
	DiscordUserID  string     `db:"discord_user_id" json:"discord_user_id"`
	RoleID         string     `db:"role_id"         json:"role_id"`
	Action         RoleAction `db:"action"          json:"action"`
	Success        bool       `db:"success"         json:"success"`
	Attempts       int        `db:"attempts"        json:"attempts"`
	ErrorMessage   *string    `db:"error_message"   json:"error_message"`
	ApplicationID  string     `db:"application_id"  json:"application_id"`
	TournamentID   string     `db:"tournament_id"   json:"tournament_id"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
}
