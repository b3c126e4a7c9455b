package models

import (
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusApproved ApplicationStatus = "Approved"
	ApplicationStatusRejected ApplicationStatus = "Rejected"
	ApplicationStatusRevoked  ApplicationStatus = "Revoked"
)

// Application is a streamer's application to co-stream a tournament.
// OrganizationID is populated from the tournaments join and is never written
// through this struct. DiscordRoleAssigned is the denormalized flag the
// orchestrator updates after a successful grant.
type Application struct {
	ID                    string            `db:"id"                       json:"id"`
	TournamentID          string            `db:"tournament_id"            json:"tournament_id"`
	StreamerID            string            `db:"streamer_id"              json:"streamer_id"`
	DiscordUserID         *string           `db:"discord_user_id"          json:"discord_user_id"`
	Status                ApplicationStatus `db:"status"                   json:"status"`
	DiscordRoleAssigned   bool              `db:"discord_role_assigned"    json:"discord_role_assigned"`
	DiscordRoleAssignedAt *time.Time        `db:"discord_role_assigned_at" json:"discord_role_assigned_at"`
	DiscordRoleRemovedAt  *time.Time        `db:"discord_role_removed_at"  json:"discord_role_removed_at"`
	OrganizationID        string            `db:"organization_id"          json:"organization_id"`
	CreatedAt             time.Time         `db:"created_at"               json:"created_at"`
	UpdatedAt             time.Time         `db:"updated_at"               json:"updated_at"`
}

// Tournament carries only what the role sync core needs: ownership and display
// title.
type Tournament struct {
	ID             string    `db:"id"              json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Title          string    `db:"title"           json:"title"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}
