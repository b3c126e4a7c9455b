package api

import "costreambackend/models"

// DomainUserToAPIUser converts a domain User model to an API UserModel
func DomainUserToAPIUser(domainUser *models.User) *UserModel {
	if domainUser == nil {
		return nil
	}

	return &UserModel{
		ID:             domainUser.ID,
		Email:          domainUser.Email,
		OrganizationID: domainUser.OrganizationID,
		CreatedAt:      domainUser.CreatedAt,
		UpdatedAt:      domainUser.UpdatedAt,
	}
}

// DomainGuildRoleConfigToAPIGuildRoleConfig converts a domain GuildRoleConfig
// model to an API GuildRoleConfigModel
func DomainGuildRoleConfigToAPIGuildRoleConfig(config *models.GuildRoleConfig) *GuildRoleConfigModel {
	if config == nil {
		return nil
	}

	return &GuildRoleConfigModel{
		ID:            config.ID,
		GuildID:       config.GuildID,
		GuildName:     config.GuildName,
		DefaultRoleID: config.DefaultRoleID,
		RoleName:      config.RoleName,
		IsConnected:   config.IsConnected,
		CreatedAt:     config.CreatedAt,
		UpdatedAt:     config.UpdatedAt,
	}
}

// DomainRoleAuditEntriesToAPIRoleAuditEntries converts domain RoleAuditEntry
// models to API RoleAuditEntryModels
func DomainRoleAuditEntriesToAPIRoleAuditEntries(entries []*models.RoleAuditEntry) []*RoleAuditEntryModel {
	apiEntries := make([]*RoleAuditEntryModel, 0, len(entries))
	for _, entry := range entries {
		apiEntries = append(apiEntries, &RoleAuditEntryModel{
			ID:            entry.ID,
			GuildID:       entry.GuildID,
			DiscordUserID: entry.DiscordUserID,
			RoleID:        entry.RoleID,
			Action:        string(entry.Action),
			Success:       entry.Success,
			Attempts:      entry.Attempts,
			ErrorMessage:  entry.ErrorMessage,
			ApplicationID: entry.ApplicationID,
			TournamentID:  entry.TournamentID,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return apiEntries
}
