package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"costreambackend/models"
	applicationssvc "costreambackend/services/applications"
	discordintegrations "costreambackend/services/discord_integrations"
	roleassignment "costreambackend/services/role_assignment"
	"costreambackend/usecases/rolesync"
)

const testWebhookSecret = "whsec_test"

func newWebhookTestHandler() (*WebhookHandler, *discordintegrations.MockDiscordIntegrationsService, *applicationssvc.MockApplicationsService, *roleassignment.MockRoleAssignmentService) {
	integrations := new(discordintegrations.MockDiscordIntegrationsService)
	apps := new(applicationssvc.MockApplicationsService)
	roles := new(roleassignment.MockRoleAssignmentService)
	usecase := rolesync.NewRoleSyncUseCase(integrations, apps, roles)
	return NewWebhookHandler(usecase, testWebhookSecret), integrations, apps, roles
}

func postWebhook(t *testing.T, handler *WebhookHandler, secret string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/application-status", bytes.NewReader(payload))
	if secret != "" {
		req.Header.Set("x-webhook-secret", secret)
	}

	recorder := httptest.NewRecorder()
	handler.HandleApplicationStatusWebhook(recorder, req)
	return recorder
}

func webhookStreamerApplication() *models.Application {
	discordUserID := "discorduser1"
	return &models.Application{
		ID:             "app_1",
		TournamentID:   "t1",
		StreamerID:     "s1",
		DiscordUserID:  &discordUserID,
		Status:         models.ApplicationStatusPending,
		OrganizationID: "org_1",
	}
}

func webhookGuildConfig() *models.GuildRoleConfig {
	return &models.GuildRoleConfig{
		ID:             "dc_1",
		OrganizationID: "org_1",
		GuildID:        "guild123",
		DefaultRoleID:  "role456",
		RoleName:       models.DefaultApprovedRoleName,
		IsConnected:    true,
	}
}

func TestWebhook_RejectsMissingSecret(t *testing.T) {
	handler, _, _, roles := newWebhookTestHandler()

	recorder := postWebhook(t, handler, "", ApplicationStatusWebhookRequest{
		Action: "approved", TournamentID: "t1", StreamerID: "s1",
	})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	roles.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
}

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	handler, _, _, _ := newWebhookTestHandler()

	recorder := postWebhook(t, handler, "wrong", ApplicationStatusWebhookRequest{
		Action: "approved", TournamentID: "t1", StreamerID: "s1",
	})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestWebhook_RejectsUnknownAction(t *testing.T) {
	handler, _, _, _ := newWebhookTestHandler()

	recorder := postWebhook(t, handler, testWebhookSecret, ApplicationStatusWebhookRequest{
		Action: "promoted", TournamentID: "t1", StreamerID: "s1",
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestWebhook_ApprovedGrantsRole(t *testing.T) {
	handler, integrations, apps, roles := newWebhookTestHandler()

	apps.On("GetApplicationByTournamentAndStreamer", mock.Anything, "t1", "s1").
		Return(mo.Some(webhookStreamerApplication()), nil)
	integrations.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.Some(webhookGuildConfig()), nil)
	integrations.On("GetIntegrationByOrganizationID", mock.Anything, "org_1").
		Return(mo.None[*models.DiscordIntegration](), nil)
	roles.On("Assign", mock.Anything, mock.MatchedBy(func(intent models.RoleAssignmentIntent) bool {
		return intent.Action == models.RoleActionGrant && intent.GuildID == "guild123"
	})).Return(models.RoleAssignmentOutcome{Success: true, Attempts: 1})

	recorder := postWebhook(t, handler, testWebhookSecret, ApplicationStatusWebhookRequest{
		Action: "approved", TournamentID: "t1", StreamerID: "s1", OrganizerID: "org_1",
	})

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp ApplicationStatusWebhookResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.DiscordStatus)
	assert.True(t, resp.DiscordStatus.Success)
	roles.AssertExpectations(t)
}

func TestWebhook_ApprovedGrantFailureReturns500(t *testing.T) {
	handler, integrations, apps, roles := newWebhookTestHandler()

	apps.On("GetApplicationByTournamentAndStreamer", mock.Anything, "t1", "s1").
		Return(mo.Some(webhookStreamerApplication()), nil)
	integrations.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.Some(webhookGuildConfig()), nil)
	integrations.On("GetIntegrationByOrganizationID", mock.Anything, "org_1").
		Return(mo.None[*models.DiscordIntegration](), nil)
	roles.On("Assign", mock.Anything, mock.Anything).
		Return(models.RoleAssignmentOutcome{Success: false, Attempts: 3, Error: "Discord API error (500): upstream"})

	recorder := postWebhook(t, handler, testWebhookSecret, ApplicationStatusWebhookRequest{
		Action: "approved", TournamentID: "t1", StreamerID: "s1", OrganizerID: "org_1",
	})

	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	var resp ApplicationStatusWebhookResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.DiscordStatus)
	assert.Equal(t, "Discord API error (500): upstream", resp.DiscordStatus.Error)
}

func TestWebhook_ApprovedSkipIsStillSuccess(t *testing.T) {
	handler, integrations, apps, roles := newWebhookTestHandler()

	apps.On("GetApplicationByTournamentAndStreamer", mock.Anything, "t1", "s1").
		Return(mo.Some(webhookStreamerApplication()), nil)
	integrations.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.None[*models.GuildRoleConfig](), nil)

	recorder := postWebhook(t, handler, testWebhookSecret, ApplicationStatusWebhookRequest{
		Action: "approved", TournamentID: "t1", StreamerID: "s1", OrganizerID: "org_1",
	})

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp ApplicationStatusWebhookResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.DiscordStatus)
	assert.True(t, resp.DiscordStatus.Skipped)
	assert.Equal(t, "Discord integration not configured", resp.DiscordStatus.SkipReason)
	roles.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
}

func TestWebhook_RevokedIsBestEffort(t *testing.T) {
	handler, integrations, apps, roles := newWebhookTestHandler()

	apps.On("GetApplicationByTournamentAndStreamer", mock.Anything, "t1", "s1").
		Return(mo.Some(webhookStreamerApplication()), nil)
	integrations.On("GetGuildRoleConfigByOrganizationID", mock.Anything, "org_1").
		Return(mo.Some(webhookGuildConfig()), nil)
	integrations.On("GetIntegrationByOrganizationID", mock.Anything, "org_1").
		Return(mo.None[*models.DiscordIntegration](), nil)
	roles.On("Assign", mock.Anything, mock.MatchedBy(func(intent models.RoleAssignmentIntent) bool {
		return intent.Action == models.RoleActionRevoke
	})).Return(models.RoleAssignmentOutcome{Success: false, Attempts: 3, Error: "Discord API error (500): upstream"})

	recorder := postWebhook(t, handler, testWebhookSecret, ApplicationStatusWebhookRequest{
		Action: "revoked", TournamentID: "t1", StreamerID: "s1", OrganizerID: "org_1",
	})

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp ApplicationStatusWebhookResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Role removal attempted", resp.Message)
}
