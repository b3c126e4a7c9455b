package roleassignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"costreambackend/clients"
	"costreambackend/clients/discord"
	"costreambackend/models"
)

// MockRoleAuditRepository is a mock implementation of the RoleAuditRepository interface
type MockRoleAuditRepository struct {
	mock.Mock
}

func (m *MockRoleAuditRepository) CreateRoleAuditEntry(ctx context.Context, entry *models.RoleAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRoleAuditRepository) HasSuccessfulAssignment(
	ctx context.Context,
	applicationID, tournamentID string,
	action models.RoleAction,
) (bool, error) {
	args := m.Called(ctx, applicationID, tournamentID, action)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleAuditRepository) ListRoleAuditEntriesByOrganizationID(
	ctx context.Context,
	organizationID string,
	limit int,
) ([]*models.RoleAuditEntry, error) {
	args := m.Called(ctx, organizationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoleAuditEntry), args.Error(1)
}

// MockApplicationFlagsRepository is a mock implementation of the ApplicationFlagsRepository interface
type MockApplicationFlagsRepository struct {
	mock.Mock
}

func (m *MockApplicationFlagsRepository) MarkDiscordRoleAssigned(ctx context.Context, applicationID string) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockApplicationFlagsRepository) MarkDiscordRoleRemoved(ctx context.Context, applicationID string) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func newTestService() (*RoleAssignmentService, *discord.MockDiscordGuildClient, *MockRoleAuditRepository, *MockApplicationFlagsRepository, *[]time.Duration) {
	guildClient := new(discord.MockDiscordGuildClient)
	auditRepo := new(MockRoleAuditRepository)
	flagsRepo := new(MockApplicationFlagsRepository)

	service := NewRoleAssignmentService(guildClient, auditRepo, flagsRepo)

	sleeps := &[]time.Duration{}
	service.sleep = func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	}

	return service, guildClient, auditRepo, flagsRepo, sleeps
}

func grantIntent() models.RoleAssignmentIntent {
	return models.RoleAssignmentIntent{
		GuildID:        "guild123",
		DiscordUserID:  "discorduser1",
		RoleID:         "role456",
		Action:         models.RoleActionGrant,
		ApplicationID:  "app_1",
		TournamentID:   "t1",
		OrganizationID: "org_1",
	}
}

func TestAssign_GrantSucceedsFirstAttempt(t *testing.T) {
	service, guildClient, auditRepo, flagsRepo, sleeps := newTestService()

	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionGrant).
		Return(false, nil)
	guildClient.On("GrantRole", "guild123", "discorduser1", "role456").Return(nil)
	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.MatchedBy(func(entry *models.RoleAuditEntry) bool {
		return entry.Success && entry.Attempts == 1 && entry.RoleID == "role456" && entry.ErrorMessage == nil
	})).Return(nil)
	flagsRepo.On("MarkDiscordRoleAssigned", mock.Anything, "app_1").Return(nil)

	outcome := service.Assign(context.Background(), grantIntent())

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, "role456", outcome.RoleID)
	assert.Empty(t, *sleeps)
	guildClient.AssertNotCalled(t, "FindOrCreateRole", mock.Anything, mock.Anything, mock.Anything)
	auditRepo.AssertExpectations(t)
	flagsRepo.AssertExpectations(t)
}

func TestAssign_TransientErrorRetriesWithBackoff(t *testing.T) {
	service, guildClient, auditRepo, flagsRepo, sleeps := newTestService()

	transient := &discord.APIError{StatusCode: 500, Message: "upstream"}
	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionGrant).
		Return(false, nil)
	guildClient.On("GrantRole", "guild123", "discorduser1", "role456").Return(transient).Once()
	guildClient.On("GrantRole", "guild123", "discorduser1", "role456").Return(nil).Once()
	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.MatchedBy(func(entry *models.RoleAuditEntry) bool {
		return entry.Success && entry.Attempts == 2
	})).Return(nil)
	flagsRepo.On("MarkDiscordRoleAssigned", mock.Anything, "app_1").Return(nil)

	outcome := service.Assign(context.Background(), grantIntent())

	assert.True(t, outcome.Success)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
	guildClient.AssertExpectations(t)
}

func TestAssign_ExhaustsRetriesOnPersistentTransientError(t *testing.T) {
	service, guildClient, auditRepo, _, sleeps := newTestService()

	transient := &discord.APIError{StatusCode: 429, Message: "rate limited"}
	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionGrant).
		Return(false, nil)
	guildClient.On("GrantRole", "guild123", "discorduser1", "role456").Return(transient).Times(3)
	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.MatchedBy(func(entry *models.RoleAuditEntry) bool {
		return !entry.Success && entry.Attempts == 3 && entry.ErrorMessage != nil
	})).Return(nil)

	outcome := service.Assign(context.Background(), grantIntent())

	assert.False(t, outcome.Success)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Contains(t, outcome.Error, "rate limited")
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
	guildClient.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestAssign_PermanentErrorAbortsImmediately(t *testing.T) {
	service, guildClient, auditRepo, _, sleeps := newTestService()

	permanent := &discord.APIError{StatusCode: 403, Message: "Missing Permissions"}
	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionGrant).
		Return(false, nil)
	guildClient.On("GrantRole", "guild123", "discorduser1", "role456").Return(permanent).Once()
	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.MatchedBy(func(entry *models.RoleAuditEntry) bool {
		return !entry.Success && entry.Attempts == 1
	})).Return(nil)

	outcome := service.Assign(context.Background(), grantIntent())

	assert.False(t, outcome.Success)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Contains(t, outcome.Error, "Missing Permissions")
	assert.Empty(t, *sleeps)
	guildClient.AssertExpectations(t)
}

func TestAssign_MissingParametersFailsWithoutAttempting(t *testing.T) {
	service, guildClient, auditRepo, _, _ := newTestService()

	intent := grantIntent()
	intent.DiscordUserID = ""

	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.MatchedBy(func(entry *models.RoleAuditEntry) bool {
		return !entry.Success && entry.Attempts == 0
	})).Return(nil)

	outcome := service.Assign(context.Background(), intent)

	assert.False(t, outcome.Success)
	assert.Equal(t, 0, outcome.Attempts)
	guildClient.AssertNotCalled(t, "GrantRole", mock.Anything, mock.Anything, mock.Anything)
	auditRepo.AssertExpectations(t)
}

func TestAssign_DeduplicatesEarlierSuccess(t *testing.T) {
	service, guildClient, auditRepo, _, _ := newTestService()

	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionGrant).
		Return(true, nil)

	outcome := service.Assign(context.Background(), grantIntent())

	assert.True(t, outcome.Success)
	assert.Equal(t, 0, outcome.Attempts)
	assert.True(t, outcome.Deduplicated)
	guildClient.AssertNotCalled(t, "GrantRole", mock.Anything, mock.Anything, mock.Anything)
	auditRepo.AssertNotCalled(t, "CreateRoleAuditEntry", mock.Anything, mock.Anything)
}

func TestAssign_ResolvesRoleByNameWhenIDUnknown(t *testing.T) {
	service, guildClient, auditRepo, flagsRepo, _ := newTestService()

	intent := grantIntent()
	intent.RoleID = ""
	intent.RoleName = ""

	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionGrant).
		Return(false, nil)
	guildClient.On("FindOrCreateRole", "guild123", models.DefaultApprovedRoleName, models.DefaultApprovedRoleColor).
		Return(&clients.DiscordRole{ID: "role789", Name: models.DefaultApprovedRoleName}, nil)
	guildClient.On("GrantRole", "guild123", "discorduser1", "role789").Return(nil)
	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.Anything).Return(nil)
	flagsRepo.On("MarkDiscordRoleAssigned", mock.Anything, "app_1").Return(nil)

	outcome := service.Assign(context.Background(), intent)

	assert.True(t, outcome.Success)
	assert.Equal(t, "role789", outcome.RoleID)
	guildClient.AssertExpectations(t)
}

func TestAssign_RevokeSuccessMarksRoleRemoved(t *testing.T) {
	service, guildClient, auditRepo, flagsRepo, _ := newTestService()

	intent := grantIntent()
	intent.Action = models.RoleActionRevoke

	auditRepo.On("HasSuccessfulAssignment", mock.Anything, "app_1", "t1", models.RoleActionRevoke).
		Return(false, nil)
	guildClient.On("RevokeRole", "guild123", "discorduser1", "role456").Return(nil)
	auditRepo.On("CreateRoleAuditEntry", mock.Anything, mock.Anything).Return(nil)
	flagsRepo.On("MarkDiscordRoleRemoved", mock.Anything, "app_1").Return(nil)

	outcome := service.Assign(context.Background(), intent)

	assert.True(t, outcome.Success)
	flagsRepo.AssertExpectations(t)
}

func TestListRoleHistory_DefaultsLimit(t *testing.T) {
	service, _, auditRepo, _, _ := newTestService()

	entries := []*models.RoleAuditEntry{{ID: "ra_1"}}
	auditRepo.On("ListRoleAuditEntriesByOrganizationID", mock.Anything, "org_1", 50).
		Return(entries, nil)

	result, err := service.ListRoleHistory(context.Background(), "org_1", 0)

	require.NoError(t, err)
	assert.Len(t, result, 1)
	auditRepo.AssertExpectations(t)
}

func TestListRoleHistory_RequiresOrganizationID(t *testing.T) {
	service, _, _, _, _ := newTestService()

	_, err := service.ListRoleHistory(context.Background(), "", 10)

	assert.Error(t, err)
}
