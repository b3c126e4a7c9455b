package roleassignment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"costreambackend/models"
)

// MockRoleAssignmentService is a mock implementation of the RoleAssignmentService interface
type MockRoleAssignmentService struct {
	mock.Mock
}

func (m *MockRoleAssignmentService) Assign(
	ctx context.Context,
	intent models.RoleAssignmentIntent,
) models.RoleAssignmentOutcome {
	args := m.Called(ctx, intent)
	return args.Get(0).(models.RoleAssignmentOutcome)
}

func (m *MockRoleAssignmentService) ListRoleHistory(
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
