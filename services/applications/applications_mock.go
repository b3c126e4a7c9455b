package applications

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"costreambackend/models"
)

// MockApplicationsService is a mock implementation of the ApplicationsService interface
type MockApplicationsService struct {
	mock.Mock
}

func (m *MockApplicationsService) GetApplicationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Application], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.Application](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Application]), args.Error(1)
}

func (m *MockApplicationsService) GetApplicationByTournamentAndStreamer(
	ctx context.Context,
	tournamentID, streamerID string,
) (mo.Option[*models.Application], error) {
	args := m.Called(ctx, tournamentID, streamerID)
	if args.Get(0) == nil {
		return mo.None[*models.Application](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Application]), args.Error(1)
}

func (m *MockApplicationsService) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status models.ApplicationStatus,
) (*models.Application, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}
