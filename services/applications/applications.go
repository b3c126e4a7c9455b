package applications

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"costreambackend/core"
	"costreambackend/models"
)

// ApplicationsRepository defines the interface for application repository operations
type ApplicationsRepository interface {
	GetApplicationByID(ctx context.Context, id string) (mo.Option[*models.Application], error)
	GetApplicationByTournamentAndStreamer(
		ctx context.Context,
		tournamentID, streamerID string,
	) (mo.Option[*models.Application], error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (bool, error)
}

type ApplicationsService struct {
	applicationsRepo ApplicationsRepository
}

func NewApplicationsService(repo ApplicationsRepository) *ApplicationsService {
	return &ApplicationsService{applicationsRepo: repo}
}

func (s *ApplicationsService) GetApplicationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Application], error) {
	log.Printf("📋 Starting to get application by ID: %s", id)
	if !core.IsValidULID(id) {
		return mo.None[*models.Application](), fmt.Errorf("application ID must be a valid ULID")
	}

	maybeApp, err := s.applicationsRepo.GetApplicationByID(ctx, id)
	if err != nil {
		return mo.None[*models.Application](), fmt.Errorf("failed to get application: %w", err)
	}

	log.Printf("📋 Completed successfully - application present: %v", maybeApp.IsPresent())
	return maybeApp, nil
}

func (s *ApplicationsService) GetApplicationByTournamentAndStreamer(
	ctx context.Context,
	tournamentID, streamerID string,
) (mo.Option[*models.Application], error) {
	log.Printf(
		"📋 Starting to get application for tournament: %s, streamer: %s",
		tournamentID, streamerID,
	)
	if tournamentID == "" || streamerID == "" {
		return mo.None[*models.Application](), fmt.Errorf("tournament ID and streamer ID cannot be empty")
	}

	maybeApp, err := s.applicationsRepo.GetApplicationByTournamentAndStreamer(ctx, tournamentID, streamerID)
	if err != nil {
		return mo.None[*models.Application](), fmt.Errorf("failed to get application: %w", err)
	}

	log.Printf("📋 Completed successfully - application present: %v", maybeApp.IsPresent())
	return maybeApp, nil
}

// UpdateApplicationStatus transitions the application and returns the
// refreshed row
func (s *ApplicationsService) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status models.ApplicationStatus,
) (*models.Application, error) {
	log.Printf("📋 Starting to update application %s status to: %s", id, status)
	if !core.IsValidULID(id) {
		return nil, fmt.Errorf("application ID must be a valid ULID")
	}

	updated, err := s.applicationsRepo.UpdateApplicationStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	if !updated {
		return nil, core.ErrNotFound
	}

	maybeApp, err := s.applicationsRepo.GetApplicationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload application: %w", err)
	}
	if !maybeApp.IsPresent() {
		return nil, core.ErrNotFound
	}

	app := maybeApp.MustGet()
	log.Printf("📋 Completed successfully - application %s is now %s", app.ID, app.Status)
	return app, nil
}
