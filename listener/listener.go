// Package listener subscribes to Postgres NOTIFY events emitted by the
// application_status_changes trigger and drives the role sync use case from
// them. This is the push-based counterpart of the webhook: both converge on
// the same use case, so a decision arriving on both paths is deduplicated by
// the orchestrator's audit-log guard.
package listener

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lib/pq"

	"costreambackend/models"
	"costreambackend/usecases/rolesync"
)

// channelName is the NOTIFY channel the database trigger publishes to
const channelName = "application_status_changes"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// applicationStatusEvent is the JSON payload of one NOTIFY message
type applicationStatusEvent struct {
	ApplicationID  string `json:"application_id"`
	TournamentID   string `json:"tournament_id"`
	StreamerID     string `json:"streamer_id"`
	OrganizationID string `json:"organization_id"`
	Status         string `json:"status"`
}

// ApplicationStatusListener owns the pq listener connection and its reconnect
// loop
type ApplicationStatusListener struct {
	databaseURL     string
	rolesyncUseCase *rolesync.RoleSyncUseCase
}

func NewApplicationStatusListener(
	databaseURL string,
	rolesyncUseCase *rolesync.RoleSyncUseCase,
) *ApplicationStatusListener {
	return &ApplicationStatusListener{
		databaseURL:     databaseURL,
		rolesyncUseCase: rolesyncUseCase,
	}
}

// Listen blocks consuming notifications until the context is cancelled.
// pq.Listener reconnects on its own; a dropped connection only costs the
// notifications sent while it was down, which the webhook path covers.
func (l *ApplicationStatusListener) Listen(ctx context.Context) error {
	pqListener := pq.NewListener(
		l.databaseURL,
		minReconnectInterval,
		maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("⚠️ Postgres listener event %d: %v", event, err)
			}
		},
	)
	defer pqListener.Close()

	if err := pqListener.Listen(channelName); err != nil {
		return err
	}
	log.Printf("📡 Listening for %s notifications", channelName)

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("📡 Application status listener shutting down")
			return ctx.Err()
		case notification := <-pqListener.Notify:
			// nil notification signals a reconnect; nothing to process
			if notification == nil {
				continue
			}
			l.handleNotification(ctx, notification.Extra)
		case <-pingTicker.C:
			if err := pqListener.Ping(); err != nil {
				log.Printf("⚠️ Postgres listener ping failed: %v", err)
			}
		}
	}
}

func (l *ApplicationStatusListener) handleNotification(ctx context.Context, payload string) {
	var event applicationStatusEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("❌ Failed to decode application status notification: %v", err)
		return
	}

	status := models.ApplicationStatus(event.Status)
	switch status {
	case models.ApplicationStatusApproved, models.ApplicationStatusRejected, models.ApplicationStatusRevoked:
	default:
		// Pending and unknown transitions carry no role action
		return
	}

	log.Printf(
		"📡 Application status change: application=%s tournament=%s status=%s",
		event.ApplicationID, event.TournamentID, event.Status,
	)

	discordStatus, err := l.rolesyncUseCase.ProcessApplicationDecision(
		ctx,
		event.OrganizationID,
		event.TournamentID,
		event.StreamerID,
		status,
	)
	if err != nil {
		log.Printf("❌ Failed to process application status change: %v", err)
		return
	}

	if discordStatus.Skipped {
		log.Printf("📡 Role sync skipped: %s", discordStatus.SkipReason)
	}
}
