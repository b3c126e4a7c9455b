package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"costreambackend/models"
	"costreambackend/usecases/rolesync"
)

// webhookSecretHeader carries the shared secret on application-status webhooks
const webhookSecretHeader = "x-webhook-secret"

// WebhookHandler receives application-status notifications from the tournament
// platform and feeds them into the role sync use case. Authentication is a
// shared-secret header; there is no user session on this path.
type WebhookHandler struct {
	rolesyncUseCase *rolesync.RoleSyncUseCase
	webhookSecret   string
}

func NewWebhookHandler(rolesyncUseCase *rolesync.RoleSyncUseCase, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		rolesyncUseCase: rolesyncUseCase,
		webhookSecret:   webhookSecret,
	}
}

type ApplicationStatusWebhookRequest struct {
	Action       string `json:"action"`
	TournamentID string `json:"tournamentId"`
	StreamerID   string `json:"streamerId"`
	OrganizerID  string `json:"organizerId"`
}

type ApplicationStatusWebhookResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message,omitempty"`
	DiscordStatus *models.DiscordStatus `json:"discordStatus,omitempty"`
}

// webhookActionToStatus maps the webhook action vocabulary onto application
// statuses
func webhookActionToStatus(action string) (models.ApplicationStatus, bool) {
	switch action {
	case "approved":
		return models.ApplicationStatusApproved, true
	case "rejected":
		return models.ApplicationStatusRejected, true
	case "revoked":
		return models.ApplicationStatusRevoked, true
	default:
		return "", false
	}
}

func (h *WebhookHandler) HandleApplicationStatusWebhook(w http.ResponseWriter, r *http.Request) {
	log.Printf("📨 Application status webhook received from %s", r.RemoteAddr)

	if h.webhookSecret == "" {
		log.Printf("❌ Webhook secret not configured, rejecting request")
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	}

	provided := r.Header.Get(webhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
		log.Printf("❌ Invalid webhook secret from %s", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ApplicationStatusWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse webhook body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.TournamentID == "" || req.StreamerID == "" {
		log.Printf("❌ Missing tournamentId or streamerId in webhook")
		http.Error(w, "tournamentId and streamerId are required", http.StatusBadRequest)
		return
	}

	status, ok := webhookActionToStatus(req.Action)
	if !ok {
		log.Printf("❌ Unknown webhook action: %s", req.Action)
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	discordStatus, err := h.rolesyncUseCase.ProcessApplicationDecision(
		r.Context(),
		req.OrganizerID,
		req.TournamentID,
		req.StreamerID,
		status,
	)
	if err != nil {
		log.Printf("❌ Failed to process webhook decision: %v", err)
		h.writeJSONResponse(w, http.StatusInternalServerError, ApplicationStatusWebhookResponse{
			Success: false,
			Message: "failed to process application decision",
		})
		return
	}

	// Grants must report the real outcome so the caller can retry; removals
	// are best-effort and always acknowledged.
	if status == models.ApplicationStatusApproved {
		if !discordStatus.Skipped && !discordStatus.Success {
			log.Printf("❌ Role grant failed: %s", discordStatus.Error)
			h.writeJSONResponse(w, http.StatusInternalServerError, ApplicationStatusWebhookResponse{
				Success:       false,
				Message:       "role assignment failed",
				DiscordStatus: discordStatus,
			})
			return
		}

		h.writeJSONResponse(w, http.StatusOK, ApplicationStatusWebhookResponse{
			Success:       true,
			DiscordStatus: discordStatus,
		})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ApplicationStatusWebhookResponse{
		Success:       true,
		Message:       "Role removal attempted",
		DiscordStatus: discordStatus,
	})
}

func (h *WebhookHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering webhook endpoints")

	router.HandleFunc("/webhooks/application-status", h.HandleApplicationStatusWebhook).Methods("POST")
	log.Printf("✅ POST /webhooks/application-status endpoint registered")
}

func (h *WebhookHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
	}
}
