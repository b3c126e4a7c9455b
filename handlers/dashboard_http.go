package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"costreambackend/appctx"
	"costreambackend/core"
	"costreambackend/middleware"
	"costreambackend/models"
	"costreambackend/models/api"
	"costreambackend/statetoken"
)

type DashboardHTTPHandler struct {
	handler *DashboardAPIHandler
	appURL  string
}

func NewDashboardHTTPHandler(handler *DashboardAPIHandler, appURL string) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{
		handler: handler,
		appURL:  appURL,
	}
}

type ConnectURLResponse struct {
	URL string `json:"url"`
}

type AssignRoleRequest struct {
	GuildID       string `json:"guild_id"`
	DiscordUserID string `json:"discord_user_id"`
	RoleName      string `json:"role_name"`
	ApplicationID string `json:"application_id"`
	TournamentID  string `json:"tournament_id"`
}

type AssignRoleResponse struct {
	Success bool   `json:"success"`
	RoleID  string `json:"role_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ApplicationDecisionResponse struct {
	Application   *models.Application   `json:"application"`
	DiscordStatus *models.DiscordStatus `json:"discordStatus"`
}

func (h *DashboardHTTPHandler) HandleUserAuthenticate(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 User authentication request received from %s", r.RemoteAddr)

	// Get user entity from context (set by authentication middleware)
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	log.Printf("✅ User data retrieved from context: %s", user.ID)

	apiUser := api.DomainUserToAPIUser(user)
	h.writeJSONResponse(w, http.StatusOK, apiUser)
}

func (h *DashboardHTTPHandler) HandleDiscordConnect(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔗 Discord connect request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	connectURL, err := h.handler.BuildConnectURL(user.OrganizationID)
	if err != nil {
		log.Printf("❌ Failed to build Discord connect URL: %v", err)
		http.Error(w, "failed to build connect URL", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ConnectURLResponse{URL: connectURL})
}

// HandleDiscordCallback is the OAuth redirect target. It is unauthenticated by
// necessity (the browser arrives from Discord without a session header); the
// signed state token is what ties the request back to an organization. The
// outcome is always a redirect back to the dashboard settings page.
func (h *DashboardHTTPHandler) HandleDiscordCallback(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔗 Discord OAuth callback received from %s", r.RemoteAddr)

	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	guildID := query.Get("guild_id")

	if code == "" || state == "" {
		log.Printf("❌ Missing code or state in OAuth callback")
		h.redirectWithError(w, r, "Missing code or state parameter")
		return
	}

	config, err := h.handler.CompleteCallback(r.Context(), code, state, guildID)
	if err != nil {
		log.Printf("❌ Failed to complete Discord OAuth callback: %v", err)
		if errors.Is(err, statetoken.ErrInvalidOrExpired) {
			h.redirectWithError(w, r, "Invalid or expired state token")
		} else {
			h.redirectWithError(w, r, "Failed to connect Discord server")
		}
		return
	}

	log.Printf("✅ Discord connected successfully: guild %s (%s)", config.GuildName, config.GuildID)

	params := url.Values{}
	params.Set("discord", "connected")
	params.Set("guild", config.GuildName)
	http.Redirect(w, r, h.appURL+"/dashboard/settings?"+params.Encode(), http.StatusFound)
}

func (h *DashboardHTTPHandler) HandleDiscordDisconnect(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Discord disconnect request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.handler.Disconnect(r.Context(), user.OrganizationID); err != nil {
		log.Printf("❌ Failed to disconnect Discord: %v", err)
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "discord integration not found", http.StatusNotFound)
		} else {
			http.Error(w, "failed to disconnect discord", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("✅ Discord disconnected successfully for organization: %s", user.OrganizationID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHTTPHandler) HandleDiscordTestConfig(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Discord test-config request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	status, err := h.handler.TestConfig(r.Context(), user.OrganizationID)
	if err != nil {
		log.Printf("❌ Failed to get Discord integration status: %v", err)
		http.Error(w, "failed to get discord integration status", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, status)
}

func (h *DashboardHTTPHandler) HandleRoleHistory(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Role history request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.handler.ListRoleHistory(r.Context(), user.OrganizationID, limit)
	if err != nil {
		log.Printf("❌ Failed to list role history: %v", err)
		http.Error(w, "failed to list role history", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainRoleAuditEntriesToAPIRoleAuditEntries(entries))
}

func (h *DashboardHTTPHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ Direct role assignment request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.GuildID == "" {
		log.Printf("❌ Missing guild_id in request")
		http.Error(w, "guild_id is required", http.StatusBadRequest)
		return
	}
	if req.DiscordUserID == "" {
		log.Printf("❌ Missing discord_user_id in request")
		http.Error(w, "discord_user_id is required", http.StatusBadRequest)
		return
	}

	outcome := h.handler.AssignRole(r.Context(), models.RoleAssignmentIntent{
		GuildID:        req.GuildID,
		DiscordUserID:  req.DiscordUserID,
		RoleName:       req.RoleName,
		Action:         models.RoleActionGrant,
		ApplicationID:  req.ApplicationID,
		TournamentID:   req.TournamentID,
		OrganizationID: user.OrganizationID,
	})

	statusCode := http.StatusOK
	if !outcome.Success {
		statusCode = http.StatusBadGateway
	}
	h.writeJSONResponse(w, statusCode, AssignRoleResponse{
		Success: outcome.Success,
		RoleID:  outcome.RoleID,
		Error:   outcome.Error,
	})
}

func (h *DashboardHTTPHandler) HandleApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.handleApplicationDecision(w, r, models.ApplicationStatusApproved)
}

func (h *DashboardHTTPHandler) HandleRejectApplication(w http.ResponseWriter, r *http.Request) {
	h.handleApplicationDecision(w, r, models.ApplicationStatusRejected)
}

func (h *DashboardHTTPHandler) handleApplicationDecision(
	w http.ResponseWriter,
	r *http.Request,
	status models.ApplicationStatus,
) {
	log.Printf("📋 Application %s request received from %s", status, r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	applicationID, ok := vars["id"]
	if !ok || !core.IsValidULID(applicationID) {
		log.Printf("❌ Missing or invalid application ID in URL path")
		http.Error(w, "application ID must be a valid ULID", http.StatusBadRequest)
		return
	}

	app, discordStatus, err := h.handler.DecideApplication(r.Context(), user.OrganizationID, applicationID, status)
	if err != nil {
		log.Printf("❌ Failed to update application status: %v", err)
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "application not found", http.StatusNotFound)
		} else {
			http.Error(w, "failed to update application status", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ApplicationDecisionResponse{
		Application:   app,
		DiscordStatus: discordStatus,
	})
}

func (h *DashboardHTTPHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	params := url.Values{}
	params.Set("discord", "error")
	params.Set("message", message)
	http.Redirect(w, r, h.appURL+"/dashboard/settings?"+params.Encode(), http.StatusFound)
}

func (h *DashboardHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering dashboard API endpoints")

	// User authentication endpoint
	router.HandleFunc("/users/authenticate", authMiddleware.WithAuth(h.HandleUserAuthenticate)).Methods("POST")
	log.Printf("✅ POST /users/authenticate endpoint registered")

	// Discord integration endpoints
	router.HandleFunc("/discord/connect", authMiddleware.WithAuth(h.HandleDiscordConnect)).Methods("GET")
	log.Printf("✅ GET /discord/connect endpoint registered")

	// Unauthenticated: the browser arrives here straight from Discord
	router.HandleFunc("/discord/callback", h.HandleDiscordCallback).Methods("GET")
	log.Printf("✅ GET /discord/callback endpoint registered")

	router.HandleFunc("/discord/disconnect", authMiddleware.WithAuth(h.HandleDiscordDisconnect)).Methods("POST")
	log.Printf("✅ POST /discord/disconnect endpoint registered")

	router.HandleFunc("/discord/test-config", authMiddleware.WithAuth(h.HandleDiscordTestConfig)).Methods("GET")
	log.Printf("✅ GET /discord/test-config endpoint registered")

	router.HandleFunc("/discord/role-history", authMiddleware.WithAuth(h.HandleRoleHistory)).Methods("GET")
	log.Printf("✅ GET /discord/role-history endpoint registered")

	router.HandleFunc("/discord/assign-role", authMiddleware.WithAuth(h.HandleAssignRole)).Methods("POST")
	log.Printf("✅ POST /discord/assign-role endpoint registered")

	// Application decision endpoints
	router.HandleFunc("/applications/{id}/approve", authMiddleware.WithAuth(h.HandleApproveApplication)).
		Methods("POST")
	log.Printf("✅ POST /applications/{id}/approve endpoint registered")

	router.HandleFunc("/applications/{id}/reject", authMiddleware.WithAuth(h.HandleRejectApplication)).
		Methods("POST")
	log.Printf("✅ POST /applications/{id}/reject endpoint registered")

	log.Printf("✅ All dashboard API endpoints registered successfully")
}

func (h *DashboardHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
