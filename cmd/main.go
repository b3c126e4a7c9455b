package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	discordclient "costreambackend/clients/discord"
	"costreambackend/config"
	"costreambackend/db"
	"costreambackend/handlers"
	"costreambackend/listener"
	"costreambackend/middleware"
	applicationssvc "costreambackend/services/applications"
	discordintegrations "costreambackend/services/discord_integrations"
	roleassignment "costreambackend/services/role_assignment"
	"costreambackend/services/txmanager"
	"costreambackend/services/users"
	"costreambackend/statetoken"
	"costreambackend/usecases/rolesync"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "costreambackend",
		LogsURL:     cfg.ServerLogsURL,
	})

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	integrationsRepo := db.NewPostgresDiscordIntegrationsRepository(dbConn, cfg.DatabaseSchema)
	configsRepo := db.NewPostgresGuildRoleConfigsRepository(dbConn, cfg.DatabaseSchema)
	applicationsRepo := db.NewPostgresApplicationsRepository(dbConn, cfg.DatabaseSchema)
	roleAuditRepo := db.NewPostgresRoleAuditRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	// Discord clients share one HTTP client with a hard timeout so a hung
	// Discord call cannot stall a retry sequence indefinitely
	httpClient := &http.Client{Timeout: 15 * time.Second}
	oauthClient := discordclient.NewDiscordOAuthClient()
	guildClient := discordclient.NewDiscordGuildClient(httpClient, cfg.DiscordConfig.BotToken)

	usersService := users.NewUsersService(usersRepo)
	integrationsService := discordintegrations.NewDiscordIntegrationsService(
		integrationsRepo,
		configsRepo,
		oauthClient,
		guildClient,
		txManager,
		cfg.DiscordConfig.ClientID,
		cfg.DiscordConfig.ClientSecret,
	)
	applicationsService := applicationssvc.NewApplicationsService(applicationsRepo)
	roleAssignmentService := roleassignment.NewRoleAssignmentService(guildClient, roleAuditRepo, applicationsRepo)

	rolesyncUseCase := rolesync.NewRoleSyncUseCase(integrationsService, applicationsService, roleAssignmentService)

	stateIssuer := statetoken.NewIssuer(cfg.StateSigningSecret)
	dashboardHandler := handlers.NewDashboardAPIHandler(
		integrationsService,
		applicationsService,
		roleAssignmentService,
		rolesyncUseCase,
		stateIssuer,
		cfg.DiscordConfig,
	)
	dashboardHTTPHandler := handlers.NewDashboardHTTPHandler(dashboardHandler, cfg.AppURL)
	webhookHandler := handlers.NewWebhookHandler(rolesyncUseCase, cfg.WebhookSecret)
	authMiddleware := middleware.NewClerkAuthMiddleware(usersService, cfg.ClerkConfig.SecretKey)

	// Create a new router
	router := mux.NewRouter()

	// Setup endpoints with the new router
	apiRouter := router.PathPrefix("/api").Subrouter()
	dashboardHTTPHandler.SetupEndpoints(apiRouter, authMiddleware)
	webhookHandler.SetupEndpoints(apiRouter)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Start the application-status change listener; it shares the use case
	// with the webhook so both paths converge on the same dedup guard
	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()

	statusListener := listener.NewApplicationStatusListener(cfg.DatabaseURL, rolesyncUseCase)
	go func() {
		_ = alertMiddleware.WrapBackgroundTask("ApplicationStatusListener", func() error {
			if err := statusListener.Listen(listenerCtx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})()
	}()

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, stopListener)
}

func handleGracefulShutdown(server *http.Server, stopListener context.CancelFunc) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Stop the change-event listener before draining HTTP
	stopListener()

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
