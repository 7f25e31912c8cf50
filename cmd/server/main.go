package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codetrack/internal/api"
	"codetrack/internal/app/service"
	"codetrack/internal/app/worker"
	"codetrack/internal/common/security"
	"codetrack/internal/domain/repository"
	"codetrack/internal/platform/config"
	"codetrack/internal/platform/database"
	"codetrack/internal/platform/gsheet"
	"codetrack/internal/platform/queue"
	"codetrack/internal/platform/repohost"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis (optional; inline processing without it)
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Initialize external clients
	ctx := context.Background()
	sheetClient, err := gsheet.NewClient(ctx, config.AppConfig.GoogleServiceAccountKey, config.AppConfig.SheetsRateLimitPerSec)
	if err != nil {
		log.Fatalf("Could not create sheets client: %v", err)
	}
	repoClient := repohost.NewClient()

	// 6. Initialize Repositories
	phaseRepo := repository.NewMongoPhaseRepository(database.DB)
	questionRepo := repository.NewMongoQuestionRepository(database.DB)
	groupRepo := repository.NewMongoGroupSheetRepository(database.DB)
	mappingRepo := repository.NewMongoMappingRepository(database.DB)
	submissionRepo := repository.NewMongoSubmissionRepository(database.DB)
	userRepo := repository.NewMongoUserRepository(database.DB)

	// 7. Initialize Services
	processor := service.NewSubmissionProcessor(
		submissionRepo, userRepo, questionRepo, groupRepo, mappingRepo, phaseRepo,
		sheetClient, repoClient, config.AppConfig.EncryptionKey,
	)
	catalogService := service.NewCatalogService(
		phaseRepo, questionRepo, groupRepo, mappingRepo,
		config.AppConfig.MasterSheetID, config.AppConfig.DefaultStartColumn,
	)
	masterSheetService := service.NewMasterSheetService(phaseRepo, questionRepo, groupRepo, mappingRepo, sheetClient)
	syncService := service.NewSyncService(
		phaseRepo, questionRepo, groupRepo, mappingRepo, sheetClient,
		config.AppConfig.MasterSheetID, config.AppConfig.DefaultStartColumn,
	)
	userService := service.NewUserService(userRepo, groupRepo, sheetClient, config.AppConfig.EncryptionKey)
	submissionService := service.NewSubmissionService(submissionRepo, userRepo, questionRepo, processor, queue.RDB)

	// 8. Initialize Submission Workers (only with a queue backend)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if queue.RDB != nil {
		submissionWorker := worker.NewSubmissionWorker(queue.RDB, processor)
		go submissionWorker.Start(workerCtx)
		fmt.Println("Submission workers started.")
	}

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(catalogService, masterSheetService, syncService, userService, submissionService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
