package main

import (
	"lms/config"
	"lms/database"
	learningRoutes "lms/routers/learningRoutes"
	walletRoutes "lms/routers/walletRoutes"
	"lms/services/ledger"
	"lms/services/progression"
	"lms/services/quizengine"
	"lms/services/reward"
	"lms/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	db := database.Database.Db
	engineCfg := config.AppConfig.Engine

	// One keyed-mutex set for the whole engine so progress merges, quiz
	// submissions and ledger awards serialize on the same scopes
	locks := utils.NewKeyMutex()
	notifier := utils.NewNotifier(config.AppConfig.EventWebhookURL)

	gate := progression.NewService(db, engineCfg, locks)
	rewards := reward.NewCalculator(engineCfg)
	ledgerService := ledger.NewService(db, locks)
	quizEngine := quizengine.NewService(db, engineCfg, gate, ledgerService, rewards, notifier, locks)

	if _, err := ledgerService.StartReconciler(config.AppConfig.ReconcileCron, config.AppConfig.AdminAlertEmail); err != nil {
		log.Fatalf("Failed to start ledger reconciler: %v", err)
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	learningRoutes.SetupLearningRoutes(app, gate, quizEngine)
	walletRoutes.SetupWalletRoutes(app, ledgerService)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
