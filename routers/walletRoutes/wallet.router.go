package walletRoutes

import (
	walletController "lms/controllers/wallet"
	"lms/middleware"
	"lms/services/ledger"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, ledgerSvc *ledger.Service) {
	walletGroup := app.Group("/wallet")

	walletGroup.Get("/balance", middleware.JWTMiddleware, walletController.GetWalletBalance(ledgerSvc))
	walletGroup.Get("/history", middleware.JWTMiddleware, walletController.GetWalletHistory(ledgerSvc))
}
