package walletController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services/errs"
	"lms/services/ledger"

	"github.com/gofiber/fiber/v2"
)

// GetWalletBalance returns the caller's current credit balance
func GetWalletBalance(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
		}

		account, err := ledgerSvc.EnsureAccount(userID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		balance, err := ledgerSvc.Balance(account.ID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet balance fetched!", fiber.Map{
			"account_id": account.ID,
			"balance":    balance,
			"currency":   "CREDITS",
		})
	}
}

// GetWalletHistory returns the caller's transactions, newest first
func GetWalletHistory(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
		}

		// Parse query params
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 10)

		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit

		account, err := ledgerSvc.EnsureAccount(userID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		transactions, total, err := ledgerSvc.HistoryPage(account.ID, limit, offset)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet history fetched!", fiber.Map{
			"transactions":   transactions,
			"currentBalance": account.BalanceCredits,
			"pagination": fiber.Map{
				"total": total,
				"page":  page,
				"limit": limit,
			},
		})
	}
}
