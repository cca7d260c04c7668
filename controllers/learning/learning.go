package learningController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/models/learning"
	"lms/services/errs"
	"lms/services/progression"
	"lms/services/quizengine"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// GetModuleList returns every module of a course with unlock flag, status
// and completion percent for the calling student
func GetModuleList(gate *progression.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		courseID := c.Locals("courseID").(uint)

		// Check enrollment
		var enrollment learning.Enrollment
		if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
		}

		modules, err := gate.ListModules(enrollment.ID, courseID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules fetched successfully!", fiber.Map{
			"course_id":     courseID,
			"enrollment_id": enrollment.ID,
			"modules":       modules,
		})
	}
}

// TrackContentProgress records a content consumption report for a module
func TrackContentProgress(gate *progression.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		moduleID := c.Locals("moduleID").(uint)

		reqData, ok := c.Locals("validatedTrackProgress").(*struct {
			Percent *float64 `json:"percent"`
		})
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		enrollment, errResp := resolveEnrollment(c, userID, moduleID)
		if enrollment == nil {
			return errResp
		}

		percent, err := gate.RecordContentProgress(enrollment.ID, moduleID, *reqData.Percent)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress recorded!", fiber.Map{
			"module_id":          moduleID,
			"completion_percent": percent,
		})
	}
}

// GetQuiz hands out a freshly generated quiz instance for an unlocked,
// fully consumed module
func GetQuiz(gate *progression.Service, engine *quizengine.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		moduleID := c.Locals("moduleID").(uint)

		enrollment, errResp := resolveEnrollment(c, userID, moduleID)
		if enrollment == nil {
			return errResp
		}

		unlocked, err := gate.IsUnlocked(enrollment.ID, moduleID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}
		if !unlocked {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Module is locked! Complete the previous module first.", nil)
		}

		canAttempt, reason, err := engine.CanAttempt(enrollment.ID, moduleID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}
		if !canAttempt {
			status := fiber.StatusBadRequest
			if reason == quizengine.ReasonMaxAttempts {
				status = fiber.StatusTooManyRequests
			}
			return middleware.JsonResponse(c, status, false, reason, nil)
		}

		quiz, err := engine.GenerateQuiz(moduleID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz generated!", quiz)
	}
}

// SubmitQuiz scores a submission, persists the attempt and reports the
// result with wrong-answer explanations
func SubmitQuiz(gate *progression.Service, engine *quizengine.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		moduleID := c.Locals("moduleID").(uint)

		reqData, ok := c.Locals("validatedQuizSubmission").(*struct {
			Answers          map[uint]uint `json:"answers"`
			TimeTakenSeconds *int          `json:"time_taken_seconds"`
		})
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		enrollment, errResp := resolveEnrollment(c, userID, moduleID)
		if enrollment == nil {
			return errResp
		}

		unlocked, err := gate.IsUnlocked(enrollment.ID, moduleID)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}
		if !unlocked {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Module is locked! Complete the previous module first.", nil)
		}

		result, err := engine.SubmitAndScore(enrollment.ID, moduleID, reqData.Answers, *reqData.TimeTakenSeconds)
		if err != nil {
			return middleware.JsonResponse(c, errs.StatusFor(err), false, err.Error(), nil)
		}

		if result.ModuleCompleted {
			var module learning.CurriculumModule
			if err := database.Database.Db.First(&module, moduleID).Error; err == nil {
				go utils.SendModuleCompletionEmail(user.Email, user.Name, module.Title, result.CreditsAwarded)
			}
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted!", result)
	}
}

// resolveEnrollment finds the caller's enrollment for the module's course.
// Returns a ready error response when the module or enrollment is missing.
func resolveEnrollment(c *fiber.Ctx, userID, moduleID uint) (*learning.Enrollment, error) {
	var module learning.CurriculumModule
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}

	var enrollment learning.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, module.CourseID, false).First(&enrollment).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	return &enrollment, nil
}
